package template

import (
	"strings"

	"zalonotify/pkg/order"
)

// FieldStrategy resolves one custom field from a snapshot. ok reports
// whether the strategy produced a value; the first strategy to do so wins.
type FieldStrategy func(field string, snap order.Snapshot) (value any, ok bool)

// DefaultStrategies returns the custom field chain: meta value, getter
// accessor, raw data key, then nested "prefix_rest" data lookup.
func DefaultStrategies() []FieldStrategy {
	return []FieldStrategy{MetaValue, GetterValue, DataValue, CompoundDataValue}
}

// MetaValue matches order meta stored under field. Empty strings and false
// count as absent.
func MetaValue(field string, snap order.Snapshot) (any, bool) {
	value, ok := snap.Meta(field)
	if !ok || value == nil {
		return nil, false
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil, false
		}
	case bool:
		if !v {
			return nil, false
		}
	}
	return value, true
}

// GetterValue calls the snapshot's get_<field> accessor when it has one.
func GetterValue(field string, snap order.Snapshot) (any, bool) {
	getters, ok := snap.(order.Getters)
	if !ok {
		return nil, false
	}
	getter, ok := getters.Getter("get_" + field)
	if !ok {
		return nil, false
	}
	return getter(), true
}

// DataValue matches a non-null top-level key of the raw data bag.
func DataValue(field string, snap order.Snapshot) (any, bool) {
	value, ok := snap.Data()[field]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

// CompoundDataValue splits field on its first underscore and looks up the
// remainder inside the nested group named by the prefix, so "billing_city"
// reads data["billing"]["city"].
func CompoundDataValue(field string, snap order.Snapshot) (any, bool) {
	prefix, rest, found := strings.Cut(field, "_")
	if !found || prefix == "" || rest == "" {
		return nil, false
	}

	group, ok := snap.Data()[prefix].(map[string]any)
	if !ok {
		return nil, false
	}
	value, ok := group[rest]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}
