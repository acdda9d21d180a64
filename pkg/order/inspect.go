package order

import (
	"slices"
	"unicode/utf8"
)

const inspectMetaPreviewLimit = 100

// Field is one key/value pair offered to operators as a custom field name.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Inspect lists the keys custom fields can reference: raw data keys (nested
// groups flattened as group_key), meta keys with values cut to 100
// characters, and a few formatted helpers.
func Inspect(snap Snapshot) []Field {
	data := snap.Data()
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	fields := make([]Field, 0, len(keys))
	for _, key := range keys {
		if group, ok := data[key].(map[string]any); ok {
			subKeys := make([]string, 0, len(group))
			for subKey := range group {
				subKeys = append(subKeys, subKey)
			}
			slices.Sort(subKeys)
			for _, subKey := range subKeys {
				fields = append(fields, Field{Key: key + "_" + subKey, Value: FormatValue(group[subKey])})
			}
			continue
		}
		fields = append(fields, Field{Key: key, Value: FormatValue(data[key])})
	}

	if doc, ok := snap.(*Document); ok {
		for _, entry := range doc.MetaData {
			fields = append(fields, Field{Key: entry.Key, Value: truncate(FormatValue(entry.Value), inspectMetaPreviewLimit)})
		}
	}

	fields = append(fields,
		Field{Key: "payment_method_title", Value: snap.PaymentMethodTitle()},
		Field{Key: "formatted_order_total", Value: StripTags(snap.FormattedTotal())},
	)

	return fields
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
