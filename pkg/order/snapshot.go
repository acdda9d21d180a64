// Package order describes the order data the notification engine reads.
//
// The engine only depends on the Snapshot interface; Document is the
// concrete form decoded from HTTP order events and fixture files.
package order

import "time"

// Snapshot is the read view of one order. AddNote is the only mutation.
type Snapshot interface {
	Number() string
	ID() string
	Status() string
	FormattedTotal() string
	Currency() string
	PaymentMethodTitle() string
	ShippingMethod() string
	// CreatedAt returns the zero time when the creation date is unknown.
	CreatedAt() time.Time

	BillingFirstName() string
	BillingLastName() string
	BillingFullName() string
	BillingEmail() string
	BillingPhone() string
	CustomerNote() string
	// FormattedBillingAddress and FormattedShippingAddress separate lines
	// with <br/> markers, as storefront address formatters do.
	FormattedBillingAddress() string
	FormattedShippingAddress() string

	EditURL() string
	ViewURL() string

	Items() []LineItem
	// Data is the raw property bag; nested groups (billing, shipping) are maps.
	Data() map[string]any
	// Meta returns the first meta value stored under key.
	Meta(key string) (any, bool)

	AddNote(note string)
}

// Getters is implemented by snapshots that expose named accessors such as
// "get_total". Custom field resolution consults it after meta values.
type Getters interface {
	Getter(name string) (func() any, bool)
}

// LineItem is one purchased product line.
type LineItem struct {
	Name           string     `json:"name" yaml:"name"`
	Quantity       int        `json:"quantity" yaml:"quantity"`
	SKU            string     `json:"sku,omitempty" yaml:"sku,omitempty"`
	Total          float64    `json:"total,omitempty" yaml:"total,omitempty"`
	FormattedTotal string     `json:"formatted_total,omitempty" yaml:"formatted_total,omitempty"`
	Meta           []ItemMeta `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// ItemMeta is a display-formatted variation attribute.
type ItemMeta struct {
	DisplayKey   string `json:"display_key" yaml:"display_key"`
	DisplayValue string `json:"display_value" yaml:"display_value"`
}
