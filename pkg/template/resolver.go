// Package template turns an order snapshot into notification text.
//
// Resolve builds the placeholder token map; Render substitutes the tokens
// into an operator template and normalizes the whitespace of the result.
package template

import (
	"fmt"
	"strings"
	"time"

	"zalonotify/pkg/order"
)

const (
	dateLayout     = "02/01/2006"
	timeLayout     = "15:04"
	dateTimeLayout = dateLayout + " " + timeLayout
	productBullet  = "🔹"
)

// TokenMap maps placeholder names (without braces) to resolved text.
type TokenMap map[string]string

// Fields lists the placeholders every token map contains, in display order.
var Fields = []string{
	"order_number", "order_id", "order_status", "order_total", "currency",
	"payment_method", "shipping_method", "order_date", "order_time", "order_datetime",
	"customer_name", "billing_first_name", "billing_last_name", "billing_email",
	"billing_phone", "customer_note", "billing_address", "shipping_address",
	"full_address", "link_edit_order", "link_view_order", "product_list",
}

// Resolver builds token maps. A zero Resolver is not usable; use NewResolver.
type Resolver struct {
	location   *time.Location
	labels     order.StatusLabels
	strategies []FieldStrategy
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLocation renders order dates in loc instead of the order's own zone.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		r.location = loc
	}
}

// WithStatusLabels overrides status labels.
func WithStatusLabels(labels map[string]string) Option {
	return func(r *Resolver) {
		r.labels = order.StatusLabels(labels)
	}
}

// WithStrategies replaces the custom field resolution chain.
func WithStrategies(strategies ...FieldStrategy) Option {
	return func(r *Resolver) {
		r.strategies = strategies
	}
}

// NewResolver returns a resolver using the default custom field chain.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{strategies: DefaultStrategies()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the token map for snap. Every fixed field is present;
// each configured custom field is added after them, so a custom field named
// like a fixed one replaces it. All values are trimmed.
func (r *Resolver) Resolve(snap order.Snapshot, customFields []string) TokenMap {
	tokens := make(TokenMap, len(Fields)+len(customFields))

	tokens["order_number"] = snap.Number()
	tokens["order_id"] = snap.ID()
	tokens["order_status"] = r.labels.Label(snap.Status())
	tokens["order_total"] = order.StripTags(snap.FormattedTotal())
	tokens["currency"] = snap.Currency()
	tokens["payment_method"] = snap.PaymentMethodTitle()
	tokens["shipping_method"] = snap.ShippingMethod()

	tokens["order_date"], tokens["order_time"], tokens["order_datetime"] = "", "", ""
	if created := snap.CreatedAt(); !created.IsZero() {
		if r.location != nil {
			created = created.In(r.location)
		}
		tokens["order_date"] = created.Format(dateLayout)
		tokens["order_time"] = created.Format(timeLayout)
		tokens["order_datetime"] = created.Format(dateTimeLayout)
	}

	tokens["customer_name"] = snap.BillingFullName()
	tokens["billing_first_name"] = snap.BillingFirstName()
	tokens["billing_last_name"] = snap.BillingLastName()
	tokens["billing_email"] = snap.BillingEmail()
	tokens["billing_phone"] = snap.BillingPhone()
	tokens["customer_note"] = snap.CustomerNote()

	billing := snap.FormattedBillingAddress()
	shipping := snap.FormattedShippingAddress()
	tokens["billing_address"] = multilineAddress(billing)
	tokens["shipping_address"] = multilineAddress(shipping)
	fullAddress := shipping
	if strings.TrimSpace(fullAddress) == "" {
		fullAddress = billing
	}
	tokens["full_address"] = order.StripTags(order.ReplaceBreaks(fullAddress, ", "))

	tokens["link_edit_order"] = snap.EditURL()
	tokens["link_view_order"] = snap.ViewURL()
	tokens["product_list"] = ProductList(snap.Items())

	for _, field := range customFields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		tokens[field] = order.FormatValue(r.customValue(field, snap))
	}

	for key, value := range tokens {
		tokens[key] = strings.TrimSpace(value)
	}

	return tokens
}

func (r *Resolver) customValue(field string, snap order.Snapshot) any {
	for _, strategy := range r.strategies {
		if value, ok := strategy(field, snap); ok {
			return value
		}
	}
	return ""
}

func multilineAddress(formatted string) string {
	return order.StripTags(order.ReplaceBreaks(formatted, "\n"))
}

// ProductList renders one line per item:
//
//	🔹 {qty} x {name} (SKU: x) [k: v, k2: v2] - {total}
func ProductList(items []order.LineItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		sku := ""
		if item.SKU != "" {
			sku = fmt.Sprintf(" (SKU: %s)", item.SKU)
		}

		meta := ""
		if len(item.Meta) > 0 {
			parts := make([]string, 0, len(item.Meta))
			for _, entry := range item.Meta {
				parts = append(parts, entry.DisplayKey+": "+order.StripTags(entry.DisplayValue))
			}
			meta = " [" + strings.Join(parts, ", ") + "]"
		}

		lines = append(lines, fmt.Sprintf("%s %d x %s%s%s - %s", productBullet, item.Quantity, item.Name, sku, meta, itemTotal(item)))
	}

	return strings.Join(lines, "\n")
}

func itemTotal(item order.LineItem) string {
	if item.FormattedTotal != "" {
		return order.StripTags(item.FormattedTotal)
	}
	return order.FormatValue(item.Total)
}
