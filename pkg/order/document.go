package order

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// Address is a billing or shipping address block.
type Address struct {
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Company   string `json:"company,omitempty" yaml:"company,omitempty"`
	Address1  string `json:"address_1" yaml:"address_1"`
	Address2  string `json:"address_2,omitempty" yaml:"address_2,omitempty"`
	City      string `json:"city" yaml:"city"`
	State     string `json:"state,omitempty" yaml:"state,omitempty"`
	Postcode  string `json:"postcode,omitempty" yaml:"postcode,omitempty"`
	Country   string `json:"country,omitempty" yaml:"country,omitempty"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// MetaEntry is one order meta key/value pair.
type MetaEntry struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// Document is a decoded order. It implements Snapshot and Getters.
type Document struct {
	OrderID             int64       `json:"id" yaml:"id"`
	OrderNumber         string      `json:"number,omitempty" yaml:"number,omitempty"`
	OrderStatus         string      `json:"status" yaml:"status"`
	Total               string      `json:"total,omitempty" yaml:"total,omitempty"`
	FormattedOrderTotal string      `json:"formatted_total,omitempty" yaml:"formatted_total,omitempty"`
	OrderCurrency       string      `json:"currency,omitempty" yaml:"currency,omitempty"`
	PaymentMethod       string      `json:"payment_method,omitempty" yaml:"payment_method,omitempty"`
	PaymentMethodName   string      `json:"payment_method_title,omitempty" yaml:"payment_method_title,omitempty"`
	ShippingMethodName  string      `json:"shipping_method,omitempty" yaml:"shipping_method,omitempty"`
	DateCreated         *time.Time  `json:"date_created,omitempty" yaml:"date_created,omitempty"`
	Billing             Address     `json:"billing" yaml:"billing"`
	Shipping            Address     `json:"shipping" yaml:"shipping"`
	Note                string      `json:"customer_note,omitempty" yaml:"customer_note,omitempty"`
	EditLink            string      `json:"edit_url,omitempty" yaml:"edit_url,omitempty"`
	ViewLink            string      `json:"view_url,omitempty" yaml:"view_url,omitempty"`
	LineItems           []LineItem  `json:"line_items,omitempty" yaml:"line_items,omitempty"`
	MetaData            []MetaEntry `json:"meta_data,omitempty" yaml:"meta_data,omitempty"`

	mu    sync.Mutex
	notes []string
}

var (
	_ Snapshot = (*Document)(nil)
	_ Getters  = (*Document)(nil)
)

func (d *Document) Number() string {
	if d.OrderNumber != "" {
		return d.OrderNumber
	}
	return d.ID()
}

func (d *Document) ID() string { return strconv.FormatInt(d.OrderID, 10) }

func (d *Document) Status() string { return d.OrderStatus }

// FormattedTotal falls back to "<total> <currency>" when no storefront
// formatting was supplied.
func (d *Document) FormattedTotal() string {
	if d.FormattedOrderTotal != "" {
		return d.FormattedOrderTotal
	}
	return strings.TrimSpace(d.Total + " " + d.OrderCurrency)
}

func (d *Document) Currency() string { return d.OrderCurrency }

func (d *Document) PaymentMethodTitle() string { return d.PaymentMethodName }

func (d *Document) ShippingMethod() string { return d.ShippingMethodName }

func (d *Document) CreatedAt() time.Time {
	if d.DateCreated == nil {
		return time.Time{}
	}
	return *d.DateCreated
}

func (d *Document) BillingFirstName() string { return d.Billing.FirstName }

func (d *Document) BillingLastName() string { return d.Billing.LastName }

func (d *Document) BillingFullName() string { return d.Billing.fullName() }

func (d *Document) BillingEmail() string { return d.Billing.Email }

func (d *Document) BillingPhone() string { return d.Billing.Phone }

func (d *Document) CustomerNote() string { return d.Note }

func (d *Document) FormattedBillingAddress() string {
	if d.Billing.isEmpty() {
		return ""
	}
	return d.Billing.formatted()
}

// FormattedShippingAddress is empty when no street line was given.
func (d *Document) FormattedShippingAddress() string {
	if d.Shipping.Address1 == "" && d.Shipping.Address2 == "" {
		return ""
	}
	return d.Shipping.formatted()
}

func (d *Document) EditURL() string { return d.EditLink }

func (d *Document) ViewURL() string { return d.ViewLink }

func (d *Document) Items() []LineItem { return d.LineItems }

func (d *Document) Meta(key string) (any, bool) {
	for _, entry := range d.MetaData {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// Data mirrors the storefront's raw order property bag.
func (d *Document) Data() map[string]any {
	data := map[string]any{
		"id":                   d.OrderID,
		"number":               d.Number(),
		"status":               d.OrderStatus,
		"currency":             d.OrderCurrency,
		"total":                d.Total,
		"payment_method":       d.PaymentMethod,
		"payment_method_title": d.PaymentMethodName,
		"customer_note":        d.Note,
		"billing":              d.Billing.data(),
		"shipping":             d.Shipping.data(),
	}
	if d.DateCreated != nil {
		data["date_created"] = d.DateCreated.Format(time.RFC3339)
	}

	return data
}

func (d *Document) AddNote(note string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notes = append(d.notes, note)
}

// Notes returns the audit notes added since the document was decoded.
func (d *Document) Notes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.notes...)
}

// Getter resolves accessor names like "get_total" or "get_billing_city".
func (d *Document) Getter(name string) (func() any, bool) {
	prop, ok := strings.CutPrefix(name, "get_")
	if !ok {
		return nil, false
	}

	switch prop {
	case "id":
		return func() any { return d.OrderID }, true
	case "order_number":
		return func() any { return d.Number() }, true
	case "status":
		return func() any { return d.OrderStatus }, true
	case "total":
		return func() any { return d.Total }, true
	case "formatted_order_total":
		return func() any { return d.FormattedTotal() }, true
	case "currency":
		return func() any { return d.OrderCurrency }, true
	case "payment_method":
		return func() any { return d.PaymentMethod }, true
	case "payment_method_title":
		return func() any { return d.PaymentMethodName }, true
	case "shipping_method":
		return func() any { return d.ShippingMethodName }, true
	case "customer_note":
		return func() any { return d.Note }, true
	case "date_created":
		return func() any { return d.CreatedAt() }, true
	case "formatted_billing_full_name":
		return func() any { return d.BillingFullName() }, true
	case "view_order_url":
		return func() any { return d.ViewLink }, true
	case "edit_order_url":
		return func() any { return d.EditLink }, true
	}

	if field, ok := strings.CutPrefix(prop, "billing_"); ok {
		return d.Billing.getter(field)
	}
	if field, ok := strings.CutPrefix(prop, "shipping_"); ok {
		return d.Shipping.getter(field)
	}

	return nil, false
}

func (a Address) fullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a Address) isEmpty() bool {
	return a == Address{}
}

const lineBreak = "<br/>"

func (a Address) formatted() string {
	locality := strings.TrimSpace(a.State + " " + a.Postcode)
	parts := []string{a.fullName(), a.Company, a.Address1, a.Address2, a.City, locality, a.Country}

	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	return strings.Join(lines, lineBreak)
}

func (a Address) data() map[string]any {
	return map[string]any{
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"company":    a.Company,
		"address_1":  a.Address1,
		"address_2":  a.Address2,
		"city":       a.City,
		"state":      a.State,
		"postcode":   a.Postcode,
		"country":    a.Country,
		"email":      a.Email,
		"phone":      a.Phone,
	}
}

func (a Address) getter(field string) (func() any, bool) {
	value, ok := a.data()[field]
	if !ok {
		return nil, false
	}
	return func() any { return value }, true
}
