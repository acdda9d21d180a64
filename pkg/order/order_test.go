package order

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOrderJSON = `{
  "id": 1042,
  "number": "A-1042",
  "status": "processing",
  "total": "350000",
  "formatted_total": "<span class=\"amount\">350.000&nbsp;&#8363;</span>",
  "currency": "VND",
  "payment_method": "cod",
  "payment_method_title": "Thanh toán khi nhận hàng",
  "shipping_method": "Giao hàng nhanh",
  "date_created": "2026-03-05T14:07:00+07:00",
  "billing": {"first_name": "Lan", "last_name": "Nguyễn", "address_1": "12 Lý Thường Kiệt", "city": "Hà Nội", "phone": "0901234567", "email": "lan@example.com"},
  "shipping": {"first_name": "Lan", "last_name": "Nguyễn", "address_1": "45 Trần Phú", "city": "Đà Nẵng"},
  "meta_data": [{"key": "_delivery_slot", "value": "morning"}, {"key": "gift", "value": {"wrap": true, "message": "Chúc mừng"}}]
}`

func TestDecodeDocument(t *testing.T) {
	doc, err := Decode([]byte(sampleOrderJSON))
	require.NoError(t, err)

	assert.Equal(t, "A-1042", doc.Number())
	assert.Equal(t, "1042", doc.ID())
	assert.Equal(t, "Lan Nguyễn", doc.BillingFullName())
	assert.Equal(t, "Lan Nguyễn<br/>12 Lý Thường Kiệt<br/>Hà Nội", doc.FormattedBillingAddress())
	assert.Equal(t, "Lan Nguyễn<br/>45 Trần Phú<br/>Đà Nẵng", doc.FormattedShippingAddress())
	assert.Equal(t, 2026, doc.CreatedAt().Year())

	value, ok := doc.Meta("_delivery_slot")
	require.True(t, ok)
	assert.Equal(t, "morning", value)

	_, ok = doc.Meta("missing")
	assert.False(t, ok)
}

func TestDocumentFallbacks(t *testing.T) {
	doc := &Document{OrderID: 7, Total: "99", OrderCurrency: "USD"}

	assert.Equal(t, "7", doc.Number())
	assert.Equal(t, "99 USD", doc.FormattedTotal())
	assert.True(t, doc.CreatedAt().IsZero())
	assert.Empty(t, doc.FormattedBillingAddress())
	assert.Empty(t, doc.FormattedShippingAddress())
}

func TestDocumentGetters(t *testing.T) {
	doc, err := Decode([]byte(sampleOrderJSON))
	require.NoError(t, err)

	getter, ok := doc.Getter("get_total")
	require.True(t, ok)
	assert.Equal(t, "350000", getter())

	getter, ok = doc.Getter("get_billing_phone")
	require.True(t, ok)
	assert.Equal(t, "0901234567", getter())

	getter, ok = doc.Getter("get_shipping_company")
	require.True(t, ok)
	assert.Equal(t, "", getter())

	_, ok = doc.Getter("get_vat")
	assert.False(t, ok)
	_, ok = doc.Getter("total")
	assert.False(t, ok)
}

func TestDocumentDataGroups(t *testing.T) {
	doc, err := Decode([]byte(sampleOrderJSON))
	require.NoError(t, err)

	data := doc.Data()
	billing, ok := data["billing"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Hà Nội", billing["city"])
	assert.Equal(t, "processing", data["status"])
}

func TestNotes(t *testing.T) {
	doc := &Document{}
	doc.AddNote("first")
	doc.AddNote("second")
	assert.Equal(t, []string{"first", "second"}, doc.Notes())
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.yaml")
	content := `id: 55
status: wc-completed
total: "120000"
currency: VND
date_created: 2026-01-02T08:30:00Z
billing:
  first_name: Minh
  last_name: Trần
line_items:
  - name: Cà phê
    quantity: 2
    sku: CF-01
    formatted_total: "120.000 ₫"
meta_data:
  - key: vat
    value: "10%"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "55", doc.Number())
	assert.Equal(t, "Minh Trần", doc.BillingFullName())
	require.Len(t, doc.Items(), 1)
	assert.Equal(t, 2, doc.Items()[0].Quantity)
	assert.Equal(t, time.Date(2026, 1, 2, 8, 30, 0, 0, time.UTC), doc.CreatedAt().UTC())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestStripTags(t *testing.T) {
	tests := map[string]string{
		"plain":  "plain",
		"  pad ": "pad",
		`<span class="woocommerce-Price-amount"><bdi>350.000&nbsp;<span>&#8363;</span></bdi></span>`: "350.000\u00a0₫",
		`a &amp; b`: "a & b",
		`<script>alert(1)</script>visible<style>p{}</style>`: "visible",
	}

	for input, want := range tests {
		assert.Equal(t, want, StripTags(input), "input %q", input)
	}
}

func TestReplaceBreaks(t *testing.T) {
	assert.Equal(t, "a, b, c, d", ReplaceBreaks("a<br>b<br/>c<BR />d", ", "))
}

func TestStatusLabels(t *testing.T) {
	labels := StatusLabels{"processing": "Đang xử lý"}

	assert.Equal(t, "Đang xử lý", labels.Label("wc-processing"))
	assert.Equal(t, "On hold", labels.Label("on-hold"))
	assert.Equal(t, "Awaiting Shipment", labels.Label("awaiting-shipment"))
	assert.Equal(t, "", labels.Label(" "))
	assert.Equal(t, "Completed", StatusLabels(nil).Label("COMPLETED"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "1", FormatValue(true))
	assert.Equal(t, "", FormatValue(false))
	assert.Equal(t, "10", FormatValue(float64(10)))
	assert.Equal(t, "10.5", FormatValue(10.5))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, `{"message":"Chúc mừng <3","wrap":true}`, FormatValue(map[string]any{"wrap": true, "message": "Chúc mừng <3"}))
	assert.Equal(t, `["a","b"]`, FormatValue([]any{"a", "b"}))
}

func TestInspect(t *testing.T) {
	doc, err := Decode([]byte(sampleOrderJSON))
	require.NoError(t, err)

	fields := Inspect(doc)
	index := make(map[string]string, len(fields))
	for _, field := range fields {
		index[field.Key] = field.Value
	}

	assert.Equal(t, "Hà Nội", index["billing_city"])
	assert.Equal(t, "morning", index["_delivery_slot"])
	assert.Equal(t, `{"message":"Chúc mừng","wrap":true}`, index["gift"])
	assert.Equal(t, "350.000\u00a0₫", index["formatted_order_total"])
	assert.NotContains(t, index, "billing")
}
