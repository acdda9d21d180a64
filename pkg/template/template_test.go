package template

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zalonotify/pkg/order"
)

const sampleOrderJSON = `{
  "id": 1042,
  "number": "A-1042",
  "status": "wc-processing",
  "total": "350000",
  "formatted_total": "<span class=\"amount\">350.000&nbsp;&#8363;</span>",
  "currency": "VND",
  "payment_method": "cod",
  "payment_method_title": "Thanh toán khi nhận hàng",
  "shipping_method": "Giao hàng nhanh",
  "date_created": "2026-03-05T14:07:00+07:00",
  "customer_note": "  Giao giờ hành chính  ",
  "edit_url": "https://shop.example/wp-admin/post.php?post=1042&action=edit",
  "billing": {"first_name": "Lan", "last_name": "Nguyễn", "address_1": "12 Lý Thường Kiệt", "city": "Hà Nội", "phone": "0901234567", "email": "lan@example.com"},
  "shipping": {"first_name": "Lan", "last_name": "Nguyễn", "address_1": "45 Trần Phú", "city": "Đà Nẵng"},
  "line_items": [
    {"name": "Áo thun", "quantity": 2, "sku": "AT-01", "formatted_total": "<b>200.000 ₫</b>", "meta": [{"display_key": "Size", "display_value": "L"}, {"display_key": "Màu", "display_value": "<p>Đỏ</p>"}]},
    {"name": "Mũ", "quantity": 1, "total": 150000}
  ],
  "meta_data": [
    {"key": "_delivery_slot", "value": "morning"},
    {"key": "gift", "value": {"wrap": true, "message": "Chúc mừng"}},
    {"key": "invoice", "value": false}
  ]
}`

func sampleOrder(t *testing.T) *order.Document {
	t.Helper()
	doc, err := order.Decode([]byte(sampleOrderJSON))
	require.NoError(t, err)
	return doc
}

// vatOrder adds a get_vat accessor on top of a decoded document.
type vatOrder struct {
	*order.Document
}

func (v vatOrder) Getter(name string) (func() any, bool) {
	if name == "get_vat" {
		return func() any { return "10%" }, true
	}
	return v.Document.Getter(name)
}

func TestResolveFixedFields(t *testing.T) {
	tokens := NewResolver().Resolve(sampleOrder(t), nil)

	for _, field := range Fields {
		assert.Contains(t, tokens, field)
	}

	assert.Equal(t, "A-1042", tokens["order_number"])
	assert.Equal(t, "1042", tokens["order_id"])
	assert.Equal(t, "Processing", tokens["order_status"])
	assert.Equal(t, "350.000\u00a0₫", tokens["order_total"])
	assert.Equal(t, "VND", tokens["currency"])
	assert.Equal(t, "Thanh toán khi nhận hàng", tokens["payment_method"])
	assert.Equal(t, "05/03/2026", tokens["order_date"])
	assert.Equal(t, "14:07", tokens["order_time"])
	assert.Equal(t, "05/03/2026 14:07", tokens["order_datetime"])
	assert.Equal(t, "Lan Nguyễn", tokens["customer_name"])
	assert.Equal(t, "Giao giờ hành chính", tokens["customer_note"])
	assert.Equal(t, "Lan Nguyễn\n12 Lý Thường Kiệt\nHà Nội", tokens["billing_address"])
	assert.Equal(t, "Lan Nguyễn, 45 Trần Phú, Đà Nẵng", tokens["full_address"])
	assert.Equal(t, "", tokens["link_view_order"])
}

func TestResolveDateInLocation(t *testing.T) {
	tokens := NewResolver(WithLocation(time.UTC)).Resolve(sampleOrder(t), nil)
	assert.Equal(t, "07:07", tokens["order_time"])
}

func TestResolveMissingDate(t *testing.T) {
	tokens := NewResolver().Resolve(&order.Document{OrderID: 1}, nil)
	assert.Equal(t, "", tokens["order_date"])
	assert.Equal(t, "", tokens["order_datetime"])
	assert.Equal(t, "", tokens["product_list"])
}

func TestResolveStatusLabelOverride(t *testing.T) {
	resolver := NewResolver(WithStatusLabels(map[string]string{"processing": "Đang xử lý"}))
	tokens := resolver.Resolve(sampleOrder(t), nil)
	assert.Equal(t, "Đang xử lý", tokens["order_status"])
}

func TestFullAddressFallsBackToBilling(t *testing.T) {
	doc := sampleOrder(t)
	doc.Shipping = order.Address{FirstName: "Lan"}

	tokens := NewResolver().Resolve(doc, nil)
	assert.Equal(t, "Lan Nguyễn, 12 Lý Thường Kiệt, Hà Nội", tokens["full_address"])
	assert.Equal(t, "", tokens["shipping_address"])
}

func TestProductList(t *testing.T) {
	tokens := NewResolver().Resolve(sampleOrder(t), nil)

	want := "🔹 2 x Áo thun (SKU: AT-01) [Size: L, Màu: Đỏ] - 200.000 ₫\n" +
		"🔹 1 x Mũ - 150000"
	assert.Equal(t, want, tokens["product_list"])
}

func TestResolveCustomFields(t *testing.T) {
	fields := []string{"_delivery_slot", "gift", "billing_city", "total", "invoice", "unknown_field", " ", "shipping_city"}
	tokens := NewResolver().Resolve(sampleOrder(t), fields)

	assert.Equal(t, "morning", tokens["_delivery_slot"])
	assert.Equal(t, `{"message":"Chúc mừng","wrap":true}`, tokens["gift"])
	assert.Equal(t, "Hà Nội", tokens["billing_city"])
	assert.Equal(t, "350000", tokens["total"])
	assert.Equal(t, "", tokens["invoice"])
	assert.Equal(t, "", tokens["unknown_field"])
	assert.Equal(t, "Đà Nẵng", tokens["shipping_city"])
	assert.NotContains(t, tokens, "")
}

func TestCustomFieldMetaEmptySkipsToGetter(t *testing.T) {
	doc := sampleOrder(t)
	doc.MetaData = append(doc.MetaData, order.MetaEntry{Key: "vat", Value: ""})

	tokens := NewResolver().Resolve(vatOrder{doc}, []string{"vat"})
	assert.Equal(t, "10%", tokens["vat"])
}

func TestCustomFieldMetaWinsOverGetter(t *testing.T) {
	doc := sampleOrder(t)
	doc.MetaData = append(doc.MetaData, order.MetaEntry{Key: "vat", Value: "8%"})

	tokens := NewResolver().Resolve(vatOrder{doc}, []string{"vat"})
	assert.Equal(t, "8%", tokens["vat"])
}

func TestStrategies(t *testing.T) {
	doc := sampleOrder(t)

	value, ok := DataValue("currency", doc)
	require.True(t, ok)
	assert.Equal(t, "VND", value)

	_, ok = DataValue("date_missing", doc)
	assert.False(t, ok)

	value, ok = CompoundDataValue("shipping_city", doc)
	require.True(t, ok)
	assert.Equal(t, "Đà Nẵng", value)

	_, ok = CompoundDataValue("shipping", doc)
	assert.False(t, ok)
	_, ok = CompoundDataValue("status_label", doc)
	assert.False(t, ok)

	_, ok = MetaValue("invoice", doc)
	assert.False(t, ok)
	_, ok = GetterValue("vat", doc)
	assert.False(t, ok)
}

func TestCustomStrategyChain(t *testing.T) {
	constant := func(field string, _ order.Snapshot) (any, bool) {
		return "fixed-" + field, true
	}
	tokens := NewResolver(WithStrategies(constant)).Resolve(sampleOrder(t), []string{"gift"})
	assert.Equal(t, "fixed-gift", tokens["gift"])
}

func TestSubstitute(t *testing.T) {
	tokens := TokenMap{"name": "Ana", "a": "{name}"}

	assert.Equal(t, "Hi Ana, {missing}", Substitute("Hi {name}, {missing}", tokens))
	assert.Equal(t, "{name}", Substitute("{a}", tokens))
	assert.Equal(t, "", Substitute("", tokens))
	assert.Equal(t, "{name}", Substitute("{name}", nil))
}

func TestRenderExample(t *testing.T) {
	assert.Equal(t, "Hi Ana\n\nBye", Render("Hi {name}\n\n\nBye", TokenMap{"name": "Ana"}))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: " \n\t\r\n  ", want: ""},
		{name: "crlf", input: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "trim lines", input: "  a  \n\tb\t", want: "a\nb"},
		{name: "collapse blanks", input: "a\n\n \n\t\nb\n\n\nc", want: "a\n\nb\n\nc"},
		{name: "leading and trailing blanks", input: "\n\n\na\n\n\n", want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeProperties(t *testing.T) {
	fragments := []string{"", " ", "\t", "\n", "\r\n", "\r", "{name}", "{x}", "xin chào", "  🔔 ", "\n\n\n"}
	tokens := TokenMap{"name": " Ana \n\n\n ", "x": "\r\n"}
	rng := rand.New(rand.NewPCG(7, 42))

	for i := 0; i < 500; i++ {
		var b strings.Builder
		for j := rng.IntN(12); j >= 0; j-- {
			b.WriteString(fragments[rng.IntN(len(fragments))])
		}

		out := Render(b.String(), tokens)
		assert.NotContains(t, out, "\n\n\n", "input %q", b.String())
		assert.NotContains(t, out, "\r")
		for _, line := range strings.Split(out, "\n") {
			assert.Equal(t, strings.TrimSpace(line), line, "input %q", b.String())
		}
		assert.Equal(t, out, Normalize(out), "normalize must be idempotent for %q", b.String())
	}
}
