package integration

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderTags(t *testing.T) {
	tags := ParseOrderTags(" Free Sample, VIP ,,  ,wholesale")

	assert.Len(t, tags, 3)
	assert.True(t, tags.Contains("free sample"))
	assert.True(t, tags.Contains("FREE SAMPLE"))
	assert.True(t, tags.Contains(" vip "))
	assert.False(t, tags.Contains("sample"))
	assert.Equal(t, []string{"free sample", "vip", "wholesale"}, tags.Slice())

	assert.Empty(t, ParseOrderTags(""))
}

func TestPlatformID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    PlatformID
		wantErr bool
	}{
		{"large number keeps precision", `820982911946154508`, "820982911946154508", false},
		{"string", `"gid-123"`, "gid-123", false},
		{"string is trimmed", `" 42 "`, "42", false},
		{"null", `null`, "", false},
		{"boolean rejected", `true`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id PlatformID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestPlatformID_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(PlatformID("820982911946154508"))
	require.NoError(t, err)
	assert.Equal(t, `"820982911946154508"`, string(data))
}

func TestDecodeIncomingOrder(t *testing.T) {
	t.Run("decodes platform payload", func(t *testing.T) {
		payload := []byte(`{
			"id": 820982911946154508,
			"name": "#9999",
			"tags": "Free Sample",
			"line_items": [
				{"id": 866550311766439020, "sku": "SM-NOX-1-3", "price": "199.00",
				 "product_id": 632910392, "variant_id": 808950810, "quantity": 2}
			]
		}`)

		order, err := DecodeIncomingOrder(payload)
		require.NoError(t, err)
		assert.Equal(t, PlatformID("820982911946154508"), order.ID)
		assert.Equal(t, "#9999", order.Name)
		require.Len(t, order.LineItems, 1)

		item := order.LineItems[0]
		assert.Equal(t, PlatformID("866550311766439020"), item.ID)
		assert.Equal(t, "SM-NOX-1-3", item.SKU)
		assert.True(t, decimal.RequireFromString("199").Equal(item.Price))
		assert.Equal(t, PlatformID("632910392"), item.ProductID)
		assert.Equal(t, PlatformID("808950810"), item.VariantID)
		assert.Equal(t, 2, item.Quantity)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := DecodeIncomingOrder([]byte(`{"id":`))
		assert.ErrorIs(t, err, ErrOrderInvalidPayload)
	})

	t.Run("rejects missing id", func(t *testing.T) {
		_, err := DecodeIncomingOrder([]byte(`{"name":"#1"}`))
		assert.ErrorIs(t, err, ErrOrderMissingID)
	})

	t.Run("null sku and variant are empty", func(t *testing.T) {
		order, err := DecodeIncomingOrder([]byte(`{"id":1,"line_items":[{"id":2,"sku":null,"variant_id":null}]}`))
		require.NoError(t, err)
		assert.Equal(t, "", order.LineItems[0].SKU)
		assert.True(t, order.LineItems[0].VariantID.IsZero())
	})
}

func TestIncomingOrder_FindLineItem(t *testing.T) {
	order := &IncomingOrder{
		ID: "1",
		LineItems: []LineItem{
			{ID: "10", SKU: "A"},
			{ID: "11", SKU: "B"},
		},
	}

	item, ok := order.FindLineItem("11")
	require.True(t, ok)
	assert.Equal(t, "B", item.SKU)

	_, ok = order.FindLineItem("99")
	assert.False(t, ok)
}
