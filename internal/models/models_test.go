package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderPage(t *testing.T) {
	page := NewOrderPage(nil, 2, 20, 41)

	assert.Equal(t, 3, page.TotalPages)
	assert.NotNil(t, page.Content)
	assert.Empty(t, page.Content)

	page = NewOrderPage([]Order{{ID: 1}}, 0, 20, 20)
	assert.Equal(t, 1, page.TotalPages)
}

func TestOrderLineItemSubtotal(t *testing.T) {
	item := OrderLineItem{
		Quantity: 3,
		Product:  Product{Price: decimal.RequireFromString("19.99")},
	}

	assert.True(t, decimal.RequireFromString("59.97").Equal(item.Subtotal()))
}

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0.005", "0.01"},
		{"0.004", "0"},
		{"1.005", "1.01"},
		{"-0.005", "-0.01"},
		{"19.99", "19.99"},
	}

	for _, tt := range tests {
		got := RoundPrice(decimal.RequireFromString(tt.in))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s -> %s", tt.in, got)
	}

	order := NewOrder("A-1", decimal.NewNullDecimal(decimal.RequireFromString("12.345")))
	assert.True(t, decimal.RequireFromString("12.35").Equal(order.DiscountPercentage.Decimal))
}

func TestExternalOrderPayloadDecoding(t *testing.T) {
	body := `[{
		"id": 99,
		"numeroPedido": "12345",
		"valor": 999.99,
		"descontoPercentual": null,
		"dataCadastro": "2024-05-01T10:00:00",
		"produtos": [{"nome": "Caneta", "valor": 2.50}, {"nome": "Caderno", "valor": "15.10", "quantidade": 3}]
	}]`

	var payloads []ExternalOrderPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payloads))
	require.Len(t, payloads, 1)

	p := payloads[0]
	assert.Equal(t, "12345", p.OrderNumber)
	assert.True(t, p.Total.Valid)
	assert.False(t, p.DiscountPercentage.Valid)
	require.Len(t, p.Products, 2)
	assert.Equal(t, 0, p.Products[0].Quantity)
	assert.Equal(t, 3, p.Products[1].Quantity)
	assert.True(t, decimal.RequireFromString("15.10").Equal(p.Products[1].Price))
}

func TestOrderJSONShape(t *testing.T) {
	order := NewOrder("A-1", decimal.NullDecimal{})
	order.AddItem(Product{ID: 7, Name: "Caneta", Price: decimal.RequireFromString("2.50")}, 1)

	raw, err := json.Marshal(order)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "A-1", decoded["numeroPedido"])
	assert.Nil(t, decoded["desconto_percentual"])
	items := decoded["produtos"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, float64(1), item["quantidade"])
	assert.Equal(t, "Caneta", item["produto"].(map[string]interface{})["nome"])
}
