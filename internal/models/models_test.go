package models

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{OrderStatusPending, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusConfirmed, OrderStatusProcessing},
		{OrderStatusConfirmed, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusOutForDeliv},
		{OrderStatusOutForDeliv, OrderStatusDelivered},
		{OrderStatusDelivered, OrderStatusReturned},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc[0], tc[1]), "%s -> %s", tc[0], tc[1])
	}

	denied := [][2]string{
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusCancelled, OrderStatusConfirmed},
		{OrderStatusReturned, OrderStatusPending},
		{OrderStatusDelivered, OrderStatusShipped},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc[0], tc[1]), "%s -> %s", tc[0], tc[1])
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	assert.Empty(t, OrderTransitions[OrderStatusCancelled])
	assert.Empty(t, OrderTransitions[OrderStatusReturned])
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range []string{PaymentMethodUPI, PaymentMethodCard, PaymentMethodCOD, PaymentMethodNetBanking} {
		assert.True(t, ValidPaymentMethod(m))
	}
	assert.False(t, ValidPaymentMethod("Barter"))
	assert.False(t, ValidPaymentMethod(""))
}

func TestAttrMapSalePrice(t *testing.T) {
	_, ok := AttrMap{}.SalePrice()
	assert.False(t, ok)

	_, ok = AttrMap{"salePrice": "cheap"}.SalePrice()
	assert.False(t, ok)

	_, ok = AttrMap{"salePrice": -1.0}.SalePrice()
	assert.False(t, ok)

	price, ok := AttrMap{"salePrice": 399.0}.SalePrice()
	require.True(t, ok)
	assert.Equal(t, 399.0, price)
}

func TestAttrMapRoundTrip(t *testing.T) {
	m := AttrMap{"color": "blue", "salePrice": 399.0}
	v, err := m.Value()
	require.NoError(t, err)

	var out AttrMap
	require.NoError(t, out.Scan(v))
	assert.Equal(t, "blue", out["color"])

	var empty AttrMap
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
}

func TestProductMarshalAddsInStock(t *testing.T) {
	b, err := json.Marshal(Product{ID: 1, Title: "Shirt", StockQuantity: 3})
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, true, out["inStock"])

	b, err = json.Marshal(Product{ID: 2, Title: "Mug"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, false, out["inStock"])
}

func TestCartItemMarshalFlattensNullables(t *testing.T) {
	item := CartItem{ID: 1, Price: 400,
		OriginalPrice: sql.NullFloat64{Float64: 500, Valid: true}}
	b, err := json.Marshal(item)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, 500.0, out["originalPrice"])

	b, err = json.Marshal(CartItem{ID: 2, Price: 400})
	require.NoError(t, err)
	out = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(b, &out))
	_, present := out["originalPrice"]
	assert.False(t, present)
}

func TestUserMarshalHidesSecrets(t *testing.T) {
	u := User{ID: 1, Email: "a@example.com", PasswordHash: "hash",
		ResetOTP: sql.NullString{String: "123456", Valid: true}}
	b, err := json.Marshal(u)
	require.NoError(t, err)

	s := string(b)
	assert.NotContains(t, s, "hash")
	assert.NotContains(t, s, "123456")
}
