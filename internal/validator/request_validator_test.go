package validator

import (
	"testing"

	"shopcart/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("userId", " 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-1", "abc", "1.5", "99999999999999999999"} {
		_, err := ParseID("userId", raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("true"))
	assert.True(t, ParseBool("TRUE"))
	assert.False(t, ParseBool(""))
	assert.False(t, ParseBool("false"))
	assert.False(t, ParseBool("1"))
}

func TestValidateAddItem(t *testing.T) {
	assert.NoError(t, ValidateAddItem(AddItemRequest{ProductID: 1, Quantity: 1}))
	assert.ErrorIs(t, ValidateAddItem(AddItemRequest{ProductID: 0, Quantity: 1}), ErrInvalidInput)
	assert.ErrorIs(t, ValidateAddItem(AddItemRequest{ProductID: 1, Quantity: 0}), ErrInvalidInput)
	assert.ErrorIs(t, ValidateAddItem(AddItemRequest{ProductID: 1, Quantity: -2}), ErrInvalidInput)

	// 上限ちょうどは通る
	assert.NoError(t, ValidateAddItem(AddItemRequest{ProductID: 1, Quantity: model.MaxItemQuantity}))
	assert.ErrorIs(t, ValidateAddItem(AddItemRequest{ProductID: 1, Quantity: model.MaxItemQuantity + 1}), ErrInvalidInput)
	assert.ErrorIs(t, ValidateAddItem(AddItemRequest{ProductID: 1, Quantity: 10_000_000_000_000}), ErrInvalidInput)
}

func TestValidateUpdateQuantity(t *testing.T) {
	assert.NoError(t, ValidateUpdateQuantity(UpdateQuantityRequest{Quantity: 3}))
	assert.ErrorIs(t, ValidateUpdateQuantity(UpdateQuantityRequest{}), ErrInvalidInput)
	assert.ErrorIs(t, ValidateUpdateQuantity(UpdateQuantityRequest{Quantity: model.MaxItemQuantity + 1}), ErrInvalidInput)
}

func TestValidateCreateOrder(t *testing.T) {
	ok := CreateOrderRequest{UserID: 1, Products: []OrderLineRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}}
	assert.NoError(t, ValidateCreateOrder(ok))

	cases := map[string]CreateOrderRequest{
		"no user":        {Products: []OrderLineRequest{{ProductID: 1, Quantity: 1}}},
		"no products":    {UserID: 1},
		"empty products": {UserID: 1, Products: []OrderLineRequest{}},
		"bad product id": {UserID: 1, Products: []OrderLineRequest{{ProductID: 0, Quantity: 1}}},
		"zero quantity":  {UserID: 1, Products: []OrderLineRequest{{ProductID: 1}}},
		"huge quantity":  {UserID: 1, Products: []OrderLineRequest{{ProductID: 1, Quantity: model.MaxItemQuantity + 1}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateCreateOrder(req), ErrInvalidInput)
		})
	}
}

func TestValidateProduct(t *testing.T) {
	ok := ProductRequest{Name: "Coffee", Price: decimal.RequireFromString("4.50"), Stock: 3}
	assert.NoError(t, ValidateProduct(ok))

	free := ProductRequest{Name: "Sample", Price: decimal.Zero}
	assert.NoError(t, ValidateProduct(free))

	cases := map[string]ProductRequest{
		"blank name":     {Name: "  ", Price: decimal.NewFromInt(1)},
		"negative price": {Name: "x", Price: decimal.RequireFromString("-1")},
		"too precise":    {Name: "x", Price: decimal.RequireFromString("1.005")},
		"negative stock": {Name: "x", Price: decimal.NewFromInt(1), Stock: -1},
		"price too high": {Name: "x", Price: model.MaxUnitPrice},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateProduct(req), ErrInvalidInput)
		})
	}
}
