package models

import (
	"encoding/json"
	"testing"

	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr error
	}{
		{"19.99", 1999, nil},
		{"44.98", 4498, nil},
		{"10.1", 1010, nil},
		{"0", 0, nil},
		{"0.015", 0, ErrSubCentAmount},
		{"-1", 0, ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, FromMinorUnits(4498).Equal(decimal.RequireFromString("44.98")))
}

func TestNewOrderTotalIsExact(t *testing.T) {
	items := []OrderItem{{ProductID: "p1", Quantity: 3, UnitPrice: decimal.RequireFromString("10.10")}}
	o := NewOrder("u1", items, ShippingAddress{}, "pi_1")

	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("30.30")), "got %s", o.TotalAmount)
	assert.Equal(t, OrderStatusProcessing, o.OrderStatus)
	assert.Equal(t, PaymentStatusCompleted, o.PaymentStatus)
	assert.NotEmpty(t, o.ID)

	// float64 would drift here: 0.1+0.2 != 0.3
	items = []OrderItem{
		{ProductID: "a", Quantity: 1, UnitPrice: decimal.RequireFromString("0.10")},
		{ProductID: "b", Quantity: 1, UnitPrice: decimal.RequireFromString("0.20")},
	}
	o = NewOrder("u1", items, ShippingAddress{}, "pi_2")
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("0.30")))
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusShipped, OrderStatusProcessing, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusCancelled, OrderStatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, s)

	_, err = ParseOrderStatus("lost-in-transit")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestShippingAddressValidate(t *testing.T) {
	addr := ShippingAddress{Address: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"}
	assert.NoError(t, addr.Validate())

	addr.ZipCode = "   "
	err := addr.Validate()
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "zipCode")
}

func TestCartTotalUsesCurrentPricesAndSkipsMissingProducts(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{ProductID: "a", Quantity: 2, Product: &Product{ID: "a", Price: decimal.RequireFromString("19.99")}},
		{ProductID: "b", Quantity: 1, Product: &Product{ID: "b", Price: decimal.RequireFromString("5.00")}},
		{ProductID: "gone", Quantity: 4},
	}}
	assert.True(t, cart.Total().Equal(decimal.RequireFromString("44.98")))
}

func TestMoneyMarshalsAsNumber(t *testing.T) {
	b, err := json.Marshal(Product{ID: "p1", Name: "Mug", Price: decimal.RequireFromString("10.10")})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"price":10.1`)
	assert.Contains(t, string(b), `"_id":"p1"`)
}
