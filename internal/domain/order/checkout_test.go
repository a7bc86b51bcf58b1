package order

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Checkout)
		field  string
	}{
		{"valid", func(*Checkout) {}, ""},
		{"missing email", func(c *Checkout) { c.Email = "" }, "email"},
		{"empty cart", func(c *Checkout) { c.CartItems = nil }, "cartItems"},
		{"zero product id", func(c *Checkout) { c.CartItems[1].ProductID = 0 }, "cartItems[1].id"},
		{"zero quantity", func(c *Checkout) { c.CartItems[0].Quantity = 0 }, "cartItems[0].quantity"},
		{"negative quantity", func(c *Checkout) { c.CartItems[1].Quantity = -3 }, "cartItems[1].quantity"},
		{"missing price", func(c *Checkout) { c.CartItems[0].Price = decimal.NullDecimal{} }, "cartItems[0].price"},
		{"negative price", func(c *Checkout) { c.CartItems[0].Price = dec("-1") }, "cartItems[0].price"},
		{"missing subtotal", func(c *Checkout) { c.Subtotal = decimal.NullDecimal{} }, "subtotal"},
		{"missing shipping", func(c *Checkout) { c.Shipping = decimal.NullDecimal{} }, "shipping"},
		{"negative tax", func(c *Checkout) { c.Tax = dec("-0.01") }, "tax"},
		{"sub-cent total", func(c *Checkout) { c.Total = dec("117.965") }, "total"},
		{"quantity over int32", func(c *Checkout) { c.CartItems[0].Quantity = 3000000000 }, "cartItems[0].quantity"},
		{"quantity at int32 max", func(c *Checkout) { c.CartItems[0].Quantity = math.MaxInt32 }, ""},
		{"total overflows column", func(c *Checkout) { c.Total = dec("100000000000") }, "total"},
		{"price at column limit", func(c *Checkout) { c.CartItems[1].Price = dec("10000000000") }, "cartItems[1].price"},
		{"largest storable amount", func(c *Checkout) { c.Subtotal = dec("9999999999.99") }, ""},
		{"trailing zero scale", func(c *Checkout) { c.Total = dec("117.960") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := scenarioCheckout()
			tt.mutate(&c)

			err := c.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestCheckoutToOrder(t *testing.T) {
	c := scenarioCheckout()
	c.PaymentMethod = "card"

	o := c.toOrder()

	assert.Equal(t, "a@b.com", o.Email)
	assert.Equal(t, "card", o.PaymentMethod)
	require.Len(t, o.Items, 2)
	assert.Equal(t, int64(7), o.Items[0].ProductID)
	assert.Equal(t, int64(9), o.Items[1].ProductID)
	assert.True(t, decimal.RequireFromString("117.96").Equal(o.Total))
	assert.Zero(t, o.ID)
}
