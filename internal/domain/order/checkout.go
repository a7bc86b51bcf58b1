package order

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Column limits: amounts are NUMERIC(12,2) and quantities INTEGER.
const (
	maxScale    = 2
	maxQuantity = math.MaxInt32
)

// maxAmount is the smallest value NUMERIC(12,2) cannot hold.
var maxAmount = decimal.New(1, 10)

// Checkout is a checkout submission. Amounts are computed by the caller and
// persisted as given. Monetary fields use NullDecimal so that an absent value
// is distinguishable from zero.
type Checkout struct {
	Email         string
	FirstName     string
	LastName      string
	Address       string
	City          string
	PostalCode    string
	Phone         string
	PaymentMethod string
	CartItems     []CartItem
	Subtotal      decimal.NullDecimal
	Shipping      decimal.NullDecimal
	Tax           decimal.NullDecimal
	Total         decimal.NullDecimal
}

// CartItem is one cart entry of a checkout submission.
type CartItem struct {
	ProductID int64
	Quantity  int
	Size      string
	Price     decimal.NullDecimal
}

// Validate checks the submission and returns the first *ValidationError found.
func (c Checkout) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return &ValidationError{Field: "email", Reason: "required"}
	}
	if len(c.CartItems) == 0 {
		return &ValidationError{Field: "cartItems", Reason: "cart is empty"}
	}
	for i, item := range c.CartItems {
		field := fmt.Sprintf("cartItems[%d]", i)
		if item.ProductID <= 0 {
			return &ValidationError{Field: field + ".id", Reason: "must be a positive product id"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Field: field + ".quantity", Reason: "must be a positive integer"}
		}
		if item.Quantity > maxQuantity {
			return &ValidationError{Field: field + ".quantity", Reason: fmt.Sprintf("must not exceed %d", maxQuantity)}
		}
		if err := validateAmount(field+".price", item.Price); err != nil {
			return err
		}
	}
	for _, a := range []struct {
		field string
		value decimal.NullDecimal
	}{
		{"subtotal", c.Subtotal},
		{"shipping", c.Shipping},
		{"tax", c.Tax},
		{"total", c.Total},
	} {
		if err := validateAmount(a.field, a.value); err != nil {
			return err
		}
	}
	return nil
}

func validateAmount(field string, v decimal.NullDecimal) error {
	switch {
	case !v.Valid:
		return &ValidationError{Field: field, Reason: "required"}
	case v.Decimal.IsNegative():
		return &ValidationError{Field: field, Reason: "must not be negative"}
	case v.Decimal.GreaterThanOrEqual(maxAmount):
		return &ValidationError{Field: field, Reason: "must be less than " + maxAmount.String()}
	case v.Decimal.Exponent() < -maxScale && !v.Decimal.Equal(v.Decimal.Truncate(maxScale)):
		return &ValidationError{Field: field, Reason: "at most 2 decimal places"}
	}
	return nil
}

// toOrder builds the order to persist. Cart order is kept as supplied.
func (c Checkout) toOrder() *Order {
	items := make([]Item, len(c.CartItems))
	for i, ci := range c.CartItems {
		items[i] = Item{
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			Size:      ci.Size,
			Price:     ci.Price.Decimal,
		}
	}
	return &Order{
		Email:         c.Email,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Address:       c.Address,
		City:          c.City,
		PostalCode:    c.PostalCode,
		Phone:         c.Phone,
		Subtotal:      c.Subtotal.Decimal,
		Shipping:      c.Shipping.Decimal,
		Tax:           c.Tax.Decimal,
		Total:         c.Total.Decimal,
		PaymentMethod: c.PaymentMethod,
		Items:         items,
	}
}
