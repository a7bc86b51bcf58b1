// Package codec converts between the HTTP JSON documents and domain types.
// Money is written as exact JSON numbers with two fractional digits.
package codec

import (
	"bytes"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-orders/internal/domain/order"
)

// DecodeCheckout parses a checkout submission. Unknown keys are ignored.
// Malformed input, including data after the object, is reported as an
// *order.ValidationError.
func DecodeCheckout(data []byte) (order.Checkout, error) {
	var c order.Checkout
	data = bytes.TrimRight(data, " \t\r\n")
	if len(data) == 0 {
		return c, &order.ValidationError{Field: "body", Reason: "empty request body"}
	}
	if !jx.Valid(data) {
		return c, &order.ValidationError{Field: "body", Reason: "malformed JSON"}
	}

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return c, &order.ValidationError{Field: "body", Reason: "expected a JSON object"}
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			c.Email, err = decodeString(d, key)
		case "firstName":
			c.FirstName, err = decodeString(d, key)
		case "lastName":
			c.LastName, err = decodeString(d, key)
		case "address":
			c.Address, err = decodeString(d, key)
		case "city":
			c.City, err = decodeString(d, key)
		case "postalCode":
			c.PostalCode, err = decodeString(d, key)
		case "phone":
			c.Phone, err = decodeString(d, key)
		case "paymentMethod":
			c.PaymentMethod, err = decodeString(d, key)
		case "subtotal":
			c.Subtotal, err = decodeAmount(d, key)
		case "shipping":
			c.Shipping, err = decodeAmount(d, key)
		case "tax":
			c.Tax, err = decodeAmount(d, key)
		case "total":
			c.Total, err = decodeAmount(d, key)
		case "cartItems":
			c.CartItems, err = decodeCartItems(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		var ve *order.ValidationError
		if errors.As(err, &ve) {
			return c, ve
		}
		return c, &order.ValidationError{Field: "body", Reason: "malformed JSON: " + err.Error()}
	}
	return c, nil
}

func decodeCartItems(d *jx.Decoder) ([]order.CartItem, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	if d.Next() != jx.Array {
		return nil, &order.ValidationError{Field: "cartItems", Reason: "must be an array"}
	}

	items := make([]order.CartItem, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		field := fmt.Sprintf("cartItems[%d]", len(items))
		if d.Next() != jx.Object {
			return &order.ValidationError{Field: field, Reason: "must be an object"}
		}
		var it order.CartItem
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id", "productId":
				if d.Next() != jx.Number {
					return &order.ValidationError{Field: field + ".id", Reason: "must be an integer"}
				}
				it.ProductID, err = d.Int64()
				if err != nil {
					return &order.ValidationError{Field: field + ".id", Reason: "must be an integer"}
				}
			case "quantity":
				if d.Next() != jx.Number {
					return &order.ValidationError{Field: field + ".quantity", Reason: "must be an integer"}
				}
				it.Quantity, err = d.Int()
				if err != nil {
					return &order.ValidationError{Field: field + ".quantity", Reason: "must be an integer"}
				}
			case "size":
				it.Size, err = decodeString(d, field+".size")
			case "price":
				it.Price, err = decodeAmount(d, field+".price")
			default:
				err = d.Skip()
			}
			return err
		})
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

// decodeString accepts a string or null. Null leaves the field empty.
func decodeString(d *jx.Decoder, field string) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Null:
		return "", d.Null()
	default:
		return "", &order.ValidationError{Field: field, Reason: "must be a string"}
	}
}

// decodeAmount accepts a JSON number or a numeric string. Null and absence
// both leave the amount invalid so that validation reports it as required.
func decodeAmount(d *jx.Decoder, field string) (decimal.NullDecimal, error) {
	var raw string
	switch d.Next() {
	case jx.Null:
		return decimal.NullDecimal{}, d.Null()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		raw = string(n)
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		raw = s
	default:
		return decimal.NullDecimal{}, &order.ValidationError{Field: field, Reason: "must be a number"}
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, &order.ValidationError{Field: field, Reason: "must be a number"}
	}
	return decimal.NewNullDecimal(v), nil
}

// EncodeCheckoutResult writes the creation response.
func EncodeCheckoutResult(e *jx.Encoder, orderID int64) {
	e.ObjStart()
	e.FieldStart("orderId")
	e.Int64(orderID)
	e.ObjEnd()
}
