package codec

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-orders/internal/domain/order"
)

// moneyDigits is the fixed number of fractional digits written for amounts.
const moneyDigits = 2

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.RawStr(d.StringFixed(moneyDigits))
}

// EncodeOrder writes the nested order document.
func EncodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()

	e.FieldStart("id")
	e.Int64(o.ID)
	for _, f := range []struct {
		name, value string
	}{
		{"email", o.Email},
		{"firstName", o.FirstName},
		{"lastName", o.LastName},
		{"address", o.Address},
		{"city", o.City},
		{"postalCode", o.PostalCode},
		{"phone", o.Phone},
		{"paymentMethod", o.PaymentMethod},
	} {
		e.FieldStart(f.name)
		e.Str(f.value)
	}

	e.FieldStart("subtotal")
	encodeMoney(e, o.Subtotal)
	e.FieldStart("shipping")
	encodeMoney(e, o.Shipping)
	e.FieldStart("tax")
	encodeMoney(e, o.Tax)
	e.FieldStart("total")
	encodeMoney(e, o.Total)

	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))

	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		encodeItem(e, it)
	}
	e.ArrEnd()

	e.ObjEnd()
}

// encodeItem writes a line item. Name and image are null when the product
// has been removed from the catalog.
func encodeItem(e *jx.Encoder, it order.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(it.ID)

	e.FieldStart("productId")
	if it.ProductID == 0 {
		e.Null()
	} else {
		e.Int64(it.ProductID)
	}

	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("size")
	e.Str(it.Size)
	e.FieldStart("price")
	encodeMoney(e, it.Price)

	e.FieldStart("name")
	if it.Product == nil {
		e.Null()
	} else {
		e.Str(it.Product.Name)
	}
	e.FieldStart("image")
	if it.Product == nil || it.Product.Image == "" {
		e.Null()
	} else {
		e.Str(it.Product.Image)
	}
	e.ObjEnd()
}

// EncodeOrders writes a JSON array of orders. A nil slice is written as [].
func EncodeOrders(e *jx.Encoder, orders []order.Order) {
	e.ArrStart()
	for _, o := range orders {
		EncodeOrder(e, o)
	}
	e.ArrEnd()
}
