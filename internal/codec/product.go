package codec

import (
	"github.com/go-faster/jx"

	"github.com/xenking/storefront-orders/internal/domain/product"
)

// EncodeProduct writes a catalog product. The images array starts with the
// primary image. Uncategorised products carry null category fields.
func EncodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeMoney(e, p.Price)
	e.FieldStart("image")
	e.Str(p.Image)
	e.FieldStart("images")
	e.ArrStart()
	for _, img := range p.AllImages() {
		e.Str(img)
	}
	e.ArrEnd()
	e.FieldStart("categoryId")
	if p.CategoryID == 0 {
		e.Null()
	} else {
		e.Int64(p.CategoryID)
	}
	e.FieldStart("categoryName")
	if p.CategoryID == 0 {
		e.Null()
	} else {
		e.Str(p.CategoryName)
	}
	e.ObjEnd()
}

// EncodeProducts writes a JSON array of products.
func EncodeProducts(e *jx.Encoder, products []product.Product) {
	e.ArrStart()
	for _, p := range products {
		EncodeProduct(e, p)
	}
	e.ArrEnd()
}
