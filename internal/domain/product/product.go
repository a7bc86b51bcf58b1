package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// SearchLimit caps the number of products returned by Search.
const SearchLimit = 8

// Product is a catalog entry. The catalog is owned elsewhere; this service
// only reads it.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	// Image is the primary image URL.
	Image string
	// Images lists additional images from the side table, in insertion order.
	Images []string
	// CategoryID is zero for uncategorised products.
	CategoryID   int64
	CategoryName string
}

// AllImages returns the primary image followed by the additional ones.
func (p Product) AllImages() []string {
	out := make([]string, 0, len(p.Images)+1)
	if p.Image != "" {
		out = append(out, p.Image)
	}
	return append(out, p.Images...)
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Search(ctx context.Context, query string, limit int) ([]Product, error)
}
