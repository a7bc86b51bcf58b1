package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the nested order document: one header plus its line items in
// insertion order.
type Order struct {
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	Address       string
	City          string
	PostalCode    string
	Phone         string
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	CreatedAt     time.Time
	Items         []Item
}

// Item is a single purchased line. Price is the unit price captured at
// checkout, not the current catalog price.
type Item struct {
	ID        int64
	ProductID int64
	Quantity  int
	Size      string
	Price     decimal.Decimal
	// Product is nil when the referenced product no longer exists.
	Product *ProductRef
}

// ProductRef carries the catalog fields joined onto a line item for display.
type ProductRef struct {
	Name  string
	Image string
}

// Row is one flat join row: the order header repeated on every row and at
// most one line item. Item is nil for an order without items.
type Row struct {
	Header Order
	Item   *Item
}

// Store persists orders and returns flat join rows ordered by order id, then
// item id.
type Store interface {
	// Create inserts the header and all items atomically and fills in the
	// generated identifiers and creation time on o.
	Create(ctx context.Context, o *Order) error
	RowsByID(ctx context.Context, id int64) ([]Row, error)
	RowsByEmail(ctx context.Context, email string) ([]Row, error)
}

// Notifier receives every committed order. Implementations must not block
// the caller and have no way to fail it.
type Notifier interface {
	Notify(ctx context.Context, o Order)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Order) {}
