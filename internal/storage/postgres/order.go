package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-orders/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (email, first_name, last_name, address, city, postal_code, phone,
		subtotal, shipping, tax, total, payment_method)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id, created_at`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, size, price)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

	// selectOrderRowsSQL is the flat join shared by both lookups. The primary
	// image falls back to the first side-table image, which keeps the join at
	// one row per line item.
	selectOrderRowsSQL = `SELECT o.id, o.email, o.first_name, o.last_name, o.address, o.city, o.postal_code, o.phone,
		o.subtotal, o.shipping, o.tax, o.total, o.payment_method, o.created_at,
		oi.id, oi.product_id, oi.quantity, oi.size, oi.price,
		p.name, COALESCE(NULLIF(p.image_url, ''), img.image_url)
	FROM orders o
	LEFT JOIN order_items oi ON oi.order_id = o.id
	LEFT JOIN products p ON p.id = oi.product_id
	LEFT JOIN LATERAL (
		SELECT pi.image_url FROM product_images pi
		WHERE pi.product_id = p.id
		ORDER BY pi.id
		LIMIT 1
	) img ON TRUE`

	selectOrderRowsByIDSQL    = selectOrderRowsSQL + ` WHERE o.id = $1 ORDER BY o.id, oi.id`
	selectOrderRowsByEmailSQL = selectOrderRowsSQL + ` WHERE o.email = $1 ORDER BY o.id, oi.id`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL.
type OrderStore struct {
	db DBTX
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(db DBTX) *OrderStore {
	return &OrderStore{db: db}
}

// Create inserts the order header and its items in one transaction, in cart
// order. On any failure nothing is committed.
func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	return InTx(ctx, s.db, func(tx pgx.Tx) error {
		var (
			id        int64
			createdAt time.Time
		)
		err := tx.QueryRow(ctx, insertOrderSQL,
			o.Email, o.FirstName, o.LastName, o.Address, o.City, o.PostalCode, o.Phone,
			o.Subtotal, o.Shipping, o.Tax, o.Total, o.PaymentMethod,
		).Scan(&id, &createdAt)
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		itemIDs := make([]int64, len(o.Items))
		for i, it := range o.Items {
			err := tx.QueryRow(ctx, insertOrderItemSQL,
				id, it.ProductID, it.Quantity, it.Size, it.Price,
			).Scan(&itemIDs[i])
			if err != nil {
				return fmt.Errorf("inserting item %d (product %d) of order %d: %w", i, it.ProductID, id, err)
			}
		}

		o.ID = id
		o.CreatedAt = createdAt
		for i := range o.Items {
			o.Items[i].ID = itemIDs[i]
		}
		return nil
	})
}

// RowsByID returns the flat join rows of a single order.
func (s *OrderStore) RowsByID(ctx context.Context, id int64) ([]order.Row, error) {
	rows, err := s.db.Query(ctx, selectOrderRowsByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying order %d: %w", id, err)
	}
	out, err := pgx.CollectRows(rows, scanOrderRow)
	if err != nil {
		return nil, fmt.Errorf("scanning order %d: %w", id, err)
	}
	return out, nil
}

// RowsByEmail returns the flat join rows of every order placed with email.
func (s *OrderStore) RowsByEmail(ctx context.Context, email string) ([]order.Row, error) {
	rows, err := s.db.Query(ctx, selectOrderRowsByEmailSQL, email)
	if err != nil {
		return nil, fmt.Errorf("querying orders by email: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanOrderRow)
	if err != nil {
		return nil, fmt.Errorf("scanning orders by email: %w", err)
	}
	return out, nil
}

func scanOrderRow(row pgx.CollectableRow) (order.Row, error) {
	var (
		r order.Row
		h = &r.Header

		itemID    pgtype.Int8
		productID pgtype.Int8
		quantity  pgtype.Int4
		size      pgtype.Text
		price     decimal.NullDecimal
		name      pgtype.Text
		image     pgtype.Text
	)
	err := row.Scan(
		&h.ID, &h.Email, &h.FirstName, &h.LastName, &h.Address, &h.City, &h.PostalCode, &h.Phone,
		&h.Subtotal, &h.Shipping, &h.Tax, &h.Total, &h.PaymentMethod, &h.CreatedAt,
		&itemID, &productID, &quantity, &size, &price,
		&name, &image,
	)
	if err != nil {
		return r, err
	}

	if !itemID.Valid {
		return r, nil
	}
	r.Item = &order.Item{
		ID:        itemID.Int64,
		ProductID: productID.Int64,
		Quantity:  int(quantity.Int32),
		Size:      size.String,
		Price:     price.Decimal,
	}
	if name.Valid {
		r.Item.Product = &order.ProductRef{Name: name.String, Image: image.String}
	}
	return r, nil
}
