package order

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Reader reconstructs nested order documents from flat join rows.
type Reader struct {
	store  Store
	tracer trace.Tracer
}

// NewReader creates a Reader backed by store.
func NewReader(store Store, opts Options) *Reader {
	return &Reader{store: store, tracer: opts.tracer()}
}

// GetOrderByID returns the order with its items, or *NotFoundError.
func (r *Reader) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	ctx, span := r.tracer.Start(ctx, "order.GetOrderByID",
		trace.WithAttributes(attribute.Int64("order.id", id)),
	)
	defer span.End()

	rows, err := r.store.RowsByID(ctx, id)
	if err != nil {
		err = &PersistenceError{Op: "get order", Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindPersistence))
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{ID: id}
	}

	orders := GroupRows(rows)
	return &orders[0], nil
}

// GetOrdersByCustomer returns every order placed with email, oldest first.
// An unknown customer yields an empty slice.
func (r *Reader) GetOrdersByCustomer(ctx context.Context, email string) ([]Order, error) {
	ctx, span := r.tracer.Start(ctx, "order.GetOrdersByCustomer")
	defer span.End()

	if strings.TrimSpace(email) == "" {
		return nil, &ValidationError{Field: "email", Reason: "required"}
	}

	rows, err := r.store.RowsByEmail(ctx, email)
	if err != nil {
		err = &PersistenceError{Op: "get customer orders", Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindPersistence))
		return nil, err
	}

	orders := GroupRows(rows)
	span.SetAttributes(attribute.Int("order.count", len(orders)))
	return orders, nil
}
