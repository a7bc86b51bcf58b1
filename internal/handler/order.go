package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-orders/internal/codec"
	"github.com/xenking/storefront-orders/internal/domain/order"
)

// Checkout handles POST /api/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		reason := "unreadable request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			reason = "request body too large"
		}
		h.rejectCheckout(w, r, &order.ValidationError{Field: "body", Reason: reason})
		return
	}

	c, err := codec.DecodeCheckout(body)
	if err != nil {
		h.rejectCheckout(w, r, err)
		return
	}

	id, err := h.writer.CreateOrder(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger(r).Info("Order created", zap.Int64("order_id", id), zap.Int("items", len(c.CartItems)))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		codec.EncodeCheckoutResult(e, id)
	})
}

func (h *Handler) rejectCheckout(w http.ResponseWriter, r *http.Request, err error) {
	h.writer.Reject(r.Context(), err)
	writeError(w, r, err)
}

// GetOrder handles GET /api/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.reader.GetOrderByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.rewriteOrderImages(o)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		codec.EncodeOrder(e, *o)
	})
}

// ListCustomerOrders handles GET /api/orders?email=.
func (h *Handler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.reader.GetOrdersByCustomer(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	for i := range orders {
		h.rewriteOrderImages(&orders[i])
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		codec.EncodeOrders(e, orders)
	})
}

// rewriteOrderImages replaces item product references with copies carrying
// absolute image URLs.
func (h *Handler) rewriteOrderImages(o *order.Order) {
	items := make([]order.Item, len(o.Items))
	for i, it := range o.Items {
		if it.Product != nil {
			ref := *it.Product
			ref.Image = h.imageURL(ref.Image)
			it.Product = &ref
		}
		items[i] = it
	}
	o.Items = items
}

// parseID reads the positive integer {id} path value.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &order.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	return id, nil
}
