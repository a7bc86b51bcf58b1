// Package handler implements the HTTP API on top of net/http routing.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-orders/internal/domain/order"
	"github.com/xenking/storefront-orders/internal/domain/product"
)

// defaultMaxBodyBytes bounds checkout request bodies.
const defaultMaxBodyBytes = 1 << 20

// OrderWriter creates orders from checkout submissions. Reject records a
// submission refused before it reached CreateOrder.
type OrderWriter interface {
	CreateOrder(ctx context.Context, c order.Checkout) (int64, error)
	Reject(ctx context.Context, err error)
}

// OrderReader loads nested order documents.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id int64) (*order.Order, error)
	GetOrdersByCustomer(ctx context.Context, email string) ([]order.Order, error)
}

// Config holds non-dependency settings of the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses. When
	// empty, paths are returned as stored.
	ImageBaseURL string
	// MaxBodyBytes bounds request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
}

// Handler serves the order and catalog endpoints.
type Handler struct {
	writer   OrderWriter
	reader   OrderReader
	products product.Repository

	imageBaseURL string
	maxBodyBytes int64
}

// New constructs a Handler.
func New(cfg Config, writer OrderWriter, reader OrderReader, products product.Repository) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		writer:       writer,
		reader:       reader,
		products:     products,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("GET /api/orders", h.ListCustomerOrders)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/search", h.SearchProducts)
	mux.HandleFunc("GET /api/products/category/{id}", h.ListCategoryProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
}

// writeJSON encodes a document with fn and writes it with status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// imageURL prefixes relative paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return h.imageBaseURL + path
}

func logger(r *http.Request) *zap.Logger {
	return zctx.From(r.Context())
}
