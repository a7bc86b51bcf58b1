package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront-orders/internal/codec"
	"github.com/xenking/storefront-orders/internal/domain/product"
)

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeError(w, r, errors.Wrap(err, "list products"))
		return
	}
	h.writeProducts(w, products)
}

// ListCategoryProducts handles GET /api/products/category/{id}. An unknown
// category yields an empty array.
func (h *Handler) ListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	products, err := h.products.ListByCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, errors.Wrap(err, "list category products"))
		return
	}
	h.writeProducts(w, products)
}

// GetProduct handles GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := h.rewriteProductImages(*p)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		codec.EncodeProduct(e, out)
	})
}

// SearchProducts handles GET /api/products/search?q=. An empty query
// matches nothing.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.writeProducts(w, nil)
		return
	}

	products, err := h.products.Search(r.Context(), q, product.SearchLimit)
	if err != nil {
		writeError(w, r, errors.Wrap(err, "search products"))
		return
	}
	h.writeProducts(w, products)
}

func (h *Handler) writeProducts(w http.ResponseWriter, products []product.Product) {
	out := make([]product.Product, len(products))
	for i, p := range products {
		out[i] = h.rewriteProductImages(p)
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		codec.EncodeProducts(e, out)
	})
}

func (h *Handler) rewriteProductImages(p product.Product) product.Product {
	p.Image = h.imageURL(p.Image)
	images := make([]string, len(p.Images))
	for i, img := range p.Images {
		images[i] = h.imageURL(img)
	}
	p.Images = images
	return p
}
