package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-orders/internal/codec"
	"github.com/xenking/storefront-orders/internal/domain/order"
	"github.com/xenking/storefront-orders/internal/domain/product"
)

// writeError maps err to a status code and the error document. Storage and
// unexpected failures are logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := order.KindOf(err)
	if errors.Is(err, product.ErrNotFound) {
		kind = order.KindNotFound
	}

	var (
		status  int
		message string
	)
	switch kind {
	case order.KindValidation:
		status, message = http.StatusBadRequest, err.Error()
	case order.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case order.KindPersistence:
		status, message = http.StatusInternalServerError, "failed to store or load the order"
		logger(r).Error("Persistence failure", zap.Error(err))
	default:
		kind = order.KindInternal
		status, message = http.StatusInternalServerError, "internal server error"
		logger(r).Error("Internal failure", zap.Error(err))
	}

	writeJSON(w, status, func(e *jx.Encoder) {
		codec.EncodeError(e, status, string(kind), message)
	})
}
