package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/xenking/storefront-orders/internal/domain/order"
)

// LogSender writes notifications to the structured log.
type LogSender struct {
	lg *zap.Logger
}

// NewLogSender returns a LogSender writing to lg.
func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg}
}

func (s *LogSender) Send(_ context.Context, o order.Order) error {
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Product != nil {
			names = append(names, it.Product.Name)
		}
	}
	s.lg.Info("Order created",
		zap.Int64("order_id", o.ID),
		zap.String("email", o.Email),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("items", len(o.Items)),
		zap.Strings("products", names),
	)
	return nil
}
