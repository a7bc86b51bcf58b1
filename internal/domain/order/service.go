package order

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xenking/storefront-orders/internal/domain/order"

// Options holds optional telemetry providers. Zero values fall back to the
// global OpenTelemetry providers.
type Options struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o Options) tracer() trace.Tracer {
	tp := o.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentationName)
}

func (o Options) meter() metric.Meter {
	mp := o.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return mp.Meter(instrumentationName)
}

// Writer records checkout submissions as orders.
type Writer struct {
	store    Store
	notifier Notifier
	tracer   trace.Tracer

	created metric.Int64Counter
	failed  metric.Int64Counter
}

// NewWriter creates a Writer. A nil notifier is replaced with NopNotifier.
func NewWriter(store Store, notifier Notifier, opts Options) (*Writer, error) {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	meter := opts.meter()
	created, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Orders committed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.created counter")
	}
	failed, err := meter.Int64Counter("orders.create_failed",
		metric.WithDescription("Checkout submissions that did not commit, including undecodable bodies"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.create_failed counter")
	}
	return &Writer{
		store:    store,
		notifier: notifier,
		tracer:   opts.tracer(),
		created:  created,
		failed:   failed,
	}, nil
}

// CreateOrder validates the checkout, persists the order with all of its
// items in one transaction and returns the generated order id. The notifier
// is invoked only after commit; its outcome never affects the result.
func (w *Writer) CreateOrder(ctx context.Context, c Checkout) (int64, error) {
	ctx, span := w.tracer.Start(ctx, "order.CreateOrder",
		trace.WithAttributes(attribute.Int("order.items", len(c.CartItems))),
	)
	defer span.End()

	if err := c.Validate(); err != nil {
		w.fail(ctx, span, err)
		return 0, err
	}

	o := c.toOrder()
	if err := w.store.Create(ctx, o); err != nil {
		err = &PersistenceError{Op: "create order", Err: err}
		w.fail(ctx, span, err)
		return 0, err
	}

	span.SetAttributes(attribute.Int64("order.id", o.ID))
	w.created.Add(ctx, 1)

	w.notifier.Notify(ctx, *o)
	return o.ID, nil
}

// Reject records a submission that was refused before CreateOrder could run,
// such as a body that does not decode.
func (w *Writer) Reject(ctx context.Context, err error) {
	w.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(KindOf(err)))))
}

func (w *Writer) fail(ctx context.Context, span trace.Span, err error) {
	kind := KindOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(kind))
	w.Reject(ctx, err)
}
