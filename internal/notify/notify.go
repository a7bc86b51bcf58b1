// Package notify delivers order notifications after commit.
//
// Delivery is asynchronous and best effort: Notify only enqueues, a pool of
// workers started by Run performs the sends, and failures are logged and
// counted without reaching the caller.
package notify

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-orders/internal/domain/order"
)

const instrumentationName = "github.com/xenking/storefront-orders/internal/notify"

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, o order.Order) error
}

// Loader reloads a committed order. *order.Reader satisfies it.
type Loader interface {
	GetOrderByID(ctx context.Context, id int64) (*order.Order, error)
}

// Config controls the dispatcher pool.
type Config struct {
	Workers   int           `default:"2" usage:"Notification worker count"`
	QueueSize int           `default:"256" usage:"Pending notification capacity"`
	Timeout   time.Duration `default:"5s" usage:"Per-notification delivery timeout"`
}

func (c *Config) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

// Options holds optional collaborators.
type Options struct {
	// Loader, when set, is used to fill product names before sending.
	Loader        Loader
	MeterProvider metric.MeterProvider
}

type job struct {
	ctx   context.Context
	order order.Order
}

var _ order.Notifier = (*Dispatcher)(nil)

// Dispatcher implements order.Notifier with a bounded queue.
type Dispatcher struct {
	sender  Sender
	loader  Loader
	cfg     Config
	queue   chan job
	sent    metric.Int64Counter
	failed  metric.Int64Counter
	dropped metric.Int64Counter
}

// NewDispatcher creates a Dispatcher. Call Run to start delivering.
func NewDispatcher(sender Sender, cfg Config, opts Options) (*Dispatcher, error) {
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	cfg.setDefaults()

	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	d := &Dispatcher{
		sender: sender,
		loader: opts.Loader,
		cfg:    cfg,
		queue:  make(chan job, cfg.QueueSize),
	}
	var err error
	if d.sent, err = meter.Int64Counter("notifications.sent"); err != nil {
		return nil, errors.Wrap(err, "notifications.sent counter")
	}
	if d.failed, err = meter.Int64Counter("notifications.failed"); err != nil {
		return nil, errors.Wrap(err, "notifications.failed counter")
	}
	if d.dropped, err = meter.Int64Counter("notifications.dropped"); err != nil {
		return nil, errors.Wrap(err, "notifications.dropped counter")
	}
	return d, nil
}

// Notify enqueues o for delivery and returns immediately. When the queue is
// full the notification is dropped.
func (d *Dispatcher) Notify(ctx context.Context, o order.Order) {
	j := job{ctx: context.WithoutCancel(ctx), order: o}
	select {
	case d.queue <- j:
	default:
		d.dropped.Add(ctx, 1)
		zctx.From(ctx).Warn("Notification queue full, dropping",
			zap.Int64("order_id", o.ID),
			zap.Int("queue_size", d.cfg.QueueSize),
		)
	}
}

// Run delivers queued notifications until ctx is done, then drains what is
// already queued and returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for range d.cfg.Workers {
		g.Go(func() error {
			d.work(ctx)
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case j := <-d.queue:
			d.deliver(j)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case j := <-d.queue:
			d.deliver(j)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.cfg.Timeout)
	defer cancel()

	lg := zctx.From(ctx).With(zap.Int64("order_id", j.order.ID))
	o := d.enrich(ctx, lg, j.order)

	if err := d.sender.Send(ctx, o); err != nil {
		d.failed.Add(ctx, 1)
		lg.Error("Notification failed", zap.Error(err))
		return
	}
	d.sent.Add(ctx, 1, metric.WithAttributes(attribute.Int("order.items", len(o.Items))))
	lg.Debug("Notification sent")
}

// enrich reloads the order so item product names are present. The order as
// written is returned when no loader is set or the reload fails.
func (d *Dispatcher) enrich(ctx context.Context, lg *zap.Logger, o order.Order) order.Order {
	if d.loader == nil {
		return o
	}
	loaded, err := d.loader.GetOrderByID(ctx, o.ID)
	if err != nil {
		lg.Warn("Reload for notification failed, sending order as written", zap.Error(err))
		return o
	}
	return *loaded
}
