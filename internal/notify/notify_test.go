package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/storefront-orders/internal/domain/order"
)

type fakeSender struct {
	mu      sync.Mutex
	orders  []order.Order
	ctxErrs []error
	err     error
	done    chan struct{}
}

func newFakeSender() *fakeSender {
	return &fakeSender{done: make(chan struct{}, 16)}
}

func (s *fakeSender) Send(ctx context.Context, o order.Order) error {
	s.mu.Lock()
	s.orders = append(s.orders, o)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.err
}

func (s *fakeSender) wait(t *testing.T, n int) {
	t.Helper()
	for range n {
		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
}

func (s *fakeSender) sent() []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]order.Order(nil), s.orders...)
}

type fakeLoader struct {
	order *order.Order
	err   error
}

func (l fakeLoader) GetOrderByID(context.Context, int64) (*order.Order, error) {
	return l.order, l.err
}

func observedContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zctx.Base(context.Background(), zap.New(core)), logs
}

func startDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func writtenOrder() order.Order {
	return order.Order{
		ID:    42,
		Email: "a@b.com",
		Total: decimal.RequireFromString("117.96"),
		Items: []order.Item{
			{ProductID: 7, Quantity: 2},
			{ProductID: 9, Quantity: 1},
		},
	}
}

func TestDispatcher_Delivers(t *testing.T) {
	sender := newFakeSender()
	d, err := NewDispatcher(sender, Config{}, Options{})
	require.NoError(t, err)
	startDispatcher(t, d)

	d.Notify(context.Background(), writtenOrder())
	sender.wait(t, 1)

	got := sender.sent()
	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].ID)
}

func TestDispatcher_DetachedFromRequestContext(t *testing.T) {
	sender := newFakeSender()
	d, err := NewDispatcher(sender, Config{}, Options{})
	require.NoError(t, err)
	startDispatcher(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, writtenOrder())
	sender.wait(t, 1)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.NoError(t, sender.ctxErrs[0], "request cancellation must not cancel delivery")
}

func TestDispatcher_Enrich(t *testing.T) {
	loaded := writtenOrder()
	loaded.Items[0].Product = &order.ProductRef{Name: "Linen Shirt"}
	loaded.Items[1].Product = &order.ProductRef{Name: "Wool Coat"}

	t.Run("Loaded", func(t *testing.T) {
		sender := newFakeSender()
		d, err := NewDispatcher(sender, Config{}, Options{Loader: fakeLoader{order: &loaded}})
		require.NoError(t, err)
		startDispatcher(t, d)

		d.Notify(context.Background(), writtenOrder())
		sender.wait(t, 1)

		got := sender.sent()[0]
		require.NotNil(t, got.Items[0].Product)
		assert.Equal(t, "Linen Shirt", got.Items[0].Product.Name)
	})

	t.Run("ReloadFails", func(t *testing.T) {
		sender := newFakeSender()
		d, err := NewDispatcher(sender, Config{}, Options{Loader: fakeLoader{err: errors.New("db down")}})
		require.NoError(t, err)
		startDispatcher(t, d)

		ctx, logs := observedContext()
		d.Notify(ctx, writtenOrder())
		sender.wait(t, 1)

		got := sender.sent()[0]
		assert.Nil(t, got.Items[0].Product, "order is sent as written")
		assert.Equal(t, 1, logs.FilterMessageSnippet("sending order as written").Len())
	})
}

func TestDispatcher_SenderFailureIsLogged(t *testing.T) {
	sender := newFakeSender()
	sender.err = errors.New("broker unavailable")
	d, err := NewDispatcher(sender, Config{Workers: 1}, Options{})
	require.NoError(t, err)

	ctx, logs := observedContext()
	d.Notify(ctx, writtenOrder())

	runCtx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(runCtx))

	entries := logs.FilterMessage("Notification failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(42), entries[0].ContextMap()["order_id"])
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sender := newFakeSender()
	d, err := NewDispatcher(sender, Config{Workers: 1, QueueSize: 1}, Options{})
	require.NoError(t, err)

	ctx, logs := observedContext()
	d.Notify(ctx, writtenOrder())
	d.Notify(ctx, writtenOrder())

	assert.Equal(t, 1, logs.FilterMessage("Notification queue full, dropping").Len())

	runCtx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(runCtx))
	assert.Len(t, sender.sent(), 1)
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	sender := newFakeSender()
	d, err := NewDispatcher(sender, Config{Workers: 2, QueueSize: 8}, Options{})
	require.NoError(t, err)

	for range 3 {
		d.Notify(context.Background(), writtenOrder())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.Len(t, sender.sent(), 3)
}

func TestNewDispatcher_RequiresSender(t *testing.T) {
	_, err := NewDispatcher(nil, Config{}, Options{})
	require.Error(t, err)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	o := writtenOrder()
	o.Items[0].Product = &order.ProductRef{Name: "Linen Shirt"}

	require.NoError(t, NewLogSender(zap.New(core)).Send(context.Background(), o))

	entries := logs.FilterMessage("Order created").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(42), fields["order_id"])
	assert.Equal(t, "117.96", fields["total"])
	assert.Equal(t, int64(2), fields["items"])
}
