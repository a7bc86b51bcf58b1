package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-orders/internal/domain/order"
	"github.com/xenking/storefront-orders/internal/handler"
	"github.com/xenking/storefront-orders/internal/notify"
	"github.com/xenking/storefront-orders/internal/storage/postgres"
	"github.com/xenking/storefront-orders/pkg/health"
	"github.com/xenking/storefront-orders/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the notification
// dispatcher, and handles graceful shutdown. It is the single wiring point
// for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Stores and domain services.
	orderStore := postgres.NewOrderStore(pool)
	productRepo := postgres.NewProductRepository(pool)

	opts := order.Options{
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	}
	reader := order.NewReader(orderStore, opts)

	sender, closeSender, err := newSender(lg, cfg.Notify.AMQP, healthSvc)
	if err != nil {
		return errors.Wrap(err, "create notification sender")
	}
	defer closeSender()

	dispatcher, err := notify.NewDispatcher(sender, cfg.Notify.Pool, notify.Options{
		Loader:        reader,
		MeterProvider: m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create dispatcher")
	}

	writer, err := order.NewWriter(orderStore, dispatcher, opts)
	if err != nil {
		return errors.Wrap(err, "create order writer")
	}

	// HTTP: health endpoints + API routes on one mux.
	h := handler.New(handler.Config{
		ImageBaseURL: cfg.ImageBaseURL,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}, writer, reader, productRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.RequestID(),
			httpmiddleware.Recovery(),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Filter: func(r *http.Request) bool {
					return r.Method == http.MethodPost
				},
				KeyFunc: func(r *http.Request) string {
					return httpmiddleware.ClientIP(r, cfg.RateLimit.TrustProxy)
				},
			}),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins:          cfg.CORS.Origins,
				Headers:          []string{"Content-Type", httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.Instrument("storefront-orders", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}
	healthSvc.SetReady(true)

	// The dispatcher outlives the server so that notifications for orders
	// committed during draining are still delivered.
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		stopDispatch()
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}

// newSender returns the AMQP sender when a broker URL is configured and the
// log sender otherwise. The returned func releases the broker connection.
func newSender(lg *zap.Logger, cfg notify.AMQPConfig, healthSvc *health.Health) (notify.Sender, func(), error) {
	if cfg.URL == "" {
		lg.Info("No AMQP URL configured, logging notifications")
		return notify.NewLogSender(lg.Named("notify")), func() {}, nil
	}

	conn, ch, err := notify.DialAMQP(cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	sender, err := notify.NewAMQPSender(ch, cfg.Exchange, cfg.RoutingKey)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	healthSvc.AddReadinessCheck("amqp", time.Second, amqpCheck(conn))

	lg.Info("Publishing notifications to AMQP",
		zap.String("exchange", cfg.Exchange),
		zap.String("routing_key", cfg.RoutingKey),
	)
	return sender, func() { _ = conn.Close() }, nil
}

func amqpCheck(conn *amqp.Connection) health.CheckFunc {
	return func(context.Context) error {
		if conn.IsClosed() {
			return errors.New("connection closed")
		}
		return nil
	}
}
