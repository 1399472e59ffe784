package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/storekit/checkout/internal/domain/cart"
	"github.com/storekit/checkout/internal/domain/inventory"
	"github.com/storekit/checkout/internal/domain/order"
	"github.com/storekit/checkout/internal/domain/product"
	"github.com/storekit/checkout/internal/domain/promo"
	"github.com/storekit/checkout/internal/events"
	"github.com/storekit/checkout/internal/gateway"
	"github.com/storekit/checkout/internal/handler"
	"github.com/storekit/checkout/internal/idempotency"
	"github.com/storekit/checkout/internal/storage/memory"
	"github.com/storekit/checkout/internal/storage/postgres"
	"github.com/storekit/checkout/pkg/health"
	"github.com/storekit/checkout/pkg/httpmiddleware"
)

// repositories groups the storage implementations selected by cfg.Storage.
type repositories struct {
	orders    order.Repository
	addresses order.AddressBook
	carts     cart.Repository
	ledger    inventory.Ledger
	products  product.Repository
	promos    promo.Repository
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	var repos repositories
	if cfg.Storage == "postgres" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))

		repos = repositories{
			orders:    postgres.NewOrderRepository(pool),
			addresses: postgres.NewAddressRepository(pool),
			carts:     postgres.NewCartRepository(pool),
			ledger:    postgres.NewInventoryRepository(pool),
			products:  postgres.NewProductRepository(pool),
			promos:    postgres.NewPromoRepository(pool),
		}
	} else {
		repos = repositories{
			orders:    memory.NewOrderRepository(),
			addresses: memory.NewAddressBook(),
			carts:     memory.NewCartRepository(),
			ledger:    memory.NewInventoryRepository(cfg.Inventory.LowStockThreshold),
			products:  memory.NewProductRepository(),
			promos:    memory.NewPromoRepository(),
		}
	}

	var idemp order.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		healthSvc.AddReadinessCheck("redis", 5*time.Second, health.PingCheck(redisPinger{rdb}))
		idemp = idempotency.NewRedisStore(rdb, "checkout", 24*time.Hour)
	} else {
		idemp = idempotency.NewMemoryStore(24 * time.Hour)
	}

	var publisher order.EventPublisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kp.Close() }()
		publisher = kp
	}

	var gw gateway.Gateway
	if cfg.Gateway.Mode == "hosted" {
		gw = gateway.NewHostedClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	} else {
		gw = &gateway.Stub{RedirectBase: cfg.Gateway.BaseURL}
	}

	promoValidator := promo.NewRepoValidator(repos.promos)
	if err := promoValidator.WarmFilter(ctx); err != nil {
		lg.Warn("promo code filter warm-up failed", zap.Error(err))
	}

	pricing, err := cfg.OrderPricing()
	if err != nil {
		return errors.Wrap(err, "pricing config")
	}

	inventorySvc := inventory.NewService(repos.ledger)
	cartSvc := cart.NewService(repos.carts, repos.products)
	orderSvc := order.NewService(order.Deps{
		Orders:      repos.orders,
		Addresses:   repos.addresses,
		Carts:       repos.carts,
		Products:    repos.products,
		Inventory:   inventorySvc,
		Gateway:     gw,
		Promos:      promoValidator,
		Idempotency: idemp,
		Events:      publisher,
		Tracer:      m.TracerProvider().Tracer("checkout"),
	}, pricing, order.RetryPolicy{
		Attempts: cfg.Checkout.RetryAttempts,
		Delay:    cfg.Checkout.RetryDelay,
	})
	poller := order.NewPoller(repos.orders, order.PollPolicy{
		BaseDelay:   cfg.Checkout.PollBaseDelay,
		MaxDelay:    cfg.Checkout.PollMaxDelay,
		MaxAttempts: cfg.Checkout.PollMaxAttempts,
	})

	h := handler.NewHandler(orderSvc, poller, cartSvc, inventorySvc, repos.products)

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	instrumented := otelhttp.NewHandler(mux, "checkout-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-User-ID", "X-Idempotency-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.Identity(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: drain readiness first, then stop the listener.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// redisPinger adapts the go-redis client to the health Pinger contract.
type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
