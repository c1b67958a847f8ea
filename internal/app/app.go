// Package app wires the burger shop API server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/burger-shop/internal/cache"
	"github.com/xenking/burger-shop/internal/domain/auth"
	"github.com/xenking/burger-shop/internal/domain/cart"
	"github.com/xenking/burger-shop/internal/domain/checkout"
	"github.com/xenking/burger-shop/internal/domain/order"
	"github.com/xenking/burger-shop/internal/handler"
	"github.com/xenking/burger-shop/internal/repository"
	"github.com/xenking/burger-shop/pkg/health"
	"github.com/xenking/burger-shop/pkg/httpmiddleware"
)

const serviceName = "burger-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)
	txRunner := repository.NewTxRunner(pool, orderRepo, cartRepo)

	var reports order.Reporter = orderRepo
	if cfg.Reports.RedisAddr != "" {
		rc, err := cache.NewRedisCache(cfg.Reports.RedisAddr, serviceName)
		if err != nil {
			return errors.Wrap(err, "create report cache")
		}
		defer func() { _ = rc.Close() }()

		healthSvc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(rc))
		reports = cache.NewReports(orderRepo, rc, cfg.Reports.TTL)
		lg.Info("Report cache enabled", zap.Duration("ttl", cfg.Reports.TTL))
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	cartService := cart.NewService(cartRepo, productRepo, cfg.Cart.MaxAttempts)
	orderService := order.NewService(orderRepo, reports)
	checkoutService, err := checkout.NewService(cartRepo, productRepo, txRunner, m.MeterProvider(), m.TracerProvider())
	if err != nil {
		return errors.Wrap(err, "create checkout service")
	}
	authenticator := auth.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper))

	h := handler.NewHandler(cartService, checkoutService, orderService, productRepo, authenticator)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument(serviceName, m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:     cfg.RateLimit.Max,
				Window:  cfg.RateLimit.Window,
				KeyFunc: handler.RateLimitKey,
			}),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
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
