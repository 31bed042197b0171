package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/pos-backoffice/internal/domain/auth"
	"github.com/xenking/pos-backoffice/internal/domain/catalog"
	"github.com/xenking/pos-backoffice/internal/domain/order"
	"github.com/xenking/pos-backoffice/internal/domain/permission"
	"github.com/xenking/pos-backoffice/internal/handler"
	"github.com/xenking/pos-backoffice/internal/session"
	"github.com/xenking/pos-backoffice/internal/storage/catalogapi"
	"github.com/xenking/pos-backoffice/internal/storage/postgres"
	"github.com/xenking/pos-backoffice/pkg/health"
	"github.com/xenking/pos-backoffice/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and background jobs,
// and handles graceful shutdown. It is the single wiring point for the
// application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("catalog_source", cfg.Catalog.Source),
	)

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)
	permissionRepo := postgres.NewPermissionRepository(pool)

	// Catalog cache, filled once before serving. A failed first fetch is not
	// fatal: the cache stays empty and readiness reports it.
	var source catalog.Source = productRepo
	if cfg.Catalog.Source == CatalogSourceHTTP {
		source = catalogapi.New(cfg.Catalog.BaseURL, &http.Client{
			Timeout: cfg.Catalog.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
		})
	}
	cache, err := catalog.NewCache(source,
		catalog.WithMeterProvider(m.MeterProvider()),
		catalog.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create catalog cache")
	}
	if err := cache.Refresh(ctx); err != nil {
		lg.Warn("Initial catalog fetch failed", zap.Error(err))
	}

	// Domain services.
	sessions := session.NewStore(order.NewService(orderRepo))
	permissions := permission.NewService(permissionRepo)
	authn := auth.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper))

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("catalog", time.Second, health.LoadedCheck("catalog", func() bool {
		return len(cache.Snapshot().Products) > 0
	}))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Background jobs.
	scheduler, err := newScheduler(ctx, lg,
		job{
			name:     "catalog-refresh",
			schedule: cfg.Catalog.RefreshSchedule,
			timeout:  2 * cfg.Catalog.Timeout,
			run:      cache.Refresh,
		},
		job{
			name:     "session-sweep",
			schedule: cfg.Session.SweepSchedule,
			timeout:  time.Minute,
			run: func(context.Context) error {
				if n := sessions.Sweep(cfg.Session.IdleTTL); n > 0 {
					lg.Info("Swept idle sessions", zap.Int("removed", n), zap.Int("live", sessions.Len()))
				}
				return nil
			},
		},
	)
	if err != nil {
		return errors.Wrap(err, "create scheduler")
	}
	scheduler.Start()

	// HTTP handlers.
	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		cache,
		sessions,
		permissions,
		authn,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Checkout waits on the payment processor.
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.APIKeyHeader, handler.SessionHeader, httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{handler.SessionHeader, httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("pos-api", m),
			httpmiddleware.LogRequests(),
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
		<-scheduler.Stop().Done()
		healthSvc.Stop()
		close(shutdownDone)
	}()

	healthSvc.SetReady(true)
	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
