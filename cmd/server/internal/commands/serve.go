package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/husainf4l/gixat2-sub001/internal/loaders"
	"github.com/husainf4l/gixat2-sub001/internal/observability/logger"
	"github.com/husainf4l/gixat2-sub001/internal/observability/metrics"
	"github.com/husainf4l/gixat2-sub001/internal/observability/tracing"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/husainf4l/gixat2-sub001/internal/store/migrate"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
	transportHTTP "github.com/husainf4l/gixat2-sub001/internal/transport/http"
	"github.com/husainf4l/gixat2-sub001/internal/workshop"
)

type ServeCmd struct {
	Migrate bool `help:"Apply pending migrations before serving."`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "starting gixat", logger.Component("server"), slog.String("version", globals.Version))

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		return err
	}
	defer tracer.Shutdown(context.Background())

	meter, err := metrics.New(ctx, metrics.Config{Enabled: cfg.Observability.OTELEnabled, Namespace: "gixat"}, cfg.Observability.ServiceName)
	if err != nil {
		return err
	}
	loaderMetrics, err := metrics.NewLoaderMetrics(meter)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	log.InfoContext(ctx, "connected to database", logger.Component("store"))

	if s.Migrate {
		if err := migrate.Migrate(ctx, db, log); err != nil {
			return err
		}
	}

	auditLogger := audit.NewSlogLogger(log)
	registry, err := workshop.NewRegistry(auditLogger)
	if err != nil {
		return err
	}
	orgs, err := tenant.NewService(store.NewOrganizationRepository(db), auditLogger, cfg.OrgCacheSize)
	if err != nil {
		return err
	}

	newLoaders := func(ctx context.Context, tc tenant.Context) *loaders.Set {
		opts := []loaders.Option{
			loaders.WithObserver(loaderMetrics),
			loaders.WithLogger(log),
			loaders.WithTracer(tracer.Tracer()),
		}
		if cfg.Loader.TenantGuard {
			opts = append(opts, loaders.WithTenantGuard(registry, tc))
		}
		return loaders.New(db, opts...)
	}

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go rateLimiter.Run(ctx)

	handler := transportHTTP.NewHandler(orgs, workshop.NewRepository(db), registry, auditLogger)
	router := transportHTTP.NewRouter(handler, transportHTTP.RouterConfig{
		Authenticator:  transportHTTP.NewAuthenticator([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer),
		RateLimiter:    rateLimiter,
		Loaders:        newLoaders,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    8 * 1024,
	}

	errc := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "listening", logger.Component("server"), logger.Operation("listen"), slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
