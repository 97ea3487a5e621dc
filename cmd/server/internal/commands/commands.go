// Package commands implements the server's CLI commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/husainf4l/gixat2-sub001/internal/config"
	"github.com/husainf4l/gixat2-sub001/internal/observability/logger"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/husainf4l/gixat2-sub001/internal/store/postgres"
	"github.com/husainf4l/gixat2-sub001/internal/store/sqlite"
)

type Globals struct {
	Version string
}

// setup loads the configuration and installs the global logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		Bridge:      cfg.Observability.OTELEnabled,
	})
	return cfg, log, nil
}

func openDB(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*store.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.Path, log)
	case config.DriverPostgres:
		return postgres.Open(ctx, postgres.Config{
			DSN:            cfg.DSN(),
			MaxOpenConns:   cfg.MaxOpenConns,
			MaxIdleConns:   cfg.MaxIdleConns,
			ConnectTimeout: cfg.ConnectTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
