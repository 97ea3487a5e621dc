package commands

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/husainf4l/gixat2-sub001/internal/observability/logger"
	"github.com/husainf4l/gixat2-sub001/internal/store/migrate"
)

type MigrateCmd struct {
	Down bool `help:"Roll back the latest migration instead of applying pending ones."`
}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if m.Down {
		err = migrate.Rollback(ctx, db, log)
	} else {
		err = migrate.Migrate(ctx, db, log)
	}
	if err != nil {
		return err
	}

	version, err := migrate.Current(ctx, db)
	if err != nil {
		return err
	}
	audit.NewSlogLogger(log).Log(ctx, audit.Event{
		Type:     audit.TypeMigrationApplied,
		Resource: "schema",
		Metadata: map[string]any{"version": strconv.FormatInt(version, 10), "down": m.Down},
	})
	log.InfoContext(ctx, "schema is current", logger.Component("migrate"), slog.Int64("version", version))
	return nil
}
