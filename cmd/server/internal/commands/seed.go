package commands

import (
	"context"
	"log/slog"

	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/husainf4l/gixat2-sub001/internal/observability/logger"
	"github.com/husainf4l/gixat2-sub001/internal/store/migrate"
	"github.com/husainf4l/gixat2-sub001/internal/workshop"
)

type SeedCmd struct {
	Organization string `help:"Name of the demo organization." default:"Gixat Demo Workshop"`
}

func (s *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate.Migrate(ctx, db, log); err != nil {
		return err
	}

	auditLogger := audit.NewSlogLogger(log)
	registry, err := workshop.NewRegistry(auditLogger)
	if err != nil {
		return err
	}

	res, err := workshop.NewSeeder(db, registry, auditLogger).Seed(ctx, s.Organization)
	if err != nil {
		return err
	}
	if res.Skipped {
		log.InfoContext(ctx, "database already has data, skipping seed",
			logger.Component("seed"), slog.Int("customers", res.Existing))
		return nil
	}
	log.InfoContext(ctx, "seeded demo organization",
		logger.Component("seed"), logger.TenantID(res.OrganizationID.String()))
	return nil
}
