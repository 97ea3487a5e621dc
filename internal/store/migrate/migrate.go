// Package migrate applies the versioned database schema.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	"github.com/husainf4l/gixat2-sub001/internal/store"
)

//go:embed *.sql
var sqls embed.FS

// Migration is a versioned schema change.
type Migration struct {
	Version int64
	Name    string
}

// Keep this in order of execution, oldest to newest.
var migrations = []Migration{
	{Version: 1, Name: "create_tables"},
	{Version: 2, Name: "loader_indexes"},
}

// Migrations returns the known migrations.
func Migrations() []Migration {
	return append([]Migration(nil), migrations...)
}

type applied struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	Version int64  `db:"version"`
}

func schema(d string) (string, error) {
	switch d {
	case dialect.SQLite:
		return `CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			version INTEGER NOT NULL UNIQUE
		)`, nil
	case dialect.Postgres:
		return `CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			version INTEGER NOT NULL UNIQUE
		)`, nil
	default:
		return "", fmt.Errorf("migrate: unsupported dialect %q", d)
	}
}

func suffix(d string) string {
	if d == dialect.SQLite {
		return "sqlite"
	}
	return d
}

func script(d string, m Migration, direction string) (string, error) {
	fn := fmt.Sprintf("%04d_%s_%s.%s.sql", m.Version, m.Name, suffix(d), direction)
	b, err := sqls.ReadFile(fn)
	if err != nil {
		return "", fmt.Errorf("migrate: missing script %s: %w", fn, err)
	}
	return string(b), nil
}

// Current returns the latest applied version, or 0.
func Current(ctx context.Context, db *store.DB) (int64, error) {
	var version int64
	err := db.TransactionContext(ctx, func(tx *store.Tx) error {
		var err error
		version, err = current(ctx, tx)
		return err
	})
	return version, err
}

func current(ctx context.Context, tx *store.Tx) (int64, error) {
	ddl, err := schema(tx.Dialect())
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("migrate: create migrations table: %w", err)
	}

	var last applied
	err = tx.GetContext(ctx, &last, "SELECT id, name, version FROM migrations ORDER BY version DESC LIMIT 1")
	if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return last.Version, nil
}

// Migrate applies every pending migration in one transaction.
func Migrate(ctx context.Context, db *store.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "migrate"))

	return db.TransactionContext(ctx, func(tx *store.Tx) error {
		version, err := current(ctx, tx)
		if err != nil {
			return err
		}

		for _, m := range migrations {
			if m.Version <= version {
				continue
			}

			logger.InfoContext(ctx, "running migration", slog.Int64("version", m.Version), slog.String("name", m.Name))
			up, err := script(tx.Dialect(), m, "up")
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, up); err != nil {
				return fmt.Errorf("migrate: %04d %s: %w", m.Version, m.Name, err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO migrations (name, version) VALUES (?, ?)"), m.Name, m.Version); err != nil {
				return err
			}
		}
		return nil
	})
}

// Rollback reverts the latest applied migration.
func Rollback(ctx context.Context, db *store.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "migrate"))

	return db.TransactionContext(ctx, func(tx *store.Tx) error {
		version, err := current(ctx, tx)
		if err != nil {
			return err
		}
		if version == 0 || int(version) > len(migrations) {
			return errors.New("migrate: there are no migrations to rollback")
		}

		m := migrations[version-1]
		logger.InfoContext(ctx, "rolling back migration", slog.Int64("version", m.Version), slog.String("name", m.Name))
		down, err := script(tx.Dialect(), m, "down")
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, down); err != nil {
			return fmt.Errorf("migrate: rollback %04d %s: %w", m.Version, m.Name, err)
		}
		_, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM migrations WHERE version = ?"), m.Version)
		return err
	})
}
