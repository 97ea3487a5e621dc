package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/husainf4l/gixat2-sub001/internal/observability/logger"
)

func trace(ctx context.Context, l *slog.Logger, query string, args ...any) {
	if l == nil || !l.Enabled(ctx, slog.LevelDebug) {
		return
	}
	query = strings.Join(strings.Fields(query), " ")
	l.DebugContext(ctx, "trace", logger.Query(query), slog.Any("args", args))
}

// SelectContext is a wrapper around sqlx.SelectContext that logs the query and arguments.
func (d *DB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	trace(ctx, d.logger, query, args...)
	return WrapError(d.DB.SelectContext(ctx, dest, query, args...), d.mapErr)
}

// GetContext is a wrapper around sqlx.GetContext that logs the query and arguments.
func (d *DB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	trace(ctx, d.logger, query, args...)
	return WrapError(d.DB.GetContext(ctx, dest, query, args...), d.mapErr)
}

// ExecContext is a wrapper around sqlx.ExecContext that logs the query and arguments.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	trace(ctx, d.logger, query, args...)
	res, err := d.DB.ExecContext(ctx, query, args...)
	return res, WrapError(err, d.mapErr)
}

// SelectContext is a wrapper around sqlx.SelectContext that logs the query and arguments.
func (t *Tx) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	trace(ctx, t.logger, query, args...)
	return WrapError(t.Tx.SelectContext(ctx, dest, query, args...), t.mapErr)
}

// GetContext is a wrapper around sqlx.GetContext that logs the query and arguments.
func (t *Tx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	trace(ctx, t.logger, query, args...)
	return WrapError(t.Tx.GetContext(ctx, dest, query, args...), t.mapErr)
}

// ExecContext is a wrapper around sqlx.ExecContext that logs the query and arguments.
func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	trace(ctx, t.logger, query, args...)
	res, err := t.Tx.ExecContext(ctx, query, args...)
	return res, WrapError(err, t.mapErr)
}

// SelectContext is a wrapper around sqlx.SelectContext that logs the query and arguments.
func (c *Conn) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	trace(ctx, c.logger, query, args...)
	return WrapError(c.Conn.SelectContext(ctx, dest, query, args...), c.mapErr)
}

// GetContext is a wrapper around sqlx.GetContext that logs the query and arguments.
func (c *Conn) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	trace(ctx, c.logger, query, args...)
	return WrapError(c.Conn.GetContext(ctx, dest, query, args...), c.mapErr)
}

// ExecContext is a wrapper around sql.Conn.ExecContext that logs the query and arguments.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	trace(ctx, c.logger, query, args...)
	res, err := c.Conn.ExecContext(ctx, query, args...)
	return res, WrapError(err, c.mapErr)
}
