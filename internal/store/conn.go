package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Conn is a short-lived handle owned by exactly one unit of work. It must
// be closed to return its connection to the pool.
type Conn struct {
	*sqlx.Conn
	dialect string
	logger  *slog.Logger
	mapErr  ErrorMapper
}

// Dialect implements Handler.
func (c *Conn) Dialect() string {
	return c.dialect
}

// HandleFactory hands out fresh handles. Every call returns a handle that
// is not shared with any other caller.
type HandleFactory interface {
	NewHandle(ctx context.Context) (*Conn, error)
}

// HandleFactoryFunc adapts a function to HandleFactory.
type HandleFactoryFunc func(ctx context.Context) (*Conn, error)

// NewHandle implements HandleFactory.
func (f HandleFactoryFunc) NewHandle(ctx context.Context) (*Conn, error) {
	return f(ctx)
}

// NewHandle reserves a dedicated connection from the pool.
func (d *DB) NewHandle(ctx context.Context) (*Conn, error) {
	c, err := d.DB.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", WrapError(err, d.mapErr))
	}
	return &Conn{Conn: c, dialect: d.dialect, logger: d.logger, mapErr: d.mapErr}, nil
}

// WithHandle acquires a handle from f, runs fn with it and releases it.
func WithHandle[T any](ctx context.Context, f HandleFactory, fn func(h Handler) (T, error)) (T, error) {
	var zero T
	conn, err := f.NewHandle(ctx)
	if err != nil {
		return zero, err
	}
	defer conn.Close()

	return fn(conn)
}
