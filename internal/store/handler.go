package store

import (
	"context"
	"database/sql"
)

// Handler is a database handle: the pool, a transaction or a single
// connection. Errors returned by a Handler are already mapped.
type Handler interface {
	// Dialect returns the ent dialect name of the database.
	Dialect() string

	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ Handler = (*DB)(nil)
	_ Handler = (*Tx)(nil)
	_ Handler = (*Conn)(nil)
)
