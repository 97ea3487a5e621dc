// Copyright 2026 The Gixat Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store provides the database handles used by repositories and
// batch loaders, and generic helpers that run ent SQL builders on them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// DB wraps a database pool.
type DB struct {
	*sqlx.DB
	dialect string
	logger  *slog.Logger
	mapErr  ErrorMapper
	closers []func()
}

// New wraps db. dialect is an ent dialect name (dialect.Postgres,
// dialect.SQLite). A nil logger disables query tracing.
func New(db *sqlx.DB, dialect string, logger *slog.Logger, mapErr ErrorMapper) *DB {
	if logger != nil {
		logger = logger.With(slog.String("component", "store"))
	}
	return &DB{DB: db, dialect: dialect, logger: logger, mapErr: mapErr}
}

// Dialect implements Handler.
func (d *DB) Dialect() string {
	return d.dialect
}

// OnClose registers fn to run after the pool is closed.
func (d *DB) OnClose(fn func()) {
	d.closers = append(d.closers, fn)
}

// Close closes the pool.
func (d *DB) Close() error {
	err := d.DB.Close()
	for _, fn := range d.closers {
		fn()
	}
	return err
}

// Tx is a database transaction.
type Tx struct {
	*sqlx.Tx
	dialect string
	logger  *slog.Logger
	mapErr  ErrorMapper
}

// Dialect implements Handler.
func (t *Tx) Dialect() string {
	return t.dialect
}

// TransactionContext runs fn in a transaction. The transaction is rolled
// back when fn returns an error.
func (d *DB) TransactionContext(ctx context.Context, fn func(tx *Tx) error) error {
	txx, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Tx{Tx: txx, dialect: d.dialect, logger: d.logger, mapErr: d.mapErr}
	if err := fn(tx); err != nil {
		return rollback(tx, err)
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func rollback(tx *Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		if errors.Is(rerr, sql.ErrTxDone) {
			return err
		}
		return fmt.Errorf("failed to rollback: %s: %w", err.Error(), rerr)
	}
	return err
}
