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

package workshop

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/store"
)

// Default and maximum page sizes for list queries.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ListOptions pages a list query.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultPageSize
	}
	if o.Limit > MaxPageSize {
		o.Limit = MaxPageSize
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Repository reads and writes workshop entities. Every method takes the
// filter.Scope of the calling operation: reads only see the scope's rows,
// creates stamp the scope's tenant, and updates only touch visible rows.
type Repository struct {
	db  store.Handler
	now func() time.Time
}

// NewRepository creates a repository over db.
func NewRepository(db store.Handler) *Repository {
	return &Repository{db: db, now: time.Now}
}

// WithHandler returns a copy of r that runs on h, typically a transaction.
func (r *Repository) WithHandler(h store.Handler) *Repository {
	c := *r
	c.db = h
	return &c
}

// WithClock returns a copy of r that stamps times from now.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	c := *r
	c.now = now
	return &c
}

// tenantOf returns the organization new rows are stamped with.
func tenantOf(scope filter.Scope) (uuid.UUID, error) {
	org, ok := scope.Tenant().OrganizationID()
	if !ok {
		return uuid.Nil, store.ErrNoTenant
	}
	return org, nil
}

func newID(id uuid.UUID) (uuid.UUID, error) {
	if id != uuid.Nil {
		return id, nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate id: %w", err)
	}
	return id, nil
}

func (r *Repository) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return r.now().UTC()
	}
	return t.UTC()
}

// Count returns the number of rows of table visible to scope.
func (r *Repository) Count(ctx context.Context, scope filter.Scope, table string) (int, error) {
	sel, err := store.Scoped(r.db, scope, table)
	if err != nil {
		return 0, err
	}
	return store.Count(ctx, r.db, sel)
}

func get[T any](ctx context.Context, h store.Handler, scope filter.Scope, table string, columns []string, id uuid.UUID, preds ...*sql.Predicate) (*T, error) {
	sel, err := store.Scoped(h, scope, table, columns...)
	if err != nil {
		return nil, err
	}
	sel.Where(sql.EQ("id", id))
	for _, p := range preds {
		sel.Where(p)
	}
	v, err := store.One[T](ctx, h, sel)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func list[T any](ctx context.Context, h store.Handler, scope filter.Scope, table string, columns []string, opts ListOptions, order []string, preds ...*sql.Predicate) ([]T, error) {
	opts = opts.normalize()
	sel, err := store.Scoped(h, scope, table, columns...)
	if err != nil {
		return nil, err
	}
	for _, p := range preds {
		sel.Where(p)
	}
	sel.OrderBy(order...).Limit(opts.Limit).Offset(opts.Offset)
	out, err := store.All[T](ctx, h, sel)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (r *Repository) insert(ctx context.Context, table string, columns []string, values ...any) error {
	ins := store.Insert(r.db, table).Columns(columns...).Values(values...)
	_, err := store.Exec(ctx, r.db, ins)
	return err
}

// update applies set to the row id of table when scope can see it. A row
// outside the scope reports store.ErrNotFound.
func (r *Repository) update(ctx context.Context, scope filter.Scope, table string, id uuid.UUID, set func(u *sql.UpdateBuilder), preds ...*sql.Predicate) error {
	u, err := store.Update(r.db, scope, table)
	if err != nil {
		return err
	}
	set(u)
	u.Where(sql.EQ("id", id))
	for _, p := range preds {
		u.Where(p)
	}
	n, err := store.Exec(ctx, r.db, u)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
