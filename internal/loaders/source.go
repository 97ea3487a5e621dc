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

// Package loaders binds the batch loader framework to the workshop entities.
//
// Every batch runs on its own short-lived handle from a store.HandleFactory
// and issues one query. The handle carries no tenant: keys handed to these
// loaders must come from rows that were already read through a tenant
// scope. WithTenantGuard re-applies the operation's tenant policy inside
// each batch for callers that cannot guarantee that.
package loaders

import (
	"context"
	"log/slog"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/loader"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxBatch keeps IN lists well below the bind parameter limits of
// both dialects.
const DefaultMaxBatch = 500

// source runs batch queries for one operation.
type source struct {
	factory store.HandleFactory
	guard   *filter.Scope
	sched   *loader.Scheduler
	opts    []loader.Option
}

// Option configures a Set.
type Option func(*settings)

type settings struct {
	registry *filter.Registry
	tenant   tenant.Context
	guard    bool
	observer loader.Observer
	logger   *slog.Logger
	tracer   trace.Tracer
	maxBatch int
}

// WithTenantGuard restricts every batch query to the rows of tc using the
// policies in registry.
func WithTenantGuard(registry *filter.Registry, tc tenant.Context) Option {
	return func(s *settings) {
		s.registry = registry
		s.tenant = tc
		s.guard = true
	}
}

// WithObserver reports every batch to obs.
func WithObserver(obs loader.Observer) Option {
	return func(s *settings) {
		s.observer = obs
	}
}

// WithLogger logs failed batches to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithTracer records a span for every batch on t.
func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		s.tracer = t
	}
}

// WithMaxBatch caps the keys of one batch query.
func WithMaxBatch(n int) Option {
	return func(s *settings) {
		s.maxBatch = n
	}
}

func newSource(factory store.HandleFactory, opts []Option) *source {
	s := settings{maxBatch: DefaultMaxBatch}
	for _, opt := range opts {
		opt(&s)
	}

	src := &source{factory: factory, sched: loader.NewScheduler()}
	if s.guard && s.registry != nil {
		scope := s.registry.For(s.tenant)
		src.guard = &scope
	}
	src.opts = append(src.opts, loader.WithMaxBatch(s.maxBatch), loader.WithScheduler(src.sched))
	if s.observer != nil {
		src.opts = append(src.opts, loader.WithObserver(s.observer))
	}
	if s.logger != nil {
		src.opts = append(src.opts, loader.WithLogger(s.logger))
	}
	if s.tracer != nil {
		src.opts = append(src.opts, loader.WithTracer(s.tracer))
	}
	return src
}

// selectIn selects columns of the rows of table whose col is one of keys.
func (s *source) selectIn(h store.Handler, table, col string, keys []uuid.UUID, columns ...string) (*sql.Selector, error) {
	sel := store.From(h, table, columns...).Where(sql.In(col, lo.ToAnySlice(keys)...))
	if s.guard != nil {
		if err := s.guard.Apply(sel, table); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

// cond builds a fresh predicate for every query. Predicates are builders
// and cannot be shared between concurrent queries.
type cond func() *sql.Predicate

// rows fetches every row matching keys in one query on a fresh handle.
func rows[V any](ctx context.Context, s *source, table, col string, keys []uuid.UUID, columns []string, order []string, where ...cond) ([]V, error) {
	return store.WithHandle(ctx, s.factory, func(h store.Handler) ([]V, error) {
		sel, err := s.selectIn(h, table, col, keys, columns...)
		if err != nil {
			return nil, err
		}
		for _, c := range where {
			sel.Where(c())
		}
		if len(order) > 0 {
			sel.OrderBy(order...)
		}
		return store.All[V](ctx, h, sel)
	})
}

// keyed builds a loader of rows by primary key.
func keyed[V any](s *source, name, table string, columns []string, id func(V) uuid.UUID, where ...cond) *loader.Keyed[uuid.UUID, V] {
	return loader.NewKeyed(name, func(ctx context.Context, keys []uuid.UUID) (map[uuid.UUID]V, error) {
		found, err := rows[V](ctx, s, table, "id", keys, columns, nil, where...)
		if err != nil {
			return nil, err
		}
		return lo.KeyBy(found, id), nil
	}, s.opts...)
}

// grouped builds a loader of child rows by foreign key. Children keep the
// order given by order.
func grouped[V any](s *source, name, table, fk string, columns []string, parent func(V) uuid.UUID, order []string, where ...cond) *loader.Grouped[uuid.UUID, V] {
	return loader.NewGrouped(name, func(ctx context.Context, keys []uuid.UUID) (map[uuid.UUID][]V, error) {
		found, err := rows[V](ctx, s, table, fk, keys, columns, order, where...)
		if err != nil {
			return nil, err
		}
		return lo.GroupBy(found, parent), nil
	}, s.opts...)
}

type aggregateRow[V any] struct {
	Key   uuid.UUID `db:"group_key"`
	Value V         `db:"value"`
}

// aggregate builds a loader computing expr over the rows of table grouped
// by fk. Keys without rows are absent from the result.
func aggregate[V any](s *source, name, table, fk, expr string, where ...cond) *loader.Keyed[uuid.UUID, V] {
	return loader.NewKeyed(name, func(ctx context.Context, keys []uuid.UUID) (map[uuid.UUID]V, error) {
		found, err := store.WithHandle(ctx, s.factory, func(h store.Handler) ([]aggregateRow[V], error) {
			sel, err := s.selectIn(h, table, fk, keys, sql.As(fk, "group_key"), sql.As(expr, "value"))
			if err != nil {
				return nil, err
			}
			for _, c := range where {
				sel.Where(c())
			}
			sel.GroupBy(fk)
			return store.All[aggregateRow[V]](ctx, h, sel)
		})
		if err != nil {
			return nil, err
		}
		return lo.SliceToMap(found, func(r aggregateRow[V]) (uuid.UUID, V) {
			return r.Key, r.Value
		}), nil
	}, s.opts...)
}

// total sums a decimal column per key. Rows are added in Go so both
// dialects produce exact sums.
func total(s *source, name, table, fk, col string, where ...cond) *loader.Keyed[uuid.UUID, decimal.Decimal] {
	return loader.NewKeyed(name, func(ctx context.Context, keys []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
		found, err := store.WithHandle(ctx, s.factory, func(h store.Handler) ([]aggregateRow[decimal.Decimal], error) {
			sel, err := s.selectIn(h, table, fk, keys, sql.As(fk, "group_key"), sql.As(col, "value"))
			if err != nil {
				return nil, err
			}
			for _, c := range where {
				sel.Where(c())
			}
			return store.All[aggregateRow[decimal.Decimal]](ctx, h, sel)
		})
		if err != nil {
			return nil, err
		}
		out := make(map[uuid.UUID]decimal.Decimal)
		for _, r := range found {
			out[r.Key] = out[r.Key].Add(r.Value)
		}
		return out, nil
	}, s.opts...)
}
