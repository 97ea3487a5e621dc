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

// Package loader coalesces lookups made during one operation into batch
// queries.
//
// Keys are collected with Enqueue. Awaiting a pending set suspends the
// caller, and the loader's Scheduler dispatches one fetch for every key
// collected so far once no step of the operation can add more. Every later
// request for a resolved key is served from the loader's cache. A loader
// belongs to exactly one operation; create a new one per request.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/husainf4l/gixat2-sub001/internal/observability/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/husainf4l/gixat2-sub001/internal/loader"

// ErrNoFetch is returned by loaders constructed without a fetch function.
var ErrNoFetch = errors.New("loader: no fetch function")

// FetchFunc loads the values of keys. Keys without a value are left out of
// the returned map. keys is never empty and holds no duplicates.
type FetchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Observer is notified of every dispatched batch.
type Observer interface {
	ObserveBatch(ctx context.Context, loader string, keys int, elapsed time.Duration, err error)
}

// Stats counts the work done by a loader.
type Stats struct {
	// Batches is the number of fetches issued.
	Batches int
	// Keys is the number of keys sent to fetches.
	Keys int
	// Hits is the number of requested keys served from the cache.
	Hits int
	// Failures is the number of failed fetches.
	Failures int
}

type options struct {
	maxBatch  int
	scheduler *Scheduler
	observer  Observer
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures a loader.
type Option func(*options)

// WithMaxBatch caps the number of keys in one fetch. Larger pending sets
// are split into several batches.
func WithMaxBatch(n int) Option {
	return func(o *options) {
		o.maxBatch = n
	}
}

// WithScheduler shares sched with the other loaders of the operation.
// Without it a loader dispatches as soon as a caller awaits.
func WithScheduler(sched *Scheduler) Option {
	return func(o *options) {
		o.scheduler = sched
	}
}

// WithObserver reports every batch to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithTracer sets the tracer used for batch spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithLogger logs batch failures to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{tracer: otel.Tracer(instrumentationName)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = NewScheduler()
	}
	return o
}

type batch[K comparable, V any] struct {
	keys    []K
	done    chan struct{}
	results map[K]V
	err     error

	// Guarded by the scheduler lock.
	finished bool
	waiters  []*waiter
}

// Keyed resolves each key to at most one value.
type Keyed[K comparable, V any] struct {
	name  string
	fetch FetchFunc[K, V]
	opts  options

	mu      sync.Mutex
	cache   map[K]*batch[K, V]
	current *batch[K, V]
	queue   []*batch[K, V]
	stats   Stats
}

// NewKeyed returns a keyed loader named name.
func NewKeyed[K comparable, V any](name string, fetch FetchFunc[K, V], opts ...Option) *Keyed[K, V] {
	return &Keyed[K, V]{
		name:  name,
		fetch: fetch,
		opts:  buildOptions(opts),
		cache: make(map[K]*batch[K, V]),
	}
}

// Name returns the loader name.
func (l *Keyed[K, V]) Name() string {
	return l.name
}

// Pending is a set of enqueued keys awaiting their batch.
type Pending[K comparable, V any] struct {
	l       *Keyed[K, V]
	keys    []K
	batches []*batch[K, V]
}

// Enqueue registers keys with the loader without fetching. Keys already
// cached or enqueued join their existing batch.
func (l *Keyed[K, V]) Enqueue(keys ...K) *Pending[K, V] {
	p := &Pending[K, V]{l: l, keys: keys}

	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[*batch[K, V]]struct{})
	for _, k := range keys {
		b, ok := l.cache[k]
		if ok {
			l.stats.Hits++
		} else {
			if l.current == nil || (l.opts.maxBatch > 0 && len(l.current.keys) >= l.opts.maxBatch) {
				l.current = &batch[K, V]{done: make(chan struct{})}
				l.queue = append(l.queue, l.current)
				l.opts.scheduler.enqueue(l)
			}
			b = l.current
			b.keys = append(b.keys, k)
			l.cache[k] = b
		}
		if _, dup := seen[b]; !dup {
			seen[b] = struct{}{}
			p.batches = append(p.batches, b)
		}
	}
	return p
}

// Await waits for the batches holding the pending keys and returns the
// values found. Absent keys are left out of the map. A failed batch fails
// every Await that depends on it.
func (p *Pending[K, V]) Await(ctx context.Context) (map[K]V, error) {
	out := make(map[K]V, len(p.keys))
	if len(p.keys) == 0 {
		return out, nil
	}
	if err := p.l.wait(ctx, p.batches); err != nil {
		return nil, err
	}
	for _, b := range p.batches {
		for _, k := range p.keys {
			if v, ok := b.results[k]; ok {
				out[k] = v
			}
		}
	}
	return out, nil
}

// Load returns the value of key. The boolean is false when key has no value.
func (l *Keyed[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	m, err := l.Enqueue(key).Await(ctx)
	if err != nil {
		var zero V
		return zero, false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// LoadMany returns the values of keys. An empty key set issues no fetch.
func (l *Keyed[K, V]) LoadMany(ctx context.Context, keys []K) (map[K]V, error) {
	return l.Enqueue(keys...).Await(ctx)
}

// Prime stores a value obtained elsewhere so later loads skip the fetch.
// Keys already cached are left alone.
func (l *Keyed[K, V]) Prime(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cache[key]; ok {
		return
	}
	b := &batch[K, V]{keys: []K{key}, done: make(chan struct{}), results: map[K]V{key: value}, finished: true}
	close(b.done)
	l.cache[key] = b
}

// Stats returns a snapshot of the loader counters.
func (l *Keyed[K, V]) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Keyed[K, V]) wait(ctx context.Context, bs []*batch[K, V]) error {
	sched := l.opts.scheduler
	w := sched.suspend(ctx, func(w *waiter) int {
		n := 0
		for _, b := range bs {
			if !b.finished {
				b.waiters = append(b.waiters, w)
				n++
			}
		}
		return n
	})
	defer sched.resume(w)

	for _, b := range bs {
		select {
		case <-b.done:
			if b.err != nil {
				return b.err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// settle wakes the waiters of b, then publishes its outcome.
func (l *Keyed[K, V]) settle(b *batch[K, V]) {
	sched := l.opts.scheduler
	sched.mu.Lock()
	b.finished = true
	for _, w := range b.waiters {
		sched.settleLocked(w)
	}
	b.waiters = nil
	sched.mu.Unlock()

	close(b.done)
}

// flush dispatches every queued batch, each on its own goroutine.
func (l *Keyed[K, V]) flush(ctx context.Context) {
	l.mu.Lock()
	queued := l.queue
	l.queue, l.current = nil, nil
	l.mu.Unlock()

	for _, b := range queued {
		go l.dispatch(ctx, b)
	}
}

func (l *Keyed[K, V]) dispatch(ctx context.Context, b *batch[K, V]) {
	defer l.settle(b)

	l.mu.Lock()
	keys := b.keys
	l.stats.Batches++
	l.stats.Keys += len(keys)
	l.mu.Unlock()

	ctx, span := l.opts.tracer.Start(ctx, "loader.batch", trace.WithAttributes(
		attribute.String("loader.name", l.name),
		attribute.Int("loader.keys", len(keys)),
	))
	defer span.End()

	start := time.Now()
	results, err := l.run(ctx, keys)
	if err == nil {
		// A fetch that finished after cancellation may hold partial rows.
		err = ctx.Err()
	}
	if l.opts.observer != nil {
		l.opts.observer.ObserveBatch(ctx, l.name, len(keys), time.Since(start), err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if l.opts.logger != nil {
			l.opts.logger.WarnContext(ctx, "loader batch failed",
				logger.Loader(l.name), logger.BatchSize(len(keys)), logger.Error(err))
		}
		l.evict(b)
		b.err = err
		return
	}
	if results == nil {
		results = make(map[K]V)
	}
	b.results = results
}

func (l *Keyed[K, V]) run(ctx context.Context, keys []K) (map[K]V, error) {
	if l.fetch == nil {
		return nil, ErrNoFetch
	}
	return l.fetch(ctx, keys)
}

// evict drops the keys of a failed batch so a later request fetches them again.
func (l *Keyed[K, V]) evict(b *batch[K, V]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.Failures++
	for _, k := range b.keys {
		if l.cache[k] == b {
			delete(l.cache, k)
		}
	}
}
