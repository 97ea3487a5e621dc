package loader

import (
	"context"
)

// Grouped resolves each parent key to an ordered collection of children.
// A key without children resolves to an empty, non-nil slice.
type Grouped[K comparable, V any] struct {
	keyed *Keyed[K, []V]
}

// NewGrouped returns a grouped loader named name. fetch must return each
// collection in its final order; the loader never reorders children.
func NewGrouped[K comparable, V any](name string, fetch FetchFunc[K, []V], opts ...Option) *Grouped[K, V] {
	var fill FetchFunc[K, []V]
	if fetch != nil {
		fill = func(ctx context.Context, keys []K) (map[K][]V, error) {
			groups, err := fetch(ctx, keys)
			if err != nil {
				return nil, err
			}
			out := make(map[K][]V, len(keys))
			for _, k := range keys {
				g := groups[k]
				if g == nil {
					g = []V{}
				}
				out[k] = g
			}
			return out, nil
		}
	}
	return &Grouped[K, V]{keyed: NewKeyed(name, fill, opts...)}
}

// Name returns the loader name.
func (l *Grouped[K, V]) Name() string {
	return l.keyed.Name()
}

// Enqueue registers parent keys without fetching.
func (l *Grouped[K, V]) Enqueue(keys ...K) *Pending[K, []V] {
	return l.keyed.Enqueue(keys...)
}

// Load returns the children of key.
func (l *Grouped[K, V]) Load(ctx context.Context, key K) ([]V, error) {
	v, _, err := l.keyed.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = []V{}
	}
	return v, nil
}

// LoadMany returns the children of every key. Every key is present in the
// result.
func (l *Grouped[K, V]) LoadMany(ctx context.Context, keys []K) (map[K][]V, error) {
	return l.keyed.LoadMany(ctx, keys)
}

// Stats returns a snapshot of the loader counters.
func (l *Grouped[K, V]) Stats() Stats {
	return l.keyed.Stats()
}
