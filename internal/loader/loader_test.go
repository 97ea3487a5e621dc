package loader

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]int
	err     error
}

func (r *recorder) fetch(_ context.Context, keys []int) (map[int]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, slices.Clone(keys))
	if r.err != nil {
		return nil, r.err
	}
	out := make(map[int]string)
	for _, k := range keys {
		if k >= 0 {
			out[k] = "v" + string(rune('0'+k%10))
		}
	}
	return out, nil
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

type observation struct {
	loader string
	keys   int
	err    error
}

type observerFunc func(o observation)

func (f observerFunc) ObserveBatch(_ context.Context, loader string, keys int, _ time.Duration, err error) {
	f(observation{loader: loader, keys: keys, err: err})
}

// TestPurpose: Validates that keys enqueued during the collection phase are fetched in one batch.
// Scope: Unit Test
// Expected: Three separate enqueues produce exactly one fetch holding all three keys.
// Test Case ID: LDR-01
func TestKeyed_CoalescesEnqueuedKeys(t *testing.T) {
	rec := &recorder{}
	l := NewKeyed("test", rec.fetch)
	ctx := context.Background()

	p1 := l.Enqueue(1)
	p2 := l.Enqueue(2, 3)
	p3 := l.Enqueue(3)

	m1, err := p1.Await(ctx)
	require.NoError(t, err)
	m2, err := p2.Await(ctx)
	require.NoError(t, err)
	m3, err := p3.Await(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[int]string{1: "v1"}, m1)
	assert.Equal(t, map[int]string{2: "v2", 3: "v3"}, m2)
	assert.Equal(t, map[int]string{3: "v3"}, m3)
	require.Equal(t, 1, rec.calls())
	assert.ElementsMatch(t, []int{1, 2, 3}, rec.batches[0])
}

// TestPurpose: Validates the per-operation result cache.
// Scope: Unit Test
// Expected: Loading a key twice returns the same value and issues no second fetch.
// Test Case ID: LDR-02
func TestKeyed_CachesResolvedKeys(t *testing.T) {
	rec := &recorder{}
	l := NewKeyed("test", rec.fetch)
	ctx := context.Background()

	v1, ok, err := l.Load(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	v2, ok, err := l.Load(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, rec.calls())
	assert.Equal(t, Stats{Batches: 1, Keys: 1, Hits: 1}, l.Stats())

	// A mix of cached and new keys only fetches the new ones.
	_, err = l.LoadMany(ctx, []int{7, 8})
	require.NoError(t, err)
	require.Equal(t, 2, rec.calls())
	assert.Equal(t, []int{8}, rec.batches[1])
}

// TestPurpose: Validates that empty key sets and absent keys are not errors.
// Scope: Unit Test
// Expected: No fetch for an empty set; absent keys are missing from the map and reported as not found.
// Test Case ID: LDR-03
func TestKeyed_EmptyAndAbsent(t *testing.T) {
	rec := &recorder{}
	l := NewKeyed("test", rec.fetch)
	ctx := context.Background()

	m, err := l.LoadMany(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)
	assert.Zero(t, rec.calls())

	_, ok, err := l.Load(ctx, -1)
	require.NoError(t, err)
	assert.False(t, ok)

	m, err = l.LoadMany(ctx, []int{-2, 4})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{4: "v4"}, m)
}

// TestPurpose: Validates that a batch failure reaches every waiter and is not cached.
// Scope: Unit Test
// Expected: All pending sets of the failed batch see the error; a later load fetches again.
// Test Case ID: LDR-04
func TestKeyed_FailureFansOutAndEvicts(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{err: boom}
	var seen []observation
	l := NewKeyed("test", rec.fetch, WithObserver(observerFunc(func(o observation) { seen = append(seen, o) })))
	ctx := context.Background()

	p1 := l.Enqueue(1)
	p2 := l.Enqueue(2)

	_, err := p1.Await(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = p2.Await(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec.calls())

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	v, ok, err := l.Load(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	assert.Equal(t, 2, rec.calls())

	stats := l.Stats()
	assert.Equal(t, 2, stats.Batches)
	assert.Equal(t, 1, stats.Failures)

	require.Len(t, seen, 2)
	assert.Equal(t, observation{loader: "test", keys: 2, err: boom}, seen[0])
	assert.NoError(t, seen[1].err)
}

// TestPurpose: Validates that cancellation aborts the batch instead of returning partial results.
// Scope: Unit Test
// Expected: The fetch sees the cancelled context, the waiter gets the cancellation error and the batch counts as failed.
// Test Case ID: LDR-05
func TestKeyed_Cancellation(t *testing.T) {
	started := make(chan struct{})
	l := NewKeyed("slow", func(ctx context.Context, keys []int) (map[int]int, error) {
		close(started)
		<-ctx.Done()
		return map[int]int{keys[0]: 1}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	p := l.Enqueue(1, 2)

	errc := make(chan error, 1)
	go func() {
		_, err := p.Await(ctx)
		errc <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	assert.Eventually(t, func() bool {
		return l.Stats().Failures == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, l.Stats().Batches)
}

// TestPurpose: Validates that concurrent waiters on one batch share a single fetch.
// Scope: Unit Test
// Expected: Ten goroutines awaiting the same pending set trigger one fetch.
// Test Case ID: LDR-06
func TestKeyed_ConcurrentAwait(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	l := NewKeyed("test", func(_ context.Context, keys []int) (map[int]int, error) {
		calls.Add(1)
		<-release
		out := make(map[int]int)
		for _, k := range keys {
			out[k] = k * 10
		}
		return out, nil
	})
	p := l.Enqueue(1, 2, 3)

	var wg sync.WaitGroup
	results := make([]map[int]int, 10)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := p.Await(context.Background())
			assert.NoError(t, err)
			results[i] = m
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, m := range results {
		assert.Equal(t, map[int]int{1: 10, 2: 20, 3: 30}, m)
	}
}

// TestPurpose: Validates batch size limits and priming.
// Scope: Unit Test
// Expected: Five keys with a limit of two take three fetches; primed keys are never fetched.
// Test Case ID: LDR-07
func TestKeyed_MaxBatchAndPrime(t *testing.T) {
	rec := &recorder{}
	l := NewKeyed("test", rec.fetch, WithMaxBatch(2))
	l.Prime(9, "primed")

	m, err := l.LoadMany(context.Background(), []int{1, 2, 3, 4, 5, 9})
	require.NoError(t, err)
	assert.Len(t, m, 6)
	assert.Equal(t, "primed", m[9])
	assert.Equal(t, 3, rec.calls())
	for _, b := range rec.batches {
		assert.LessOrEqual(t, len(b), 2)
		assert.NotContains(t, b, 9)
	}
}

// TestPurpose: Validates the missing fetch guard.
// Scope: Unit Test
// Expected: ErrNoFetch is returned instead of a panic.
// Test Case ID: LDR-08
func TestKeyed_NoFetch(t *testing.T) {
	l := NewKeyed[int, int]("none", nil)
	_, _, err := l.Load(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoFetch)
}

// TestPurpose: Validates grouped loader shape and ordering.
// Scope: Unit Test
// Expected: Parents without children get an empty slice; child order is the fetch order.
// Test Case ID: LDR-09
func TestGrouped(t *testing.T) {
	var calls int
	l := NewGrouped("children", func(_ context.Context, keys []string) (map[string][]int, error) {
		calls++
		return map[string][]int{"a": {3, 1, 2}, "b": {5}}, nil
	})
	ctx := context.Background()

	m, err := l.LoadMany(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, m["a"])
	assert.Equal(t, []int{5}, m["b"])
	require.Contains(t, m, "c")
	assert.NotNil(t, m["c"])
	assert.Empty(t, m["c"])

	c, err := l.Load(ctx, "c")
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "children", l.Name())
}

// TestPurpose: Validates that concurrent single-key loads within one operation share one fetch.
// Scope: Unit Test
// Expected: Twenty steps each loading a distinct key issue one batch; a second level of loads issues one more.
// Test Case ID: LDR-10
func TestScheduler_ConcurrentLoadsCoalesce(t *testing.T) {
	var mu sync.Mutex
	var batches [][]int
	sched := NewScheduler()
	l := NewGrouped("children", func(_ context.Context, keys []int) (map[int][]int, error) {
		mu.Lock()
		batches = append(batches, slices.Clone(keys))
		mu.Unlock()
		out := make(map[int][]int, len(keys))
		for _, k := range keys {
			out[k] = []int{k * 10}
		}
		return out, nil
	}, WithScheduler(sched))

	const steps = 20
	first := make([][]int, steps)
	second := make([][]int, steps)
	fns := make([]func(ctx context.Context) error, steps)
	for i := range fns {
		fns[i] = func(ctx context.Context) error {
			var err error
			if first[i], err = l.Load(ctx, i); err != nil {
				return err
			}
			second[i], err = l.Load(ctx, 100+i)
			return err
		}
	}
	require.NoError(t, sched.Fork(context.Background(), fns...))

	for i := range steps {
		assert.Equal(t, []int{i * 10}, first[i])
		assert.Equal(t, []int{(100 + i) * 10}, second[i])
	}
	assert.Equal(t, 2, l.Stats().Batches)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], steps)
	assert.Len(t, batches[1], steps)
}

// TestPurpose: Validates that loaders sharing a scheduler dispatch together and nested forks do not stall.
// Scope: Unit Test
// Expected: Keys from a nested fork and its sibling reach each loader in a single batch.
// Test Case ID: LDR-11
func TestScheduler_NestedForkSharesBatch(t *testing.T) {
	sched := NewScheduler()
	recA, recB := &recorder{}, &recorder{}
	a := NewKeyed("a", recA.fetch, WithScheduler(sched))
	b := NewKeyed("b", recB.fetch, WithScheduler(sched))

	load := func(l *Keyed[int, string], key int) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			_, _, err := l.Load(ctx, key)
			return err
		}
	}
	err := sched.Fork(context.Background(),
		func(ctx context.Context) error {
			return sched.Fork(ctx, load(a, 1), load(a, 2), load(b, 3))
		},
		load(a, 4),
		load(b, 5),
	)
	require.NoError(t, err)

	require.Equal(t, 1, recA.calls())
	assert.ElementsMatch(t, []int{1, 2, 4}, recA.batches[0])
	require.Equal(t, 1, recB.calls())
	assert.ElementsMatch(t, []int{3, 5}, recB.batches[0])
}

// TestPurpose: Validates that a failing step cancels its siblings without leaving waiters behind.
// Scope: Unit Test
// Expected: Fork returns the step error and the pending batch fails with it.
// Test Case ID: LDR-12
func TestScheduler_ForkPropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	sched := NewScheduler()
	rec := &recorder{err: boom}
	l := NewKeyed("test", rec.fetch, WithScheduler(sched))

	err := sched.Fork(context.Background(),
		func(ctx context.Context) error {
			_, _, err := l.Load(ctx, 1)
			return err
		},
		func(ctx context.Context) error {
			_, _, err := l.Load(ctx, 2)
			return err
		},
	)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, rec.calls())
	assert.NoError(t, sched.Fork(context.Background()))
}
