package loader

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

type flusher interface {
	flush(ctx context.Context)
}

type stepKey struct{}

// waiter is a suspended caller. It is woken when the last thing it waits
// for completes, before that completion becomes visible to it.
type waiter struct {
	remaining int
	woken     bool
}

// Scheduler decides when the loaders of one operation dispatch.
//
// Steps started with Fork are tracked. A step awaiting a pending batch is
// suspended, and pending keys are dispatched once every tracked step is
// suspended or finished, so keys requested by concurrent steps share one
// fetch per loader. An Await made while no step runs dispatches at once.
type Scheduler struct {
	mu        sync.Mutex
	running   int
	suspended int
	pending   []flusher
}

// NewScheduler returns a Scheduler for one operation.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Fork runs fns concurrently as steps of the operation and waits for all
// of them. The first error cancels the context passed to the others. A
// step may Fork again; it counts as suspended while its children run.
func (s *Scheduler) Fork(ctx context.Context, fns ...func(ctx context.Context) error) error {
	if len(fns) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	gctx = context.WithValue(gctx, stepKey{}, s)

	// The spawning step holds dispatch back until every child is
	// registered.
	var parent *waiter
	s.mu.Lock()
	if owner, _ := ctx.Value(stepKey{}).(*Scheduler); owner == s {
		parent = &waiter{remaining: len(fns)}
		s.suspended++
	}
	s.running++
	s.mu.Unlock()
	spawning := s.end(gctx, nil)

	for _, fn := range fns {
		done := s.step(gctx, parent)
		g.Go(func() error {
			defer done()
			return fn(gctx)
		})
	}
	spawning()

	return g.Wait()
}

// step registers a running step. The returned func ends it and counts it
// against parent, if any.
func (s *Scheduler) step(ctx context.Context, parent *waiter) func() {
	s.mu.Lock()
	s.running++
	s.mu.Unlock()
	return s.end(ctx, parent)
}

func (s *Scheduler) end(ctx context.Context, parent *waiter) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.running--
			if parent != nil {
				s.settleLocked(parent)
			}
			ready := s.ready()
			s.mu.Unlock()
			flushAll(ctx, ready)
		})
	}
}

// suspend marks the caller as unable to add keys. attach runs under the
// scheduler lock and returns the number of unfinished batches it attached
// the waiter to; with none the caller is not suspended.
func (s *Scheduler) suspend(ctx context.Context, attach func(w *waiter) int) *waiter {
	w := &waiter{}

	s.mu.Lock()
	w.remaining = attach(w)
	if w.remaining == 0 {
		w.woken = true
		s.mu.Unlock()
		return w
	}
	s.suspended++
	ready := s.ready()
	s.mu.Unlock()

	flushAll(ctx, ready)
	return w
}

// resume ends a suspension early, as on cancellation.
func (s *Scheduler) resume(w *waiter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wakeLocked(w)
}

// settleLocked counts one completion against w. s.mu must be held.
func (s *Scheduler) settleLocked(w *waiter) {
	w.remaining--
	if w.remaining <= 0 {
		s.wakeLocked(w)
	}
}

func (s *Scheduler) wakeLocked(w *waiter) {
	if !w.woken {
		w.woken = true
		s.suspended--
	}
}

// enqueue records that f holds keys waiting for dispatch.
func (s *Scheduler) enqueue(f flusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		if p == f {
			return
		}
	}
	s.pending = append(s.pending, f)
}

// ready takes the pending loaders once no running step can add keys.
// s.mu must be held.
func (s *Scheduler) ready() []flusher {
	if s.suspended == 0 || s.suspended < s.running || len(s.pending) == 0 {
		return nil
	}
	out := s.pending
	s.pending = nil
	return out
}

func flushAll(ctx context.Context, fs []flusher) {
	for _, f := range fs {
		f.flush(ctx)
	}
}
