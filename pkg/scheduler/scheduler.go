// Package scheduler provides the coalescing update queue that defers
// document mutations to a single flush boundary.
//
// A Scheduler is an explicitly constructed instance: one per mounted surface
// (or per test), passed to the renderer at construction. Tasks carry stable
// identity, so scheduling the same task twice before a flush collapses to a
// single run at its first queued position.
package scheduler

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Task is a zero-argument update with stable identity. A task is created
// once, owned by whoever schedules it, and may be enqueued any number of
// times; identity-based deduplication means at most one queued entry.
type Task struct {
	id uint64

	// fn is the mutation to apply at flush time.
	fn func()

	// canceled tasks are skipped at flush time.
	canceled atomic.Bool
}

// taskIDCounter allocates task identities.
var taskIDCounter uint64

// NewTask creates a task around the given mutation callback.
func NewTask(fn func()) *Task {
	return &Task{
		id: atomic.AddUint64(&taskIDCounter, 1),
		fn: fn,
	}
}

// ID returns the task's unique identity.
func (t *Task) ID() uint64 {
	return t.id
}

// Cancel marks the task so any queued or future schedule of it is ignored.
func (t *Task) Cancel() {
	t.canceled.Store(true)
}

// Canceled reports whether the task has been canceled.
func (t *Task) Canceled() bool {
	return t.canceled.Load()
}

// Scheduler coalesces scheduled tasks into flush passes. All mutation of the
// pending set and flush flags is confined to Schedule and Flush.
type Scheduler struct {
	mu sync.Mutex

	// pending holds queued tasks in insertion order.
	pending []*Task

	// queued tracks membership of pending for identity dedup.
	queued map[uint64]struct{}

	// scheduled means a wake has been issued and a flush is on its way.
	scheduled bool

	// flushing means a flush is currently running.
	flushing bool

	// wake arranges a near-future call to Flush. nil means the consumer
	// drives Flush explicitly (tests, benchmarks).
	wake func()

	logger *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWake sets the hook used to arrange a flush after the first task of a
// cycle is scheduled. The hook must be cheap and non-blocking; the usual
// implementation posts to a capacity-1 channel drained by the owner's loop.
func WithWake(wake func()) Option {
	return func(s *Scheduler) {
		s.wake = wake
	}
}

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		queued: make(map[uint64]struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule queues a task for the next flush. Scheduling an already-queued
// task is a no-op: the task keeps its first queued position. If no flush is
// scheduled or running, the wake hook is invoked exactly once.
func (s *Scheduler) Schedule(t *Task) {
	if t == nil || t.Canceled() {
		return
	}

	s.mu.Lock()
	if _, ok := s.queued[t.id]; ok {
		s.mu.Unlock()
		return
	}
	s.queued[t.id] = struct{}{}
	s.pending = append(s.pending, t)

	needWake := !s.scheduled && !s.flushing
	if needWake {
		s.scheduled = true
	}
	s.mu.Unlock()

	if needWake && s.wake != nil {
		s.wake()
	}
}

// HasPending reports whether any tasks are queued.
func (s *Scheduler) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Flush applies all queued tasks. Each pass snapshots the pending set and
// runs its tasks in insertion order; tasks scheduled by a running task land
// in the next pass, never recursively. Flush loops passes until the queue is
// quiescent, so callers get a synchronous "everything applied" boundary.
// Calling Flush while a flush is running returns immediately — the caller's
// work piggybacks on the pass in progress.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.scheduled = false

	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		s.queued = make(map[uint64]struct{})
		s.mu.Unlock()

		for _, t := range batch {
			if t.Canceled() {
				continue
			}
			s.runTask(t)
		}

		s.mu.Lock()
	}

	s.flushing = false
	s.mu.Unlock()
}

// runTask runs one task, isolating panics so one failing mutation cannot
// abort the rest of the pass.
func (s *Scheduler) runTask(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled update panicked",
				"task_id", t.id,
				"panic", r)
		}
	}()
	t.fn()
}
