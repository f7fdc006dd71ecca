package reactive

import (
	"sync"
	"sync/atomic"
)

// Computation is a tracked unit of work. Cells read during Run are recorded
// as sources; when any source changes, the computation is marked stale. The
// onStale hook fires once per transition from fresh to stale; it must not do
// the work itself, only arrange for the owner to re-run the computation.
type Computation struct {
	id uint64

	// onStale is invoked when the computation transitions to stale.
	onStale func()

	// sources are the cells this computation read during its last run.
	sources   []*cellBase
	sourcesMu sync.Mutex

	// stale is set on invalidation and cleared by Run.
	stale atomic.Bool

	// watcher is the watcher this computation is registered with, if any.
	watcher *Watcher

	// released means the computation will never be marked stale again.
	released atomic.Bool
}

// NewComputation creates a computation with the given staleness hook.
// The hook may be nil when only watcher pending-set draining is used.
func NewComputation(onStale func()) *Computation {
	return &Computation{
		id:      NextID(),
		onStale: onStale,
	}
}

// ID returns the unique identifier for this computation.
func (c *Computation) ID() uint64 {
	return c.id
}

// Stale reports whether the computation has stale inputs.
func (c *Computation) Stale() bool {
	return c.stale.Load()
}

// MarkStale records that one of the computation's inputs changed. The first
// call since the last Run records the computation in its watcher's pending
// set and fires the onStale hook; further calls are no-ops until the next
// Run clears the flag.
func (c *Computation) MarkStale() {
	if c.released.Load() {
		return
	}

	if c.stale.CompareAndSwap(false, true) {
		if c.watcher != nil {
			c.watcher.markPending(c)
		}
		if c.onStale != nil {
			c.onStale()
		}
	}
}

// Run executes fn with this computation installed as the tracking target.
// Old sources are dropped first so the dependency set always reflects the
// cells read by the latest run.
func (c *Computation) Run(fn func()) {
	if c.released.Load() {
		return
	}

	c.stale.Store(false)

	c.sourcesMu.Lock()
	for _, source := range c.sources {
		source.unsubscribe(c)
	}
	c.sources = c.sources[:0]
	c.sourcesMu.Unlock()

	old := setCurrentComputation(c)
	fn()
	setCurrentComputation(old)
}

// addSource records a cell read during the current run.
// Called by cells when they are read while this computation is tracking.
func (c *Computation) addSource(source *cellBase) {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()

	for _, s := range c.sources {
		if s == source {
			return
		}
	}
	c.sources = append(c.sources, source)
}

// Release unsubscribes from all sources. The computation never fires again.
func (c *Computation) Release() {
	if c.released.Swap(true) {
		return
	}

	c.sourcesMu.Lock()
	for _, source := range c.sources {
		source.unsubscribe(c)
	}
	c.sources = nil
	c.sourcesMu.Unlock()
}
