package reactive

import "sync"

// Watcher tracks a set of registered computations and records which of them
// have stale inputs since the last drain. It never re-runs anything itself.
type Watcher struct {
	mu sync.Mutex

	// watched holds the registered computations by ID.
	watched map[uint64]*Computation

	// pending holds stale watched computations in staleness order.
	pending   []*Computation
	pendingID map[uint64]struct{}
}

// NewWatcher creates an empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{
		watched:   make(map[uint64]*Computation),
		pendingID: make(map[uint64]struct{}),
	}
}

// Watch registers a computation. A computation belongs to at most one
// watcher; re-watching under a different watcher moves it.
func (w *Watcher) Watch(c *Computation) {
	if c == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.watched[c.ID()] = c
	c.watcher = w
}

// Unwatch de-lists a computation from both the watched set and the pending
// set. After Unwatch, a drain never observes the computation — this is what
// makes dispose-before-flush safe.
func (w *Watcher) Unwatch(c *Computation) {
	if c == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.watched, c.ID())
	if _, ok := w.pendingID[c.ID()]; ok {
		delete(w.pendingID, c.ID())
		for i, p := range w.pending {
			if p.ID() == c.ID() {
				w.pending = append(w.pending[:i], w.pending[i+1:]...)
				break
			}
		}
	}
	if c.watcher == w {
		c.watcher = nil
	}
}

// Watched reports whether the computation is currently registered.
func (w *Watcher) Watched(c *Computation) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.watched[c.ID()]
	return ok
}

// Pending drains and returns the watched computations that went stale since
// the last drain, in the order they went stale.
func (w *Watcher) Pending() []*Computation {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending := w.pending
	w.pending = nil
	w.pendingID = make(map[uint64]struct{})
	return pending
}

// markPending records a stale computation. Called by Computation.MarkStale;
// deduplicated by ID so a computation appears once per drain at its first
// staleness position.
func (w *Watcher) markPending(c *Computation) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.watched[c.ID()]; !ok {
		return
	}
	if _, ok := w.pendingID[c.ID()]; ok {
		return
	}
	w.pendingID[c.ID()] = struct{}{}
	w.pending = append(w.pending, c)
}
