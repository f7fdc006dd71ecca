package reactive

import "testing"

func TestWatcherPendingDrain(t *testing.T) {
	w := NewWatcher()
	a := NewCell(0)
	b := NewCell(0)

	ca := NewComputation(nil)
	cb := NewComputation(nil)
	w.Watch(ca)
	w.Watch(cb)

	ca.Run(func() { _ = a.Get() })
	cb.Run(func() { _ = b.Get() })

	b.Set(1)
	a.Set(1)

	pending := w.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending computations, got %d", len(pending))
	}
	// Staleness order: b's computation went stale first.
	if pending[0].ID() != cb.ID() || pending[1].ID() != ca.ID() {
		t.Error("pending computations not in staleness order")
	}

	// Drained: next call is empty.
	if got := w.Pending(); len(got) != 0 {
		t.Errorf("expected empty pending set after drain, got %d", len(got))
	}
}

func TestWatcherPendingDedup(t *testing.T) {
	w := NewWatcher()
	c := NewCell(0)

	comp := NewComputation(nil)
	w.Watch(comp)
	comp.Run(func() { _ = c.Get() })

	c.Set(1)
	c.Set(2)

	if got := w.Pending(); len(got) != 1 {
		t.Errorf("expected 1 pending entry for repeated staleness, got %d", len(got))
	}
}

func TestWatcherUnwatchRemovesPending(t *testing.T) {
	w := NewWatcher()
	c := NewCell(0)

	comp := NewComputation(nil)
	w.Watch(comp)
	comp.Run(func() { _ = c.Get() })

	c.Set(1)
	w.Unwatch(comp)

	if got := w.Pending(); len(got) != 0 {
		t.Errorf("unwatched computation must not appear in pending, got %d", len(got))
	}
	if w.Watched(comp) {
		t.Error("computation should no longer be watched")
	}
}

func TestWatcherUnwatchedNotRecorded(t *testing.T) {
	w := NewWatcher()
	c := NewCell(0)

	comp := NewComputation(nil)
	w.Watch(comp)
	comp.Run(func() { _ = c.Get() })
	w.Unwatch(comp)

	// Stale after unwatch: must not be recorded.
	c.Set(1)
	if got := w.Pending(); len(got) != 0 {
		t.Errorf("expected no pending entries, got %d", len(got))
	}
}
