package render

import (
	"testing"

	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/scheduler"
)

func TestEffectInitialRunIsSynchronous(t *testing.T) {
	w := reactive.NewWatcher()
	s := scheduler.New()
	cell := reactive.NewCell(1)

	var runs int
	NewEffect(w, s, func() Cleanup {
		cell.Get()
		runs++
		return nil
	})

	if runs != 1 {
		t.Fatalf("expected 1 synchronous run, got %d", runs)
	}
}

func TestEffectRerunsOnInvalidationAfterFlush(t *testing.T) {
	w := reactive.NewWatcher()
	s := scheduler.New()
	cell := reactive.NewCell("a")

	var observed []string
	NewEffect(w, s, func() Cleanup {
		observed = append(observed, cell.Get())
		return nil
	})

	cell.Set("b")
	if len(observed) != 1 {
		t.Fatalf("invalidation must not re-run synchronously, got %d runs", len(observed))
	}

	s.Flush()
	if len(observed) != 2 || observed[1] != "b" {
		t.Fatalf("expected re-run with %q after flush, got %v", "b", observed)
	}
}

func TestEffectCoalescesManyWrites(t *testing.T) {
	w := reactive.NewWatcher()
	s := scheduler.New()
	cell := reactive.NewCell(0)

	var runs int
	NewEffect(w, s, func() Cleanup {
		cell.Get()
		runs++
		return nil
	})

	cell.Set(1)
	cell.Set(2)
	cell.Set(3)
	s.Flush()

	if runs != 2 {
		t.Errorf("expected initial run + one coalesced re-run, got %d", runs)
	}
}

func TestEffectCleanupRunsBeforeRerunAndOnDispose(t *testing.T) {
	w := reactive.NewWatcher()
	s := scheduler.New()
	cell := reactive.NewCell(0)

	var trace []string
	e := NewEffect(w, s, func() Cleanup {
		cell.Get()
		trace = append(trace, "run")
		return func() {
			trace = append(trace, "cleanup")
		}
	})

	cell.Set(1)
	s.Flush()
	e.Dispose()

	want := []string{"run", "cleanup", "run", "cleanup"}
	if len(trace) != len(want) {
		t.Fatalf("expected %v, got %v", want, trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, trace)
		}
	}
}

func TestEffectNeverFiresAfterDispose(t *testing.T) {
	w := reactive.NewWatcher()
	s := scheduler.New()
	cell := reactive.NewCell(0)

	var runs int
	e := NewEffect(w, s, func() Cleanup {
		cell.Get()
		runs++
		return nil
	})

	// Invalidate so a re-run is already queued, then dispose before flush.
	cell.Set(1)
	e.Dispose()
	s.Flush()

	if runs != 1 {
		t.Errorf("disposed effect fired: %d runs", runs)
	}

	cell.Set(2)
	s.Flush()
	if runs != 1 {
		t.Errorf("disposed effect re-subscribed: %d runs", runs)
	}
}

func TestEffectRetracksDependencies(t *testing.T) {
	w := reactive.NewWatcher()
	s := scheduler.New()
	toggle := reactive.NewCell(true)
	a := reactive.NewCell("a")
	b := reactive.NewCell("b")

	var runs int
	NewEffect(w, s, func() Cleanup {
		if toggle.Get() {
			a.Get()
		} else {
			b.Get()
		}
		runs++
		return nil
	})

	toggle.Set(false)
	s.Flush()
	if runs != 2 {
		t.Fatalf("expected 2 runs after toggle, got %d", runs)
	}

	// a is no longer a dependency.
	a.Set("a2")
	s.Flush()
	if runs != 2 {
		t.Errorf("write to dropped dependency re-ran the effect: %d", runs)
	}

	b.Set("b2")
	s.Flush()
	if runs != 3 {
		t.Errorf("write to live dependency did not re-run the effect: %d", runs)
	}
}
