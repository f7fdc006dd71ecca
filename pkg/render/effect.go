package render

import (
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/scheduler"
)

// Cleanup is an optional teardown returned by an effect callback. A nil
// Cleanup means the run has nothing to tear down.
type Cleanup func()

// Effect bridges a side-effecting callback into the reactive graph. The
// callback's cell reads are tracked; when any of them changes, the effect's
// own task is scheduled and the next flush re-runs the callback, invoking
// the previous run's cleanup first.
//
// Invalidation never re-runs synchronously. Many simultaneous invalidations
// across many effects coalesce into one flush pass.
type Effect struct {
	watcher *reactive.Watcher
	comp    *reactive.Computation
	task    *scheduler.Task

	fn      func() Cleanup
	cleanup Cleanup

	disposed bool
}

// NewEffect registers fn as a tracked effect and runs it once synchronously
// to establish the initial dependency set. Document writes inside fn must go
// through the scheduler, so the initial run computes state and queues
// mutations rather than applying them inline.
func NewEffect(w *reactive.Watcher, s *scheduler.Scheduler, fn func() Cleanup) *Effect {
	e := &Effect{watcher: w, fn: fn}
	e.task = scheduler.NewTask(e.rerun)
	e.comp = reactive.NewComputation(func() {
		s.Schedule(e.task)
	})
	w.Watch(e.comp)
	e.rerun()
	return e
}

// rerun applies one evaluation cycle: previous cleanup, then the callback,
// capturing the new cleanup.
func (e *Effect) rerun() {
	if e.disposed {
		return
	}
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.comp.Run(func() {
		e.cleanup = e.fn()
	})
}

// Dispose unregisters the effect and runs its final cleanup. The callback
// never fires afterwards, even if a re-run was already queued.
func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true

	e.task.Cancel()
	e.watcher.Unwatch(e.comp)
	e.comp.Release()

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}
