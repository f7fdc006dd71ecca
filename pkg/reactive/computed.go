package reactive

import (
	"sync"
	"sync/atomic"
)

// Computed is a derived cell: a cached computation that tracks its own
// dependencies. When any dependency changes the cached value is invalidated
// and the next Get recomputes it.
//
// Computeds are lazy: if several inputs change before a read, the value is
// recomputed once. They can themselves be subscribed to, so chains of
// derived values invalidate through.
type Computed[T any] struct {
	base cellBase

	// compute produces the derived value.
	compute func() T

	// value is the cached computed value.
	value   T
	valueMu sync.RWMutex

	// valid reports whether the cached value is current.
	valid atomic.Bool

	// comp tracks the cells read by compute.
	comp *Computation

	// computing guards against recursion through circular dependencies.
	computing atomic.Bool
}

// NewComputed creates a derived cell. The computation does not run until the
// first Get or Peek.
func NewComputed[T any](compute func() T) *Computed[T] {
	d := &Computed[T]{
		base:    cellBase{id: NextID()},
		compute: compute,
	}
	d.comp = NewComputation(d.invalidate)
	return d
}

// Get returns the derived value, recomputing if stale, and subscribes the
// current computation.
func (d *Computed[T]) Get() T {
	d.base.track()

	if !d.valid.Load() {
		d.recompute()
	}

	d.valueMu.RLock()
	value := d.value
	d.valueMu.RUnlock()
	return value
}

// Peek returns the derived value without subscribing. Still recomputes if
// the cached value is stale.
func (d *Computed[T]) Peek() T {
	if !d.valid.Load() {
		d.recompute()
	}
	d.valueMu.RLock()
	value := d.value
	d.valueMu.RUnlock()
	return value
}

// ID returns the unique identifier for this derived cell.
func (d *Computed[T]) ID() uint64 {
	return d.base.id
}

// Release detaches the derived cell from its inputs. Subsequent input
// changes no longer invalidate it.
func (d *Computed[T]) Release() {
	d.comp.Release()
}

// invalidate marks the cached value stale and propagates to subscribers.
func (d *Computed[T]) invalidate() {
	if d.valid.CompareAndSwap(true, false) {
		d.base.notifySubscribers()
	}
}

// recompute runs the computation and refreshes the cache.
func (d *Computed[T]) recompute() {
	if d.computing.Swap(true) {
		// Circular dependency; keep the stale value rather than recurse.
		return
	}
	defer d.computing.Store(false)

	var newValue T
	d.comp.Run(func() {
		newValue = d.compute()
	})

	d.valueMu.Lock()
	d.value = newValue
	d.valueMu.Unlock()

	d.valid.Store(true)
}
