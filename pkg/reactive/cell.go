package reactive

import (
	"reflect"
	"sync"
)

// cellBase provides type-erased subscriber management. It is embedded in
// Cell[T] and Computed[T] to share subscription logic.
type cellBase struct {
	id uint64

	// subs are the computations subscribed to this cell.
	subs []*Computation

	// subMu protects the subs slice.
	subMu sync.RWMutex
}

// subscribe adds a computation to this cell's subscribers.
// Deduplicates by ID to prevent double-subscription.
func (b *cellBase) subscribe(c *Computation) {
	if c == nil {
		return
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()

	cid := c.ID()
	for _, existing := range b.subs {
		if existing.ID() == cid {
			return
		}
	}

	b.subs = append(b.subs, c)
}

// unsubscribe removes a computation from this cell's subscribers.
func (b *cellBase) unsubscribe(c *Computation) {
	if c == nil {
		return
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()

	cid := c.ID()
	for i, existing := range b.subs {
		if existing.ID() == cid {
			// Swap with last element; subscriber order carries no meaning.
			b.subs[i] = b.subs[len(b.subs)-1]
			b.subs = b.subs[:len(b.subs)-1]
			return
		}
	}
}

// notifySubscribers marks every subscriber stale. Copy-before-notify so no
// lock is held while subscriber hooks run.
func (b *cellBase) notifySubscribers() {
	b.subMu.RLock()
	subs := make([]*Computation, len(b.subs))
	copy(subs, b.subs)
	b.subMu.RUnlock()

	for _, sub := range subs {
		sub.MarkStale()
	}
}

// track subscribes the current tracking computation, if any.
func (b *cellBase) track() {
	if c := currentComputation(); c != nil {
		b.subscribe(c)
		c.addSource(b)
	}
}

// Cell is a reactive value container. Reading a cell during a tracked
// computation subscribes that computation to change notifications.
type Cell[T any] struct {
	base cellBase

	// value is the current cell value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal decides whether a write changed the value.
	// nil uses default equality.
	equal func(T, T) bool
}

// NewCell creates a new cell with the given initial value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		base:  cellBase{id: NextID()},
		value: initial,
	}
}

// Get returns the current value and subscribes the current computation.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	value := c.value
	c.mu.RUnlock()

	// Track after releasing the value lock to prevent deadlock.
	c.base.track()

	return value
}

// Peek returns the current value without subscribing.
func (c *Cell[T]) Peek() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set updates the value and notifies subscribers if it changed.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	changed := !c.equals(c.value, value)
	if changed {
		c.value = value
	}
	c.mu.Unlock()

	if changed {
		c.base.notifySubscribers()
	}
}

// Update atomically reads and updates the value.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	oldValue := c.value
	newValue := fn(oldValue)
	changed := !c.equals(oldValue, newValue)
	if changed {
		c.value = newValue
	}
	c.mu.Unlock()

	if changed {
		c.base.notifySubscribers()
	}
}

// WithEquals configures a custom equality function and returns the cell.
// Useful where reflect.DeepEqual is too expensive or semantically wrong.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// ID returns the unique identifier for this cell.
func (c *Cell[T]) ID() uint64 {
	return c.base.id
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for the common comparable types and falls back to
// reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
