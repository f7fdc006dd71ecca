package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for one goroutine. Each goroutine
// gets its own context so cells can be read from a session loop and from test
// goroutines without cross-talk.
type trackingContext struct {
	// current is the computation currently tracking dependencies.
	// nil means reads do not create subscriptions.
	current *Computation
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// goroutineID extracts the current goroutine's ID from the runtime stack
// header ("goroutine <id> ..."). Implementation detail; never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current goroutine,
// creating it on first use.
func getTrackingContext() *trackingContext {
	gid := goroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// currentComputation returns the computation currently tracking reads,
// or nil if no tracking is active.
func currentComputation() *Computation {
	return getTrackingContext().current
}

// setCurrentComputation installs c as the tracking computation and returns
// the previous one so it can be restored.
func setCurrentComputation(c *Computation) *Computation {
	ctx := getTrackingContext()
	old := ctx.current
	ctx.current = c
	return old
}

// Untracked runs fn without tracking cell reads as dependencies.
// For single reads, Cell.Peek is clearer and cheaper.
func Untracked(fn func()) {
	old := setCurrentComputation(nil)
	defer setCurrentComputation(old)
	fn()
}
