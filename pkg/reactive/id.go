package reactive

import "sync/atomic"

// globalIDCounter is the source of unique IDs for all reactive primitives
// and render instructions. Atomic so ID generation needs no locks.
var globalIDCounter uint64

// NextID returns the next unique ID. IDs are monotonically increasing and
// never reused for the lifetime of the process.
func NextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
