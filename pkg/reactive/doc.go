// Package reactive provides the reactive primitives the rendering engine is
// built on: state cells, lazily derived cells, tracked computations, and a
// watcher that records which computations have stale inputs.
//
// Reading a cell during a tracked computation subscribes that computation to
// the cell. Writing a cell marks every subscribed computation stale; staleness
// is recorded in the computation's watcher and surfaced through the
// computation's onStale hook. Nothing in this package re-runs work on its
// own — draining and re-running is the caller's responsibility, which keeps
// scheduling policy out of the primitives.
package reactive
