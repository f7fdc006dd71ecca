// Package render turns declarative instruction trees into live document
// nodes and keeps them incrementally updated as reactive state changes.
//
// Three pieces cooperate: the effect bridge (Effect) turns callbacks that
// read reactive cells into tracked computations re-run on invalidation; the
// renderer (Renderer) materializes instructions into nodes, memoizing
// dynamic materialization in an arena table keyed by instruction handle; and
// the binding handlers translate each reactive coupling into scheduled
// document mutations, including keyed-list and conditional reconciliation.
//
// All observable document mutation is deferred through the scheduler: an
// effect run computes the desired state and schedules a task, and the flush
// applies it. Mounting, disposing, and flushing belong to a single goroutine
// per document.
package render
