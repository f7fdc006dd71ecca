// Package dom implements the in-memory host document the renderer mutates:
// element, text, and comment nodes with stable IDs, attribute/class/style
// primitives, a live form value property, event listeners, deep cloning, and
// HTML serialization.
//
// A Document may carry a PatchSink; when set, every applied mutation emits
// exactly one protocol.Patch, which is how a live session streams updates to
// its thin client. The document is single-consumer: it is confined to one
// session loop and performs no internal locking.
package dom
