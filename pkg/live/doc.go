// Package live serves documents over WebSocket. Each session owns one
// document, one scheduler, and one renderer, all confined to the session's
// event loop goroutine: client events are dispatched to node handlers, the
// resulting reactive updates flush through the scheduler, and the patches
// the document emits during a flush stream to the thin client as one
// sequence-numbered binary frame.
//
// The HTTP surface is a chi router with the WebSocket endpoint, a health
// check, Prometheus metrics, and an HTML snapshot export.
package live
