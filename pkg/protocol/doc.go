// Package protocol implements the binary wire format used to stream live
// document mutations to a thin client and to receive user events back.
//
// Everything is length-delimited varint encoding inside small framed
// messages: the server sends Patches frames (one per flush, sequence
// numbered), the client sends Event frames. The codec enforces allocation
// limits so a malicious peer cannot force huge allocations with a forged
// length prefix.
package protocol
