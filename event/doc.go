// Package event defines the tagged event variants exchanged over a
// session's bidirectional channel, in both directions, together with the
// JSON envelope codec used at the transport boundary.
//
// Every payload has a fixed schema; the gateway validates incoming
// envelopes against these types instead of passing opaque structures
// through the core.
package event
