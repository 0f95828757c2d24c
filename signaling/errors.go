package signaling

import "errors"

// Sentinel errors for call signaling operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrPeerUnreachable indicates the callee has no live session at
	// initiation time. No call state is created.
	ErrPeerUnreachable = errors.New("peer is not reachable")

	// ErrAlreadyInCall indicates a non-ended call already exists for the
	// ordered (caller, callee) pair.
	ErrAlreadyInCall = errors.New("call already in progress with this peer")

	// ErrInvalidState indicates an operation that does not match the
	// call's current phase, or references a call that does not exist.
	ErrInvalidState = errors.New("no call in a valid state for this operation")
)
