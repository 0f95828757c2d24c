package friends

import "errors"

// Sentinel errors for the friend-request workflow.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrSelfReference indicates a friend request targeting its own sender.
	ErrSelfReference = errors.New("cannot send a friend request to yourself")

	// ErrAlreadyLinked indicates an edge already exists between the pair,
	// pending or accepted.
	ErrAlreadyLinked = errors.New("already friends or request pending")

	// ErrNoPendingRequest indicates a response to a request that does not
	// exist with that origin.
	ErrNoPendingRequest = errors.New("no pending friend request from this user")
)
