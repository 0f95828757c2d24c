package directory

import "errors"

// Sentinel errors for directory operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrNotFound indicates the requested user or record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEdgeExists indicates a friendship edge already exists between
	// the pair, in either pending or accepted status.
	ErrEdgeExists = errors.New("friendship edge already exists")
)
