package routing

import "errors"

// Sentinel errors for routing operations.
var (
	// ErrEmptyContent indicates a send with no content.
	ErrEmptyContent = errors.New("message content cannot be empty")

	// ErrInvalidKind indicates an unknown message kind.
	ErrInvalidKind = errors.New("invalid message kind")
)
