package presence

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ovachat/relay/event"
)

// Handle is one live transport session bound to a user identity.
// Deliver pushes a single event to the session's outbound channel;
// a closed handle returns an error which callers treat as a no-op.
type Handle interface {
	// ID returns the unique identifier of this transport session,
	// used to tell a stale handle apart from its replacement.
	ID() string

	// Deliver pushes one event to the session.
	Deliver(ev event.Event) error

	// Close shuts the session's transport down. Idempotent.
	Close() error
}

// Registry is the in-memory mapping from user identity to the single live
// session handle. It holds no business logic; it is the mutual-exclusion
// point for "who is online". Reads are concurrent, writes exclusive.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]Handle
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]Handle),
	}
}

// Attach records handle as the live session for userID. If a session
// already exists it is replaced and the displaced handle is closed so its
// transport can unwind; the registry never delivers to it again.
func (r *Registry) Attach(userID int64, handle Handle) {
	r.mu.Lock()
	prior, displaced := r.sessions[userID]
	r.sessions[userID] = handle
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Attach",
		"user_id":   userID,
		"handle_id": handle.ID(),
		"displaced": displaced,
	}).Info("Session attached")

	if displaced && prior.ID() != handle.ID() {
		if err := prior.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":  "Attach",
				"user_id":   userID,
				"handle_id": prior.ID(),
				"error":     err,
			}).Warn("Failed to close displaced session handle")
		}
	}
}

// Detach removes the mapping for userID if present. Calling it for an
// absent user is a no-op. Returns whether a session was actually removed,
// so callers can suppress duplicate offline broadcasts.
func (r *Registry) Detach(userID int64) bool {
	r.mu.Lock()
	_, present := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if present {
		logrus.WithFields(logrus.Fields{
			"function": "Detach",
			"user_id":  userID,
		}).Info("Session detached")
	}
	return present
}

// DetachHandle removes the mapping only if the given handle is still the
// current session for userID. A displaced handle unwinding late must not
// evict its replacement.
func (r *Registry) DetachHandle(userID int64, handleID string) bool {
	r.mu.Lock()
	current, present := r.sessions[userID]
	if present && current.ID() == handleID {
		delete(r.sessions, userID)
		r.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function":  "DetachHandle",
			"user_id":   userID,
			"handle_id": handleID,
		}).Info("Session detached")
		return true
	}
	r.mu.Unlock()
	return false
}

// Lookup returns the live session handle for userID, if any.
func (r *Registry) Lookup(userID int64) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, ok := r.sessions[userID]
	return handle, ok
}

// IsOnline reports whether userID currently has a live session.
func (r *Registry) IsOnline(userID int64) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// OnlineCount returns the number of live sessions.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
