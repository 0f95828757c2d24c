package signaling

import "time"

// Phase represents the control-plane state of a call attempt.
type Phase uint8

const (
	// PhaseRinging means the offer was relayed and no answer arrived yet.
	PhaseRinging Phase = iota
	// PhaseAnswered means the answer was relayed back to the caller.
	PhaseAnswered
	// PhaseActive means candidate exchange continued past the answer.
	PhaseActive
	// PhaseEnded means the call was torn down; the session is discarded.
	PhaseEnded
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseRinging:
		return "ringing"
	case PhaseAnswered:
		return "answered"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Call is one ephemeral call attempt between an ordered pair of peers.
// It is never persisted; the manager's map is its only home.
type Call struct {
	CallerID  int64
	CalleeID  int64
	Phase     Phase
	StartedAt time.Time
}

// Involves reports whether the call names the given user on either side.
func (c *Call) Involves(userID int64) bool {
	return c.CallerID == userID || c.CalleeID == userID
}

// PeerOf returns the other party of the call relative to userID.
func (c *Call) PeerOf(userID int64) int64 {
	if c.CallerID == userID {
		return c.CalleeID
	}
	return c.CallerID
}

// pairKey identifies a call by its ordered (caller, callee) pair.
type pairKey struct {
	caller int64
	callee int64
}
