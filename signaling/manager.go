package signaling

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ovachat/relay/event"
	"github.com/ovachat/relay/presence"
)

// Manager tracks every live call attempt and relays signaling traffic
// between the two parties' sessions.
type Manager struct {
	registry *presence.Registry

	mu    sync.Mutex
	calls map[pairKey]*Call
}

// NewManager creates a call signaling manager over the given registry.
func NewManager(registry *presence.Registry) *Manager {
	return &Manager{
		registry: registry,
		calls:    make(map[pairKey]*Call),
	}
}

// Initiate creates a ringing call from caller to callee and relays the
// opaque offer to the callee's session. The callee must be reachable at
// initiation time or no state is created.
func (m *Manager) Initiate(callerID, calleeID int64, offer json.RawMessage) error {
	handle, ok := m.registry.Lookup(calleeID)
	if !ok {
		return ErrPeerUnreachable
	}

	key := pairKey{caller: callerID, callee: calleeID}

	m.mu.Lock()
	if existing, ok := m.calls[key]; ok && existing.Phase != PhaseEnded {
		m.mu.Unlock()
		return ErrAlreadyInCall
	}
	m.calls[key] = &Call{
		CallerID:  callerID,
		CalleeID:  calleeID,
		Phase:     PhaseRinging,
		StartedAt: time.Now(),
	}
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Initiate",
		"caller_id": callerID,
		"callee_id": calleeID,
	}).Info("Call ringing")

	if err := handle.Deliver(&event.CallOffer{From: callerID, Payload: offer}); err != nil {
		// The callee dropped between lookup and delivery; the ringing
		// session stays until Terminate or the detach sweep reaps it.
		logrus.WithFields(logrus.Fields{
			"function":  "Initiate",
			"callee_id": calleeID,
			"error":     err,
		}).Debug("Offer delivery dropped")
	}
	return nil
}

// Answer transitions the ringing call (callerID → calleeID) to answered
// and relays the opaque answer back to the caller. A caller that has
// since disconnected fails the relay silently; the session is left for
// Terminate or the detach sweep.
func (m *Manager) Answer(calleeID, callerID int64, answer json.RawMessage) error {
	key := pairKey{caller: callerID, callee: calleeID}

	m.mu.Lock()
	call, ok := m.calls[key]
	if !ok || call.Phase != PhaseRinging {
		m.mu.Unlock()
		return ErrInvalidState
	}
	call.Phase = PhaseAnswered
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Answer",
		"caller_id": callerID,
		"callee_id": calleeID,
	}).Info("Call answered")

	handle, ok := m.registry.Lookup(callerID)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function":  "Answer",
			"caller_id": callerID,
		}).Debug("Caller gone before answer relay")
		return nil
	}
	if err := handle.Deliver(&event.CallAnswered{From: calleeID, Payload: answer}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "Answer",
			"caller_id": callerID,
			"error":     err,
		}).Debug("Answer delivery dropped")
	}
	return nil
}

// RelayIceCandidate forwards one opaque candidate from fromID to toID if
// a call in Ringing, Answered or Active links the pair and the recipient
// is reachable; anything else drops the candidate. A candidate arriving
// after the answer promotes the call to Active.
func (m *Manager) RelayIceCandidate(fromID, toID int64, candidate json.RawMessage) {
	m.mu.Lock()
	call := m.findLocked(fromID, toID)
	if call == nil || call.Phase == PhaseEnded {
		m.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function": "RelayIceCandidate",
			"from_id":  fromID,
			"to_id":    toID,
		}).Debug("Candidate dropped without a live call")
		return
	}
	if call.Phase == PhaseAnswered {
		call.Phase = PhaseActive
	}
	m.mu.Unlock()

	handle, ok := m.registry.Lookup(toID)
	if !ok {
		return
	}
	if err := handle.Deliver(&event.IceCandidateRelay{From: fromID, Payload: candidate}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "RelayIceCandidate",
			"to_id":    toID,
			"error":    err,
		}).Debug("Candidate delivery dropped")
	}
}

// Terminate ends the call linking fromID and toID from any phase, relays
// an end-call signal to the other party if reachable, and discards the
// call session. Referencing a call that does not exist is an error.
func (m *Manager) Terminate(fromID, toID int64) error {
	m.mu.Lock()
	call := m.findLocked(fromID, toID)
	if call == nil {
		m.mu.Unlock()
		return ErrInvalidState
	}
	call.Phase = PhaseEnded
	delete(m.calls, pairKey{caller: call.CallerID, callee: call.CalleeID})
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":  "Terminate",
		"caller_id": call.CallerID,
		"callee_id": call.CalleeID,
		"by":        fromID,
	}).Info("Call ended")

	m.pushEnd(toID, fromID)
	return nil
}

// SweepUser terminates every call naming userID, notifying the other
// party. Invoked when a session detaches while calls referencing it are
// still live.
func (m *Manager) SweepUser(userID int64) {
	m.mu.Lock()
	var peers []int64
	for key, call := range m.calls {
		if call.Involves(userID) {
			call.Phase = PhaseEnded
			delete(m.calls, key)
			peers = append(peers, call.PeerOf(userID))
		}
	}
	m.mu.Unlock()

	for _, peerID := range peers {
		m.pushEnd(peerID, userID)
	}

	if len(peers) > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "SweepUser",
			"user_id":  userID,
			"calls":    len(peers),
		}).Info("Swept live calls after detach")
	}
}

// ActiveCalls returns the number of tracked call sessions.
func (m *Manager) ActiveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Phase returns the phase of the call for the ordered (caller, callee)
// pair, if one is tracked.
func (m *Manager) Phase(callerID, calleeID int64) (Phase, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call, ok := m.calls[pairKey{caller: callerID, callee: calleeID}]
	if !ok {
		return PhaseEnded, false
	}
	return call.Phase, true
}

// findLocked returns the call linking the two identities in either
// orientation. Caller must hold m.mu.
func (m *Manager) findLocked(a, b int64) *Call {
	if call, ok := m.calls[pairKey{caller: a, callee: b}]; ok {
		return call
	}
	if call, ok := m.calls[pairKey{caller: b, callee: a}]; ok {
		return call
	}
	return nil
}

func (m *Manager) pushEnd(toID, fromID int64) {
	handle, ok := m.registry.Lookup(toID)
	if !ok {
		return
	}
	if err := handle.Deliver(&event.EndCallSignal{From: fromID}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "pushEnd",
			"to_id":    toID,
			"error":    err,
		}).Debug("End-call delivery dropped")
	}
}
