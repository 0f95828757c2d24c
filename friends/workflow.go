package friends

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ovachat/relay/directory"
	"github.com/ovachat/relay/event"
	"github.com/ovachat/relay/presence"
)

// Store is the slice of the directory the workflow needs.
type Store interface {
	directory.UserStore
	directory.FriendStore
}

// Workflow drives friendship-edge transitions and their notifications.
type Workflow struct {
	store       Store
	registry    *presence.Registry
	broadcaster *presence.Broadcaster
}

// NewWorkflow creates a workflow over the given store, registry and
// broadcaster.
func NewWorkflow(store Store, registry *presence.Registry, broadcaster *presence.Broadcaster) *Workflow {
	return &Workflow{
		store:       store,
		registry:    registry,
		broadcaster: broadcaster,
	}
}

// RequestFriend resolves targetUsername and inserts a pending edge
// originated by requesterID. If the target has a live session they are
// notified with the requester's public profile; if not, the pending edge
// is re-surfaced on their next attach.
func (w *Workflow) RequestFriend(requesterID int64, targetUsername string) error {
	target, err := w.store.UserByUsername(targetUsername)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return directory.ErrNotFound
		}
		return fmt.Errorf("failed to resolve username: %w", err)
	}

	if target.ID == requesterID {
		return ErrSelfReference
	}

	if err := w.store.InsertPendingEdge(requesterID, target.ID); err != nil {
		if errors.Is(err, directory.ErrEdgeExists) {
			return ErrAlreadyLinked
		}
		return fmt.Errorf("failed to record friend request: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "RequestFriend",
		"requester_id": requesterID,
		"target_id":    target.ID,
	}).Info("Friend request recorded")

	w.notifyRequest(requesterID, target.ID)
	return nil
}

// notifyRequest pushes the requester's profile to the target's session if
// one is live. A directory failure here degrades to skipping the
// notification; the pending edge is already durable.
func (w *Workflow) notifyRequest(requesterID, targetID int64) {
	handle, ok := w.registry.Lookup(targetID)
	if !ok {
		return
	}

	requester, err := w.store.UserByID(requesterID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":     "notifyRequest",
			"requester_id": requesterID,
			"error":        err,
		}).Warn("Skipping friend request notification after directory failure")
		return
	}

	if err := handle.Deliver(&event.FriendRequestReceived{Profile: requester.Profile()}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "notifyRequest",
			"target_id": targetID,
			"error":     err,
		}).Debug("Friend request push dropped")
	}
}

// RespondToRequest resolves a pending edge originated by requesterID
// toward responderID. On accept the edge becomes accepted and both
// parties' friend lists are recomputed and pushed to whichever of the two
// is online. On reject the pending edge is deleted; an edge in any other
// status makes the response fail with ErrNoPendingRequest.
func (w *Workflow) RespondToRequest(responderID, requesterID int64, accept bool) error {
	if !accept {
		// Only a pending edge may be rejected; an accepted friendship
		// must survive a stray reject.
		if err := w.store.DeletePendingEdge(requesterID, responderID); err != nil {
			if errors.Is(err, directory.ErrNotFound) {
				return ErrNoPendingRequest
			}
			return fmt.Errorf("failed to delete friend request: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"function":     "RespondToRequest",
			"requester_id": requesterID,
			"responder_id": responderID,
		}).Info("Friend request rejected")
		return nil
	}

	if err := w.store.AcceptEdge(requesterID, responderID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return ErrNoPendingRequest
		}
		return fmt.Errorf("failed to accept friend request: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "RespondToRequest",
		"requester_id": requesterID,
		"responder_id": responderID,
	}).Info("Friend request accepted")

	// Each party's list push is independent; an offline party simply
	// loads the new list on next attach.
	w.broadcaster.PushFriendList(requesterID)
	w.broadcaster.PushFriendList(responderID)
	return nil
}

// ResurfacePending pushes every outstanding pending request targeting
// userID to their session, oldest first. Called on attach so requests
// received while offline are not lost.
func (w *Workflow) ResurfacePending(userID int64) {
	handle, ok := w.registry.Lookup(userID)
	if !ok {
		return
	}

	requesters, err := w.store.PendingRequestsFor(userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ResurfacePending",
			"user_id":  userID,
			"error":    err,
		}).Warn("Skipping pending request resurfacing after directory failure")
		return
	}

	for _, profile := range requesters {
		if err := handle.Deliver(&event.FriendRequestReceived{Profile: profile}); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ResurfacePending",
				"user_id":  userID,
				"error":    err,
			}).Debug("Pending request push dropped")
			return
		}
	}

	if len(requesters) > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "ResurfacePending",
			"user_id":  userID,
			"requests": len(requesters),
		}).Debug("Pending friend requests re-surfaced")
	}
}
