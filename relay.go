// Package relay implements the connection-state and event-routing engine
// of a two-party chat product: the binding from a user identity to its
// single live transport session, friendship-driven presence fan-out,
// point-to-point message routing, and call signaling relay.
//
// Example:
//
//	store, err := directory.OpenSQLite("relay.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	core := relay.New(store)
//
//	core.Attach(userID, handle)
//	defer core.Detach(userID)
//
//	if err := core.HandleEvent(userID, ev); err != nil {
//	    // surface as an error event to the initiating session
//	}
package relay

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ovachat/relay/auth"
	"github.com/ovachat/relay/directory"
	"github.com/ovachat/relay/event"
	"github.com/ovachat/relay/friends"
	"github.com/ovachat/relay/presence"
	"github.com/ovachat/relay/routing"
	"github.com/ovachat/relay/signaling"
)

// ErrUnknownProfileField indicates an update_profile event naming a field
// the core does not manage.
var ErrUnknownProfileField = errors.New("unknown profile field")

// Core wires the relay components together and dispatches session events
// to them. All methods are safe for concurrent use; every session's
// inbound events may arrive on an independent goroutine.
type Core struct {
	store       directory.Store
	registry    *presence.Registry
	broadcaster *presence.Broadcaster
	router      *routing.Router
	workflow    *friends.Workflow
	calls       *signaling.Manager
	accounts    *auth.Service
}

// New creates a relay core over the given directory store.
func New(store directory.Store) *Core {
	registry := presence.NewRegistry()
	broadcaster := presence.NewBroadcaster(registry, store)

	return &Core{
		store:       store,
		registry:    registry,
		broadcaster: broadcaster,
		router:      routing.NewRouter(store, registry),
		workflow:    friends.NewWorkflow(store, registry, broadcaster),
		calls:       signaling.NewManager(registry),
		accounts:    auth.NewService(store),
	}
}

// Registry returns the session registry.
func (c *Core) Registry() *presence.Registry {
	return c.registry
}

// Accounts returns the credential collaborator.
func (c *Core) Accounts() *auth.Service {
	return c.accounts
}

// Calls returns the call signaling manager.
func (c *Core) Calls() *signaling.Manager {
	return c.calls
}

// Attach records the handle as userID's live session, broadcasts the
// online transition to accepted friends, pushes the friend list to the
// new session, and re-surfaces pending friend requests received while
// the user was offline.
func (c *Core) Attach(userID int64, handle presence.Handle) {
	c.registry.Attach(userID, handle)
	c.broadcaster.BroadcastAttach(userID)
	c.workflow.ResurfacePending(userID)
}

// Detach removes userID's session if present, sweeps any live call
// naming them, and broadcasts the offline transition. Idempotent: a
// second detach is a no-op with no duplicate broadcast.
func (c *Core) Detach(userID int64) {
	if !c.registry.Detach(userID) {
		return
	}
	c.calls.SweepUser(userID)
	c.broadcaster.BroadcastDetach(userID)
}

// DetachHandle detaches only if handleID is still userID's current
// session, so a displaced transport unwinding late cannot evict its
// replacement.
func (c *Core) DetachHandle(userID int64, handleID string) {
	if !c.registry.DetachHandle(userID, handleID) {
		return
	}
	c.calls.SweepUser(userID)
	c.broadcaster.BroadcastDetach(userID)
}

// HandleEvent dispatches one decoded client event on behalf of userID.
// Replies addressed to the initiator are pushed to their session here;
// the returned error is surfaced to the initiating session only.
func (c *Core) HandleEvent(userID int64, ev event.Event) error {
	switch e := ev.(type) {
	case *event.AddFriend:
		return c.workflow.RequestFriend(userID, e.Username)

	case *event.RespondToFriendRequest:
		return c.workflow.RespondToRequest(userID, e.RequesterID, e.Accept)

	case *event.SendMessage:
		_, err := c.router.SendMessage(userID, e.ReceiverID, e.Content, e.Kind)
		return err

	case *event.RequestChatHistory:
		messages, err := c.router.FetchHistory(userID, e.FriendID)
		if err != nil {
			return err
		}
		c.push(userID, &event.ChatHistory{FriendID: e.FriendID, Messages: messages})
		return nil

	case *event.TypingStart:
		c.router.RelayTyping(userID, e.ReceiverID, true)
		return nil

	case *event.TypingStop:
		c.router.RelayTyping(userID, e.ReceiverID, false)
		return nil

	case *event.ShareStatus:
		_, err := c.router.ShareStatus(userID, e.Content)
		return err

	case *event.UpdateProfile:
		return c.updateProfile(userID, e)

	case *event.CallUser:
		return c.calls.Initiate(userID, e.To, e.Payload)

	case *event.CallAnswer:
		return c.calls.Answer(userID, e.To, e.Payload)

	case *event.IceCandidate:
		c.calls.RelayIceCandidate(userID, e.To, e.Payload)
		return nil

	case *event.EndCall:
		return c.calls.Terminate(userID, e.To)

	default:
		return fmt.Errorf("%w: %s", event.ErrUnknownEvent, ev.EventName())
	}
}

func (c *Core) updateProfile(userID int64, e *event.UpdateProfile) error {
	switch e.Field {
	case "nickname":
		if err := c.store.UpdateNickname(userID, e.Value); err != nil {
			return fmt.Errorf("failed to update nickname: %w", err)
		}
	case "description":
		if err := c.store.UpdateDescription(userID, e.Value); err != nil {
			return fmt.Errorf("failed to update description: %w", err)
		}
	case "password":
		if err := c.accounts.ChangePassword(userID, e.OldPassword, e.NewPassword); err != nil {
			return err
		}
		c.push(userID, &event.ProfileUpdated{Field: e.Field})
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProfileField, e.Field)
	}

	c.push(userID, &event.ProfileUpdated{Field: e.Field, Value: e.Value})
	return nil
}

func (c *Core) push(userID int64, ev event.Event) {
	handle, ok := c.registry.Lookup(userID)
	if !ok {
		return
	}
	if err := handle.Deliver(ev); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "push",
			"user_id":  userID,
			"event":    ev.EventName(),
			"error":    err,
		}).Debug("Reply delivery dropped")
	}
}
