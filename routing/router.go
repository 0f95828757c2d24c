package routing

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ovachat/relay/directory"
	"github.com/ovachat/relay/event"
	"github.com/ovachat/relay/presence"
)

// Store is the slice of the directory the router needs.
type Store interface {
	directory.UserStore
	directory.FriendStore
	directory.MessageStore
	directory.StatusStore
}

// Router looks recipients up in the session registry and delivers events
// to the right live sessions, persisting where the contract requires it.
type Router struct {
	store    Store
	registry *presence.Registry
}

// NewRouter creates a router over the given store and registry.
func NewRouter(store Store, registry *presence.Registry) *Router {
	return &Router{
		store:    store,
		registry: registry,
	}
}

// SendMessage validates and persists a message, then delivers it to the
// receiver's live session if present and always echoes the stored record
// back to the sender's own session. Persistence failure aborts the whole
// operation; no delivery is attempted.
func (r *Router) SendMessage(senderID, receiverID int64, content string, kind directory.MessageKind) (*directory.Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if kind == "" {
		kind = directory.KindText
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	msg, err := r.store.InsertMessage(senderID, receiverID, content, kind)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "SendMessage",
			"sender_id":   senderID,
			"receiver_id": receiverID,
			"error":       err,
		}).Error("Message persistence failed")
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	// Delivery to an absent receiver is not queued; the stored row is the
	// only copy and history fetch is the recovery path.
	r.push(receiverID, &event.NewMessage{Message: *msg})
	r.push(senderID, &event.NewMessage{Message: *msg})

	logrus.WithFields(logrus.Fields{
		"function":    "SendMessage",
		"message_id":  msg.ID,
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"kind":        msg.Kind,
	}).Debug("Message routed")

	return msg, nil
}

// FetchHistory returns the full message history between the two
// identities, ascending by creation time.
func (r *Router) FetchHistory(userID, peerID int64) ([]directory.Message, error) {
	messages, err := r.store.MessagesBetween(userID, peerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return messages, nil
}

// RelayTyping forwards a typing transition to the receiver if online.
// Best-effort: nothing is persisted and an offline receiver drops it.
func (r *Router) RelayTyping(senderID, receiverID int64, isTyping bool) {
	r.push(receiverID, &event.DisplayTyping{SenderID: senderID, IsTyping: isTyping})
}

// ShareStatus persists a status post and fans it out to every accepted
// friend with a live session. Friends attaching later never see it.
func (r *Router) ShareStatus(userID int64, content string) (*directory.StatusPost, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	post, err := r.store.InsertStatusPost(userID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to persist status post: %w", err)
	}

	author, err := r.store.UserByID(userID)
	if err != nil {
		// The post is stored; fan-out degrades to nothing.
		logrus.WithFields(logrus.Fields{
			"function": "ShareStatus",
			"user_id":  userID,
			"error":    err,
		}).Warn("Skipping status fan-out after directory failure")
		return post, nil
	}

	friends, err := r.store.AcceptedFriends(userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ShareStatus",
			"user_id":  userID,
			"error":    err,
		}).Warn("Skipping status fan-out after directory failure")
		return post, nil
	}

	ev := &event.NewStatusUpdate{User: author.Profile(), Post: *post}
	for _, friend := range friends {
		r.push(friend.ID, ev)
	}

	logrus.WithFields(logrus.Fields{
		"function": "ShareStatus",
		"user_id":  userID,
		"post_id":  post.ID,
		"friends":  len(friends),
	}).Debug("Status post fanned out")

	return post, nil
}

// push delivers to the user's session if one is live; a missing session
// or a stale handle is a no-op.
func (r *Router) push(userID int64, ev event.Event) {
	handle, ok := r.registry.Lookup(userID)
	if !ok {
		return
	}
	if err := handle.Deliver(ev); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "push",
			"user_id":  userID,
			"event":    ev.EventName(),
			"error":    err,
		}).Debug("Delivery dropped on closed handle")
	}
}
