package presence

import (
	"github.com/sirupsen/logrus"

	"github.com/ovachat/relay/directory"
	"github.com/ovachat/relay/event"
)

// Broadcaster fans presence transitions out to accepted friends and pushes
// the annotated friend list to a newly attached session.
type Broadcaster struct {
	registry *Registry
	friends  directory.FriendStore
}

// NewBroadcaster creates a broadcaster over the given registry and
// friendship graph.
func NewBroadcaster(registry *Registry, friends directory.FriendStore) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		friends:  friends,
	}
}

// FriendList returns userID's accepted friends annotated with their
// current online state, computed live from the registry.
func (b *Broadcaster) FriendList(userID int64) ([]event.FriendEntry, error) {
	profiles, err := b.friends.AcceptedFriends(userID)
	if err != nil {
		return nil, err
	}

	entries := make([]event.FriendEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, event.FriendEntry{
			Profile:  p,
			IsOnline: b.registry.IsOnline(p.ID),
		})
	}
	return entries, nil
}

// PushFriendList recomputes userID's friend list and pushes it to their
// session if one is live. A directory failure degrades to skipping the
// push rather than propagating.
func (b *Broadcaster) PushFriendList(userID int64) {
	handle, ok := b.registry.Lookup(userID)
	if !ok {
		return
	}

	entries, err := b.FriendList(userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "PushFriendList",
			"user_id":  userID,
			"error":    err,
		}).Warn("Skipping friend list push after directory failure")
		return
	}

	if err := handle.Deliver(&event.FriendList{Friends: entries}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "PushFriendList",
			"user_id":  userID,
			"error":    err,
		}).Debug("Friend list push dropped")
	}
}

// BroadcastAttach notifies every online accepted friend that userID came
// online, and pushes the full friend list to the new session itself.
// Each push is delivered at most once per attach event.
func (b *Broadcaster) BroadcastAttach(userID int64) {
	b.broadcastTransition(userID, true)
	b.PushFriendList(userID)
}

// BroadcastDetach notifies every online accepted friend that userID went
// offline.
func (b *Broadcaster) BroadcastDetach(userID int64) {
	b.broadcastTransition(userID, false)
}

func (b *Broadcaster) broadcastTransition(userID int64, online bool) {
	profiles, err := b.friends.AcceptedFriends(userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "broadcastTransition",
			"user_id":  userID,
			"online":   online,
			"error":    err,
		}).Warn("Skipping presence broadcast after directory failure")
		return
	}

	notified := 0
	for _, p := range profiles {
		handle, ok := b.registry.Lookup(p.ID)
		if !ok {
			continue
		}
		ev := &event.FriendStatusChange{UserID: userID, IsOnline: online}
		if err := handle.Deliver(ev); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":  "broadcastTransition",
				"user_id":   userID,
				"friend_id": p.ID,
				"error":     err,
			}).Debug("Presence push dropped")
			continue
		}
		notified++
	}

	logrus.WithFields(logrus.Fields{
		"function": "broadcastTransition",
		"user_id":  userID,
		"online":   online,
		"friends":  len(profiles),
		"notified": notified,
	}).Debug("Presence transition broadcast")
}
