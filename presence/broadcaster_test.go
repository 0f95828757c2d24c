package presence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovachat/relay/directory"
	"github.com/ovachat/relay/event"
)

func countStatusChanges(events []event.Event, userID int64, online bool) int {
	n := 0
	for _, ev := range events {
		if sc, ok := ev.(*event.FriendStatusChange); ok && sc.UserID == userID && sc.IsOnline == online {
			n++
		}
	}
	return n
}

func TestBroadcastAttachNotifiesOnlineFriendsExactlyOnce(t *testing.T) {
	registry := NewRegistry()
	store := &stubFriendStore{
		accepted: map[int64][]directory.Profile{
			1: {profile(2, "bob"), profile(3, "carol")},
		},
	}
	b := NewBroadcaster(registry, store)

	alice := newStubHandle("alice")
	bob := newStubHandle("bob")
	registry.Attach(1, alice)
	registry.Attach(2, bob)
	// carol (3) stays offline

	b.BroadcastAttach(1)

	assert.Equal(t, 1, countStatusChanges(bob.events(), 1, true),
		"online friend receives exactly one online transition")
	assert.Equal(t, 0, countStatusChanges(alice.events(), 1, true),
		"the attaching user is not notified about itself")
}

func TestBroadcastAttachPushesAnnotatedFriendList(t *testing.T) {
	registry := NewRegistry()
	store := &stubFriendStore{
		accepted: map[int64][]directory.Profile{
			1: {profile(2, "bob"), profile(3, "carol")},
		},
	}
	b := NewBroadcaster(registry, store)

	alice := newStubHandle("alice")
	registry.Attach(1, alice)
	registry.Attach(2, newStubHandle("bob"))

	b.BroadcastAttach(1)

	var list *event.FriendList
	for _, ev := range alice.events() {
		if fl, ok := ev.(*event.FriendList); ok {
			list = fl
		}
	}
	require.NotNil(t, list, "new session receives its friend list")
	require.Len(t, list.Friends, 2)
	assert.True(t, list.Friends[0].IsOnline, "bob is online")
	assert.False(t, list.Friends[1].IsOnline, "carol is offline")
}

func TestBroadcastDetachNotifiesOffline(t *testing.T) {
	registry := NewRegistry()
	store := &stubFriendStore{
		accepted: map[int64][]directory.Profile{
			1: {profile(2, "bob")},
		},
	}
	b := NewBroadcaster(registry, store)

	bob := newStubHandle("bob")
	registry.Attach(2, bob)

	b.BroadcastDetach(1)

	assert.Equal(t, 1, countStatusChanges(bob.events(), 1, false))
}

func TestBroadcastDegradesOnDirectoryFailure(t *testing.T) {
	registry := NewRegistry()
	store := &stubFriendStore{err: errors.New("directory down")}
	b := NewBroadcaster(registry, store)

	alice := newStubHandle("alice")
	registry.Attach(1, alice)

	// Must not panic or deliver anything; the attach itself survives.
	b.BroadcastAttach(1)
	assert.Empty(t, alice.events())
}
