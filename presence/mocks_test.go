package presence

import (
	"errors"
	"sync"

	"github.com/ovachat/relay/directory"
	"github.com/ovachat/relay/event"
)

// stubHandle records delivered events for assertions.
type stubHandle struct {
	id string

	mu        sync.Mutex
	delivered []event.Event
	closed    bool
}

func newStubHandle(id string) *stubHandle {
	return &stubHandle{id: id}
}

func (h *stubHandle) ID() string { return h.id }

func (h *stubHandle) Deliver(ev event.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New("handle closed")
	}
	h.delivered = append(h.delivered, ev)
	return nil
}

func (h *stubHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *stubHandle) events() []event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]event.Event, len(h.delivered))
	copy(out, h.delivered)
	return out
}

func (h *stubHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// stubFriendStore serves a fixed accepted-friend graph.
type stubFriendStore struct {
	accepted map[int64][]directory.Profile
	pending  map[int64][]directory.Profile
	err      error
}

func (s *stubFriendStore) AcceptedFriends(userID int64) ([]directory.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.accepted[userID], nil
}

func (s *stubFriendStore) PendingRequestsFor(userID int64) ([]directory.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pending[userID], nil
}

func (s *stubFriendStore) FriendEdge(a, b int64) (*directory.FriendEdge, error) {
	return nil, directory.ErrNotFound
}

func (s *stubFriendStore) InsertPendingEdge(requester, target int64) error { return nil }

func (s *stubFriendStore) AcceptEdge(requester, target int64) error { return nil }

func (s *stubFriendStore) DeletePendingEdge(requester, target int64) error { return nil }

func profile(id int64, username string) directory.Profile {
	return directory.Profile{ID: id, Username: username, Nickname: username}
}
