package friends

import (
	"errors"
	"sync"

	"github.com/ovachat/relay/directory"
	"github.com/ovachat/relay/event"
)

type stubHandle struct {
	id string

	mu        sync.Mutex
	delivered []event.Event
}

func newStubHandle(id string) *stubHandle {
	return &stubHandle{id: id}
}

func (h *stubHandle) ID() string { return h.id }

func (h *stubHandle) Deliver(ev event.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.delivered = append(h.delivered, ev)
	return nil
}

func (h *stubHandle) Close() error { return nil }

func (h *stubHandle) events() []event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]event.Event, len(h.delivered))
	copy(out, h.delivered)
	return out
}

type edgeKey struct {
	requester int64
	target    int64
}

// memStore is an in-memory friends.Store tracking edges by orientation.
type memStore struct {
	mu    sync.Mutex
	users map[int64]*directory.User
	edges map[edgeKey]directory.FriendStatus
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[int64]*directory.User),
		edges: make(map[edgeKey]directory.FriendStatus),
	}
}

func (s *memStore) addUser(id int64, username string) {
	s.users[id] = &directory.User{ID: id, Username: username, Nickname: username}
}

func (s *memStore) UserByID(id int64) (*directory.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return u, nil
}

func (s *memStore) UserByUsername(username string) (*directory.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (s *memStore) CreateUser(username, passwordHash, nickname string) (*directory.User, error) {
	return nil, errors.New("not implemented")
}

func (s *memStore) UpdateNickname(id int64, nickname string) error { return nil }

func (s *memStore) UpdateDescription(id int64, description string) error { return nil }

func (s *memStore) UpdateProfilePic(id int64, ref string) error { return nil }

func (s *memStore) UpdatePasswordHash(id int64, hash string) error { return nil }

func (s *memStore) FriendEdge(a, b int64) (*directory.FriendEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.edges[edgeKey{a, b}]; ok {
		return &directory.FriendEdge{Requester: a, Target: b, Status: status}, nil
	}
	if status, ok := s.edges[edgeKey{b, a}]; ok {
		return &directory.FriendEdge{Requester: b, Target: a, Status: status}, nil
	}
	return nil, directory.ErrNotFound
}

func (s *memStore) InsertPendingEdge(requester, target int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[edgeKey{requester, target}]; ok {
		return directory.ErrEdgeExists
	}
	if _, ok := s.edges[edgeKey{target, requester}]; ok {
		return directory.ErrEdgeExists
	}
	s.edges[edgeKey{requester, target}] = directory.FriendPending
	return nil
}

func (s *memStore) AcceptEdge(requester, target int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edges[edgeKey{requester, target}] != directory.FriendPending {
		return directory.ErrNotFound
	}
	s.edges[edgeKey{requester, target}] = directory.FriendAccepted
	return nil
}

func (s *memStore) DeletePendingEdge(requester, target int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edges[edgeKey{requester, target}] != directory.FriendPending {
		return directory.ErrNotFound
	}
	delete(s.edges, edgeKey{requester, target})
	return nil
}

func (s *memStore) AcceptedFriends(userID int64) ([]directory.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []directory.Profile
	for key, status := range s.edges {
		if status != directory.FriendAccepted {
			continue
		}
		switch userID {
		case key.requester:
			out = append(out, s.users[key.target].Profile())
		case key.target:
			out = append(out, s.users[key.requester].Profile())
		}
	}
	return out, nil
}

func (s *memStore) PendingRequestsFor(userID int64) ([]directory.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []directory.Profile
	for key, status := range s.edges {
		if status == directory.FriendPending && key.target == userID {
			out = append(out, s.users[key.requester].Profile())
		}
	}
	return out, nil
}
