package routing

import (
	"errors"
	"sync"
	"time"

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

// memStore is an in-memory routing.Store with fail switches.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]*directory.User
	accepted map[int64][]directory.Profile
	messages []directory.Message
	posts    []directory.StatusPost
	nextID   int64

	failInserts bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*directory.User),
		accepted: make(map[int64][]directory.Profile),
		nextID:   1,
	}
}

func (s *memStore) addUser(id int64, username string) {
	s.users[id] = &directory.User{ID: id, Username: username, Nickname: username}
}

func (s *memStore) befriend(a, b int64) {
	s.accepted[a] = append(s.accepted[a], s.users[b].Profile())
	s.accepted[b] = append(s.accepted[b], s.users[a].Profile())
}

var errStoreDown = errors.New("store down")

func (s *memStore) InsertMessage(senderID, receiverID int64, content string, kind directory.MessageKind) (*directory.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInserts {
		return nil, errStoreDown
	}
	msg := directory.Message{
		ID:         s.nextID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Kind:       kind,
		CreatedAt:  time.Now().UTC(),
	}
	s.nextID++
	s.messages = append(s.messages, msg)
	return &msg, nil
}

func (s *memStore) MessagesBetween(a, b int64) ([]directory.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []directory.Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) InsertStatusPost(userID int64, content string) (*directory.StatusPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInserts {
		return nil, errStoreDown
	}
	post := directory.StatusPost{
		ID:        s.nextID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++
	s.posts = append(s.posts, post)
	return &post, nil
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
	return nil, directory.ErrNotFound
}

func (s *memStore) InsertPendingEdge(requester, target int64) error { return nil }

func (s *memStore) AcceptEdge(requester, target int64) error { return nil }

func (s *memStore) DeletePendingEdge(requester, target int64) error { return nil }

func (s *memStore) AcceptedFriends(userID int64) ([]directory.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted[userID], nil
}

func (s *memStore) PendingRequestsFor(userID int64) ([]directory.Profile, error) {
	return nil, nil
}
