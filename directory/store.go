package directory

// UserStore is the user-record contract consumed by the auth collaborator
// and the presence/friend layers.
type UserStore interface {
	// CreateUser inserts a new user. Returns ErrUsernameTaken when the
	// username is already registered.
	CreateUser(username, passwordHash, nickname string) (*User, error)

	// UserByID returns the full user record, or ErrNotFound.
	UserByID(id int64) (*User, error)

	// UserByUsername returns the full user record, or ErrNotFound.
	UserByUsername(username string) (*User, error)

	// UpdateNickname sets the user's display name.
	UpdateNickname(id int64, nickname string) error

	// UpdateDescription sets the user's profile description.
	UpdateDescription(id int64, description string) error

	// UpdateProfilePic sets the user's avatar reference.
	UpdateProfilePic(id int64, ref string) error

	// UpdatePasswordHash replaces the stored credential hash.
	UpdatePasswordHash(id int64, hash string) error
}

// FriendStore is the friendship-graph contract consumed by the friend
// workflow and the presence broadcaster.
type FriendStore interface {
	// FriendEdge returns the edge between the unordered pair (a, b),
	// or ErrNotFound when no edge exists in either status.
	FriendEdge(a, b int64) (*FriendEdge, error)

	// InsertPendingEdge records a new pending edge originated by requester.
	// Returns ErrEdgeExists when any edge already links the pair.
	InsertPendingEdge(requester, target int64) error

	// AcceptEdge transitions the pending edge (requester → target) to
	// accepted. Returns ErrNotFound when no such pending edge exists.
	AcceptEdge(requester, target int64) error

	// DeletePendingEdge removes the pending edge originated by requester
	// toward target. Returns ErrNotFound when no such pending edge
	// exists; an accepted edge is never deleted through this path.
	DeletePendingEdge(requester, target int64) error

	// AcceptedFriends returns the public profiles of every user linked to
	// userID by an accepted edge, ordered by username.
	AcceptedFriends(userID int64) ([]Profile, error)

	// PendingRequestsFor returns the public profiles of users with an
	// outstanding pending request toward userID, oldest first.
	PendingRequestsFor(userID int64) ([]Profile, error)
}

// MessageStore is the message-log contract consumed by the router.
type MessageStore interface {
	// InsertMessage persists a new message and returns the stored record,
	// including the authoritative id and timestamp.
	InsertMessage(senderID, receiverID int64, content string, kind MessageKind) (*Message, error)

	// MessagesBetween returns every message exchanged between the two
	// identities, in either direction, ordered by creation time ascending
	// with ties broken by insertion order.
	MessagesBetween(a, b int64) ([]Message, error)
}

// StatusStore is the status-post contract consumed by the router.
type StatusStore interface {
	// InsertStatusPost persists a new status post for the user.
	InsertStatusPost(userID int64, content string) (*StatusPost, error)
}

// Store is the full directory contract.
type Store interface {
	UserStore
	FriendStore
	MessageStore
	StatusStore

	Close() error
}
