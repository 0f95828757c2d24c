package directory

import "time"

// FriendStatus represents the lifecycle state of a friendship edge.
type FriendStatus string

const (
	// FriendPending means the edge was requested but not yet accepted.
	FriendPending FriendStatus = "pending"
	// FriendAccepted means both parties see each other in their friend lists.
	FriendAccepted FriendStatus = "accepted"
)

// MessageKind represents the payload kind of a stored message.
type MessageKind string

const (
	// KindText is a plain text message.
	KindText MessageKind = "text"
	// KindFile is a message whose content is an opaque file reference.
	KindFile MessageKind = "file"
)

// Valid reports whether the kind is one of the known message kinds.
func (k MessageKind) Valid() bool {
	return k == KindText || k == KindFile
}

// User is a registered identity, including the stored credential hash.
// The hash never leaves the auth collaborator.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Nickname     string
	ProfilePic   string
	Description  string
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		Nickname:    u.Nickname,
		ProfilePic:  u.ProfilePic,
		Description: u.Description,
	}
}

// Profile is the public subset of a user record, safe to push to peers.
type Profile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	ProfilePic  string `json:"profile_pic"`
	Description string `json:"description"`
}

// FriendEdge is the friendship record between two identities. The pair is
// unordered; Requester records which side originated the request.
type FriendEdge struct {
	Requester int64
	Target    int64
	Status    FriendStatus
}

// Message is an immutable stored chat message.
type Message struct {
	ID         int64       `json:"id"`
	SenderID   int64       `json:"senderId"`
	ReceiverID int64       `json:"receiverId"`
	Content    string      `json:"content"`
	Kind       MessageKind `json:"kind"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// StatusPost is an immutable broadcast unit fanned out to accepted friends
// at creation time. It is never re-delivered later.
type StatusPost struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
