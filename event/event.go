package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ovachat/relay/directory"
)

// Event is a single tagged payload exchanged over a session channel.
type Event interface {
	// EventName returns the wire tag of the event.
	EventName() string
}

// Envelope is the wire framing of an event: a tag plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrUnknownEvent indicates an envelope tag with no registered schema.
var ErrUnknownEvent = errors.New("unknown event type")

// Marshal frames an event into its JSON envelope.
func Marshal(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", ev.EventName(), err)
	}
	return json.Marshal(Envelope{Event: ev.EventName(), Data: data})
}

// ParseEnvelope decodes the outer framing without touching the payload.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Event == "" {
		return nil, errors.New("envelope missing event tag")
	}
	return &env, nil
}

// DecodeClient validates and decodes a client→core envelope into its
// typed payload. Returns ErrUnknownEvent for unrecognized tags.
func DecodeClient(env *Envelope) (Event, error) {
	var ev Event
	switch env.Event {
	case TagAttach:
		ev = &Attach{}
	case TagAddFriend:
		ev = &AddFriend{}
	case TagRespondToFriendRequest:
		ev = &RespondToFriendRequest{}
	case TagSendMessage:
		ev = &SendMessage{}
	case TagRequestChatHistory:
		ev = &RequestChatHistory{}
	case TagTypingStart:
		ev = &TypingStart{}
	case TagTypingStop:
		ev = &TypingStop{}
	case TagShareStatus:
		ev = &ShareStatus{}
	case TagUpdateProfile:
		ev = &UpdateProfile{}
	case TagCallUser:
		ev = &CallUser{}
	case TagCallAnswer:
		ev = &CallAnswer{}
	case TagIceCandidate:
		ev = &IceCandidate{}
	case TagEndCall:
		ev = &EndCall{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, ev); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Event, err)
		}
	}
	return ev, nil
}

// Client→core event tags.
const (
	TagAttach                 = "attach"
	TagAddFriend              = "add_friend"
	TagRespondToFriendRequest = "respond_to_friend_request"
	TagSendMessage            = "send_message"
	TagRequestChatHistory     = "request_chat_history"
	TagTypingStart            = "typing_start"
	TagTypingStop             = "typing_stop"
	TagShareStatus            = "share_status"
	TagUpdateProfile          = "update_profile"
	TagCallUser               = "call-user"
	TagCallAnswer             = "call-answer"
	TagIceCandidate           = "ice-candidate"
	TagEndCall                = "end-call"
)

// Core→client event tags.
const (
	TagLoadFriendList        = "load_friend_list"
	TagFriendRequestReceived = "friend_request_received"
	TagFriendStatusChange    = "friend_status_change"
	TagNewMessage            = "new_message"
	TagChatHistory           = "chat_history"
	TagDisplayTyping         = "display_typing"
	TagNewStatusUpdate       = "new_status_update"
	TagProfileUpdated        = "profile_updated"
	TagCallOffer             = "call-offer"
	TagCallAnswered          = "call-answer"
	TagIceCandidateRelay     = "ice-candidate"
	TagEndCallSignal         = "end-call"
	TagCallFailed            = "call-failed"
	TagError                 = "error"
)

// Attach binds the session's channel to a verified user identity.
type Attach struct {
	UserID int64 `json:"userId"`
}

func (*Attach) EventName() string { return TagAttach }

// AddFriend requests a friendship with the named user.
type AddFriend struct {
	Username string `json:"username"`
}

func (*AddFriend) EventName() string { return TagAddFriend }

// RespondToFriendRequest accepts or rejects a pending request.
type RespondToFriendRequest struct {
	RequesterID int64 `json:"requesterId"`
	Accept      bool  `json:"accept"`
}

func (*RespondToFriendRequest) EventName() string { return TagRespondToFriendRequest }

// SendMessage sends a chat message to a peer.
type SendMessage struct {
	ReceiverID int64                 `json:"receiverId"`
	Content    string                `json:"content"`
	Kind       directory.MessageKind `json:"kind"`
}

func (*SendMessage) EventName() string { return TagSendMessage }

// RequestChatHistory asks for the full history with a peer.
type RequestChatHistory struct {
	FriendID int64 `json:"friendId"`
}

func (*RequestChatHistory) EventName() string { return TagRequestChatHistory }

// TypingStart signals the user began typing toward a peer.
type TypingStart struct {
	ReceiverID int64 `json:"receiverId"`
}

func (*TypingStart) EventName() string { return TagTypingStart }

// TypingStop signals the user stopped typing toward a peer.
type TypingStop struct {
	ReceiverID int64 `json:"receiverId"`
}

func (*TypingStop) EventName() string { return TagTypingStop }

// ShareStatus publishes a status post to all accepted friends.
type ShareStatus struct {
	Content string `json:"content"`
}

func (*ShareStatus) EventName() string { return TagShareStatus }

// UpdateProfile changes one profile field. For password changes Value is
// ignored and OldPassword/NewPassword carry the credentials.
type UpdateProfile struct {
	Field       string `json:"field"`
	Value       string `json:"value,omitempty"`
	OldPassword string `json:"oldPassword,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
}

func (*UpdateProfile) EventName() string { return TagUpdateProfile }

// CallUser initiates a call toward a peer, carrying the opaque offer.
type CallUser struct {
	To      int64           `json:"to"`
	Payload json.RawMessage `json:"offer"`
}

func (*CallUser) EventName() string { return TagCallUser }

// CallAnswer answers a ringing call, carrying the opaque answer.
type CallAnswer struct {
	To      int64           `json:"to"`
	Payload json.RawMessage `json:"answer"`
}

func (*CallAnswer) EventName() string { return TagCallAnswer }

// IceCandidate relays one ICE candidate toward the other party.
type IceCandidate struct {
	To      int64           `json:"to"`
	Payload json.RawMessage `json:"candidate"`
}

func (*IceCandidate) EventName() string { return TagIceCandidate }

// EndCall tears down the call with a peer.
type EndCall struct {
	To int64 `json:"to"`
}

func (*EndCall) EventName() string { return TagEndCall }

// FriendEntry is one friend-list row, annotated with live presence.
type FriendEntry struct {
	directory.Profile
	IsOnline bool `json:"isOnline"`
}

// FriendList carries the full annotated friend list.
type FriendList struct {
	Friends []FriendEntry `json:"friends"`
}

func (*FriendList) EventName() string { return TagLoadFriendList }

// FriendRequestReceived carries the requester's public profile.
type FriendRequestReceived struct {
	directory.Profile
}

func (*FriendRequestReceived) EventName() string { return TagFriendRequestReceived }

// FriendStatusChange notifies a friend's online/offline transition.
type FriendStatusChange struct {
	UserID   int64 `json:"userId"`
	IsOnline bool  `json:"isOnline"`
}

func (*FriendStatusChange) EventName() string { return TagFriendStatusChange }

// NewMessage carries the persisted, authoritative message record.
type NewMessage struct {
	directory.Message
}

func (*NewMessage) EventName() string { return TagNewMessage }

// ChatHistory carries the ordered message history with one peer.
type ChatHistory struct {
	FriendID int64               `json:"friendId"`
	Messages []directory.Message `json:"messages"`
}

func (*ChatHistory) EventName() string { return TagChatHistory }

// DisplayTyping notifies a peer's typing transition.
type DisplayTyping struct {
	SenderID int64 `json:"senderId"`
	IsTyping bool  `json:"isTyping"`
}

func (*DisplayTyping) EventName() string { return TagDisplayTyping }

// NewStatusUpdate fans a freshly created status post out to a friend.
type NewStatusUpdate struct {
	User directory.Profile    `json:"user"`
	Post directory.StatusPost `json:"post"`
}

func (*NewStatusUpdate) EventName() string { return TagNewStatusUpdate }

// ProfileUpdated echoes a successful profile change to its initiator.
// Value is empty for password changes.
type ProfileUpdated struct {
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
}

func (*ProfileUpdated) EventName() string { return TagProfileUpdated }

// CallOffer relays a call offer to the callee.
type CallOffer struct {
	From    int64           `json:"from"`
	Payload json.RawMessage `json:"offer"`
}

func (*CallOffer) EventName() string { return TagCallOffer }

// CallAnswered relays the callee's answer back to the caller.
type CallAnswered struct {
	From    int64           `json:"from"`
	Payload json.RawMessage `json:"answer"`
}

func (*CallAnswered) EventName() string { return TagCallAnswered }

// IceCandidateRelay relays one ICE candidate to the other party.
type IceCandidateRelay struct {
	From    int64           `json:"from"`
	Payload json.RawMessage `json:"candidate"`
}

func (*IceCandidateRelay) EventName() string { return TagIceCandidateRelay }

// EndCallSignal notifies the other party the call has ended.
type EndCallSignal struct {
	From int64 `json:"from"`
}

func (*EndCallSignal) EventName() string { return TagEndCallSignal }

// CallFailed tells the caller why a call could not be placed.
type CallFailed struct {
	Reason string `json:"reason"`
}

func (*CallFailed) EventName() string { return TagCallFailed }

// Error surfaces a human-readable failure to the initiating session only.
type Error struct {
	Message string `json:"message"`
}

func (*Error) EventName() string { return TagError }
