package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovachat/relay/directory"
)

func TestMarshalFramesTagAndPayload(t *testing.T) {
	raw, err := Marshal(&FriendStatusChange{UserID: 7, IsOnline: true})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, TagFriendStatusChange, env.Event)
	assert.JSONEq(t, `{"userId":7,"isOnline":true}`, string(env.Data))
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"event":"send_message","data":{"receiverId":2,"content":"hi"}}`))
	require.NoError(t, err)
	assert.Equal(t, TagSendMessage, env.Event)

	_, err = ParseEnvelope([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseEnvelope([]byte(`{"data":{}}`))
	assert.Error(t, err, "missing tag is rejected")
}

func TestDecodeClientSendMessage(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"event":"send_message","data":{"receiverId":2,"content":"hi","kind":"file"}}`))
	require.NoError(t, err)

	ev, err := DecodeClient(env)
	require.NoError(t, err)

	msg, ok := ev.(*SendMessage)
	require.True(t, ok)
	assert.Equal(t, int64(2), msg.ReceiverID)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, directory.KindFile, msg.Kind)
}

func TestDecodeClientSignalingPayloadStaysOpaque(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"event":"call-user","data":{"to":2,"offer":{"sdp":"v=0","type":"offer"}}}`))
	require.NoError(t, err)

	ev, err := DecodeClient(env)
	require.NoError(t, err)

	call, ok := ev.(*CallUser)
	require.True(t, ok)
	assert.Equal(t, int64(2), call.To)
	assert.JSONEq(t, `{"sdp":"v=0","type":"offer"}`, string(call.Payload))
}

func TestDecodeClientAllTags(t *testing.T) {
	cases := map[string]Event{
		TagAttach:                 &Attach{},
		TagAddFriend:              &AddFriend{},
		TagRespondToFriendRequest: &RespondToFriendRequest{},
		TagSendMessage:            &SendMessage{},
		TagRequestChatHistory:     &RequestChatHistory{},
		TagTypingStart:            &TypingStart{},
		TagTypingStop:             &TypingStop{},
		TagShareStatus:            &ShareStatus{},
		TagUpdateProfile:          &UpdateProfile{},
		TagCallUser:               &CallUser{},
		TagCallAnswer:             &CallAnswer{},
		TagIceCandidate:           &IceCandidate{},
		TagEndCall:                &EndCall{},
	}

	for tag, want := range cases {
		ev, err := DecodeClient(&Envelope{Event: tag})
		require.NoError(t, err, tag)
		assert.IsType(t, want, ev, tag)
		assert.Equal(t, tag, ev.EventName())
	}
}

func TestDecodeClientUnknownTag(t *testing.T) {
	_, err := DecodeClient(&Envelope{Event: "self_destruct"})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecodeClientServerTagRejected(t *testing.T) {
	// Core→client tags are not accepted from the client side.
	_, err := DecodeClient(&Envelope{Event: TagNewMessage})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecodeClientMalformedPayload(t *testing.T) {
	env := &Envelope{Event: TagSendMessage, Data: json.RawMessage(`{"receiverId":"two"}`)}
	_, err := DecodeClient(env)
	assert.Error(t, err)
}

func TestFriendListRoundTrip(t *testing.T) {
	list := &FriendList{Friends: []FriendEntry{
		{Profile: directory.Profile{ID: 2, Username: "bob", Nickname: "Bob"}, IsOnline: true},
	}}

	raw, err := Marshal(list)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, TagLoadFriendList, env.Event)

	var decoded FriendList
	require.NoError(t, json.Unmarshal(env.Data, &decoded))
	require.Len(t, decoded.Friends, 1)
	assert.Equal(t, "bob", decoded.Friends[0].Username)
	assert.True(t, decoded.Friends[0].IsOnline)
}
