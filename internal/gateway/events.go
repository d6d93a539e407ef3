package gateway

import (
	"encoding/json"

	"github.com/qy-8/gamechat-app/internal/entity"
)

// Server-pushed event names
const (
	EventNewMessage         = "new_message"
	EventNewFriendRequest   = "new_friend_request"
	EventNewGroupInvitation = "new_group_invitation"
	EventConversationRead   = "conversation_read"
	EventPong               = "pong"
	EventError              = "error"
)

// Client-sent event names
const (
	EventJoinChannel = "join_channel"
	EventPing        = "ping_server"
)

// ClientEvent is the envelope of every client-to-server frame.
// Data stays raw until the event name selects its payload shape.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerEvent is the envelope of every server-to-client frame
type ServerEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Encode encodes a server event to JSON bytes
func (e *ServerEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// JoinChannelData is the payload of a join_channel client event
type JoinChannelData struct {
	ChannelId string `json:"channel_id"`
}

// GroupRefPayload identifies the parent group of a channel message
type GroupRefPayload struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// NewMessagePayload is pushed with new_message and doubles as the HTTP send
// response. Every recipient gets the same canonical shape; clients derive
// ownership and read state from sender.id and read_at.
type NewMessagePayload struct {
	Id               string            `json:"id"`
	ConversationId   string            `json:"conversation_id"`
	ConversationType string            `json:"conversation_type"`
	Sender           *entity.UserInfo  `json:"sender"`
	Receiver         *entity.UserInfo  `json:"receiver,omitempty"`
	Group            *GroupRefPayload  `json:"group,omitempty"`
	MsgType          string            `json:"msg_type"`
	Content          string            `json:"content"`
	Reply            *entity.ReplyRef  `json:"reply,omitempty"`
	Mentions         entity.StringList `json:"mentions,omitempty"`
	ReadAt           *int64            `json:"read_at,omitempty"`
	CreatedAt        int64             `json:"created_at"`
}

// FriendRequestPayload is pushed with new_friend_request
type FriendRequestPayload struct {
	RequestId string           `json:"request_id"`
	Requester *entity.UserInfo `json:"requester"`
	CreatedAt int64            `json:"created_at"`
}

// GroupInvitationPayload is pushed with new_group_invitation
type GroupInvitationPayload struct {
	InvitationId string           `json:"invitation_id"`
	GroupId      string           `json:"group_id"`
	GroupName    string           `json:"group_name"`
	Inviter      *entity.UserInfo `json:"inviter"`
	CreatedAt    int64            `json:"created_at"`
}

// ConversationReadPayload is pushed with conversation_read to the
// participant whose messages were just read
type ConversationReadPayload struct {
	ConversationId string `json:"conversation_id"`
	ReaderId       string `json:"reader_id"`
	ReadCount      int64  `json:"read_count"`
	ReadAt         int64  `json:"read_at"`
}
