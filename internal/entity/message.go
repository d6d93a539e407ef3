package entity

// Message types
const (
	MsgTypeText   = "text"
	MsgTypeImage  = "image"
	MsgTypeFile   = "file"
	MsgTypeSystem = "system"
)

// ReplyRef references the message being replied to, denormalized so history
// pages render without an extra lookup
type ReplyRef struct {
	MessageId      string `json:"message_id,omitempty" gorm:"column:reply_message_id;size:64"`
	SenderUsername string `json:"sender_username,omitempty" gorm:"column:reply_sender_username"`
	Content        string `json:"content,omitempty" gorm:"column:reply_content"`
}

// IsZero checks if the reference points at anything
func (r ReplyRef) IsZero() bool {
	return r.MessageId == ""
}

// Message represents a persisted chat message
type Message struct {
	Id             string     `json:"id" gorm:"column:id;primaryKey"`
	ConversationId string     `json:"conversation_id" gorm:"column:conversation_id;index:idx_conv_created,priority:1;size:64"`
	SenderId       string     `json:"sender_id" gorm:"column:sender_id;index;size:64"`
	ReceiverId     string     `json:"receiver_id" gorm:"column:receiver_id;index;size:64"`
	MsgType        string     `json:"msg_type" gorm:"column:msg_type;size:16;default:text"`
	Content        string     `json:"content" gorm:"column:content;type:text"`
	Reply          ReplyRef   `json:"reply,omitempty" gorm:"embedded"`
	Mentions       StringList `json:"mentions,omitempty" gorm:"column:mentions;type:json"`
	ReadAt         *int64     `json:"read_at,omitempty" gorm:"column:read_at"`
	CreatedAt      int64      `json:"created_at" gorm:"column:created_at;autoCreateTime:milli;index:idx_conv_created,priority:2,sort:desc"`
	UpdatedAt      int64      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageInfo represents a message hydrated for API responses and pushes
type MessageInfo struct {
	Id                  string     `json:"id"`
	ConversationId      string     `json:"conversation_id"`
	SenderId            string     `json:"sender_id"`
	SenderUsername      string     `json:"sender_username"`
	ReceiverId          string     `json:"receiver_id,omitempty"`
	MsgType             string     `json:"msg_type"`
	Content             string     `json:"content"`
	Reply               *ReplyRef  `json:"reply,omitempty"`
	Mentions            StringList `json:"mentions,omitempty"`
	IsSentByMe          bool       `json:"is_sent_by_me"`
	IsReadByCurrentUser bool       `json:"is_read_by_current_user"`
	CreatedAt           int64      `json:"created_at"`
}

// ToInfo hydrates a message for the given viewer.
// A sender always sees their own message as read.
func (m *Message) ToInfo(viewerId, senderUsername string) *MessageInfo {
	info := &MessageInfo{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		SenderId:       m.SenderId,
		SenderUsername: senderUsername,
		ReceiverId:     m.ReceiverId,
		MsgType:        m.MsgType,
		Content:        m.Content,
		Mentions:       m.Mentions,
		IsSentByMe:     m.SenderId == viewerId,
		CreatedAt:      m.CreatedAt,
	}
	if !m.Reply.IsZero() {
		reply := m.Reply
		info.Reply = &reply
	}
	if m.SenderId == viewerId {
		info.IsReadByCurrentUser = true
	} else {
		info.IsReadByCurrentUser = m.ReadAt != nil
	}
	return info
}
