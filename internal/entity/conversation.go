package entity

// Conversation types
const (
	ConversationTypePrivate = "private"
	ConversationTypeGroup   = "group"
)

// Conversation represents a private thread between two users or a group channel.
// PairKey is the canonical "{low}:{high}" key for private conversations and
// NULL for channels, so the unique index only constrains private pairs.
type Conversation struct {
	Id              string  `json:"id" gorm:"column:id;primaryKey"`
	Type            string  `json:"type" gorm:"column:type;size:16"`
	ParticipantLow  string  `json:"participant_low,omitempty" gorm:"column:participant_low;size:64"`
	ParticipantHigh string  `json:"participant_high,omitempty" gorm:"column:participant_high;size:64"`
	PairKey         *string `json:"-" gorm:"column:pair_key;uniqueIndex;size:130"`
	Name            string  `json:"name,omitempty" gorm:"column:name"`
	GroupId         string  `json:"group_id,omitempty" gorm:"column:group_id;index;size:64"`
	LastMessageId   string  `json:"last_message_id,omitempty" gorm:"column:last_message_id;size:64"`
	LastSnippet     string  `json:"last_snippet,omitempty" gorm:"column:last_snippet"`
	LastMessageAt   int64   `json:"last_message_at,omitempty" gorm:"column:last_message_at;index"`
	CreatedAt       int64   `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt       int64   `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// IsPrivate checks if the conversation is a two-party thread
func (c *Conversation) IsPrivate() bool {
	return c.Type == ConversationTypePrivate
}

// HasParticipant checks if a user is one of the two private participants
func (c *Conversation) HasParticipant(userId string) bool {
	return c.ParticipantLow == userId || c.ParticipantHigh == userId
}

// OtherParticipant returns the peer of userId in a private conversation
func (c *Conversation) OtherParticipant(userId string) string {
	if c.ParticipantLow == userId {
		return c.ParticipantHigh
	}
	return c.ParticipantLow
}

// NewPrivateConversation builds a private conversation with canonical
// participant ordering
func NewPrivateConversation(id, userA, userB string) *Conversation {
	low, high := CanonicalPair(userA, userB)
	key := PairKey(userA, userB)
	return &Conversation{
		Id:              id,
		Type:            ConversationTypePrivate,
		ParticipantLow:  low,
		ParticipantHigh: high,
		PairKey:         &key,
	}
}

// NewChannel builds a group channel conversation
func NewChannel(id, groupId, name string) *Conversation {
	return &Conversation{
		Id:      id,
		Type:    ConversationTypeGroup,
		GroupId: groupId,
		Name:    name,
	}
}

// ConversationInfo represents an enriched conversation for list responses
type ConversationInfo struct {
	Id            string       `json:"id"`
	Type          string       `json:"type"`
	Name          string       `json:"name,omitempty"`
	GroupId       string       `json:"group_id,omitempty"`
	Participant   *UserInfo    `json:"participant,omitempty"`
	LastMessage   *MessageInfo `json:"last_message,omitempty"`
	UnreadCount   int64        `json:"unread_count"`
	IsMuted       bool         `json:"is_muted"`
	LastMessageAt int64        `json:"last_message_at,omitempty"`
	CreatedAt     int64        `json:"created_at"`
}
