package entity

// Friendship statuses
const (
	FriendshipStatusPending    = "pending"
	FriendshipStatusFriends    = "friends"
	FriendshipStatusDeclined   = "declined"
	FriendshipStatusBlocked    = "blocked"
	FriendshipStatusUnfriended = "unfriended"
)

// Friendship tracks the relationship between two users. One row per pair,
// keyed by the canonical PairKey; RequesterId records who sent the latest
// request and BlockedBy who issued a block.
type Friendship struct {
	Id          string  `json:"id" gorm:"column:id;primaryKey"`
	PairKey     string  `json:"-" gorm:"column:pair_key;uniqueIndex;size:130"`
	RequesterId string  `json:"requester_id" gorm:"column:requester_id;index;size:64"`
	RecipientId string  `json:"recipient_id" gorm:"column:recipient_id;index;size:64"`
	Status      string  `json:"status" gorm:"column:status;size:16"`
	BlockedBy   string  `json:"blocked_by,omitempty" gorm:"column:blocked_by;size:64"`
	AcceptedAt  *int64  `json:"accepted_at,omitempty" gorm:"column:accepted_at"`
	DeletedAt   *int64  `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
	CreatedAt   int64   `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt   int64   `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Friendship
func (Friendship) TableName() string {
	return "friendships"
}

// Involves checks if a user is one of the two parties
func (f *Friendship) Involves(userId string) bool {
	return f.RequesterId == userId || f.RecipientId == userId
}

// OtherParty returns the peer of userId in the relationship
func (f *Friendship) OtherParty(userId string) string {
	if f.RequesterId == userId {
		return f.RecipientId
	}
	return f.RequesterId
}

// FriendshipInfo represents a friendship with the peer hydrated
type FriendshipInfo struct {
	Id         string    `json:"id"`
	Status     string    `json:"status"`
	Friend     *UserInfo `json:"friend,omitempty"`
	Requester  *UserInfo `json:"requester,omitempty"`
	AcceptedAt *int64    `json:"accepted_at,omitempty"`
	CreatedAt  int64     `json:"created_at"`
}
