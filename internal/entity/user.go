package entity

// User statuses
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User represents a registered account
type User struct {
	Id        string `json:"id" gorm:"column:id;primaryKey"`
	Username  string `json:"username" gorm:"column:username;uniqueIndex;size:64"`
	Password  string `json:"-" gorm:"column:password"`
	Avatar    string `json:"avatar" gorm:"column:avatar"`
	Status    string `json:"status" gorm:"column:status;size:16;default:active"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// IsActive checks if the user can log in and chat
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// UserInfo represents public user info for API responses
type UserInfo struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// ToUserInfo strips private fields for API responses
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		Id:       u.Id,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}

// UserMute marks a conversation as muted for a user
type UserMute struct {
	Id             int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	UserId         string `json:"user_id" gorm:"column:user_id;uniqueIndex:idx_user_conv;size:64"`
	ConversationId string `json:"conversation_id" gorm:"column:conversation_id;uniqueIndex:idx_user_conv;size:64"`
	CreatedAt      int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
}

// TableName returns the table name for UserMute
func (UserMute) TableName() string {
	return "user_mutes"
}
