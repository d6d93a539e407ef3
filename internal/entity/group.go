package entity

// Group statuses
const (
	GroupStatusActive    = "active"
	GroupStatusDisbanded = "disbanded"
)

// Group member roles
const (
	GroupRoleOwner  = "owner"
	GroupRoleMember = "member"
)

// Group invitation statuses
const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusDeclined = "declined"
)

// Group represents a game group with its own channels
type Group struct {
	Id           string `json:"id" gorm:"column:id;primaryKey"`
	Name         string `json:"name" gorm:"column:name"`
	Introduction string `json:"introduction" gorm:"column:introduction"`
	Avatar       string `json:"avatar" gorm:"column:avatar"`
	OwnerId      string `json:"owner_id" gorm:"column:owner_id;index;size:64"`
	Status       string `json:"status" gorm:"column:status;size:16;default:active"`
	CreatedAt    int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt    int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Group
func (Group) TableName() string {
	return "groups"
}

// IsActive checks if the group has not been disbanded
func (g *Group) IsActive() bool {
	return g.Status == GroupStatusActive
}

// GroupMember represents a user's membership in a group
type GroupMember struct {
	Id        int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	GroupId   string `json:"group_id" gorm:"column:group_id;uniqueIndex:idx_group_user;size:64"`
	UserId    string `json:"user_id" gorm:"column:user_id;uniqueIndex:idx_group_user;index;size:64"`
	Role      string `json:"role" gorm:"column:role;size:16;default:member"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
}

// TableName returns the table name for GroupMember
func (GroupMember) TableName() string {
	return "group_members"
}

// GroupInvitation represents a pending (or resolved) invite into a group.
// The unique index keeps at most one row per group/invitee; re-invites after
// a decline reuse the row.
type GroupInvitation struct {
	Id        string `json:"id" gorm:"column:id;primaryKey"`
	GroupId   string `json:"group_id" gorm:"column:group_id;uniqueIndex:idx_group_invitee;size:64"`
	InviterId string `json:"inviter_id" gorm:"column:inviter_id;size:64"`
	InviteeId string `json:"invitee_id" gorm:"column:invitee_id;uniqueIndex:idx_group_invitee;index;size:64"`
	Status    string `json:"status" gorm:"column:status;size:16;default:pending"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for GroupInvitation
func (GroupInvitation) TableName() string {
	return "group_invitations"
}

// GroupInfo represents a group with membership details for API responses
type GroupInfo struct {
	Id           string      `json:"id"`
	Name         string      `json:"name"`
	Introduction string      `json:"introduction,omitempty"`
	Avatar       string      `json:"avatar,omitempty"`
	OwnerId      string      `json:"owner_id"`
	MemberCount  int64       `json:"member_count"`
	Members      []*UserInfo `json:"members,omitempty"`
	CreatedAt    int64       `json:"created_at"`
}

// GroupInvitationInfo represents an invitation hydrated for API responses
type GroupInvitationInfo struct {
	Id        string    `json:"id"`
	GroupId   string    `json:"group_id"`
	GroupName string    `json:"group_name"`
	Inviter   *UserInfo `json:"inviter,omitempty"`
	Status    string    `json:"status"`
	CreatedAt int64     `json:"created_at"`
}
