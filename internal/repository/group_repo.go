package repository

import (
	"context"
	"errors"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// GroupRepo is the repository for group operations
type GroupRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewGroupRepo creates a new GroupRepo
func NewGroupRepo(db *gorm.DB, rdb *redis.Client) *GroupRepo {
	return &GroupRepo{db: db, rdb: rdb}
}

// Create creates a group
func (r *GroupRepo) Create(ctx context.Context, tx *gorm.DB, group *entity.Group) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Create(group).Error
}

// GetById gets a group by Id
func (r *GroupRepo) GetById(ctx context.Context, id string) (*entity.Group, error) {
	var group entity.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Update updates group fields
func (r *GroupRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.Group{}).Where("id = ?", id).Updates(updates).Error
}

// Disband marks a group as disbanded
func (r *GroupRepo) Disband(ctx context.Context, tx *gorm.DB, id string) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Model(&entity.Group{}).
		Where("id = ?", id).
		Update("status", entity.GroupStatusDisbanded).Error
}

// AddMember adds a user to a group. Re-adding an existing member is a no-op.
func (r *GroupRepo) AddMember(ctx context.Context, tx *gorm.DB, member *entity.GroupMember) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	err := db.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// RemoveMember removes a user from a group
func (r *GroupRepo) RemoveMember(ctx context.Context, groupId, userId string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupId, userId).
		Delete(&entity.GroupMember{}).Error
}

// GetMember gets a user's membership row in a group
func (r *GroupRepo) GetMember(ctx context.Context, groupId, userId string) (*entity.GroupMember, error) {
	var member entity.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupId, userId).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetMemberUserIds returns the user ids of every member in a group
func (r *GroupRepo) GetMemberUserIds(ctx context.Context, groupId string) ([]string, error) {
	var userIds []string
	err := r.db.WithContext(ctx).Model(&entity.GroupMember{}).
		Where("group_id = ?", groupId).
		Pluck("user_id", &userIds).Error
	if err != nil {
		return nil, err
	}
	return userIds, nil
}

// SearchMembers finds group members whose username contains the term, one
// page at a time, plus the total hit count. An empty term matches everyone.
func (r *GroupRepo) SearchMembers(ctx context.Context, groupId, term string, page, limit int) ([]*entity.User, int64, error) {
	memberIds := r.db.Model(&entity.GroupMember{}).Select("user_id").Where("group_id = ?", groupId)

	count := r.db.WithContext(ctx).Model(&entity.User{}).Where("id IN (?)", memberIds)
	if term != "" {
		count = count.Where("username LIKE ?", "%"+term+"%")
	}
	var total int64
	if err := count.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.db.WithContext(ctx).Where("id IN (?)", memberIds)
	if term != "" {
		q = q.Where("username LIKE ?", "%"+term+"%")
	}
	var users []*entity.User
	err := q.Order("username ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CountMembers counts members in a group
func (r *GroupRepo) CountMembers(ctx context.Context, groupId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.GroupMember{}).
		Where("group_id = ?", groupId).
		Count(&count).Error
	return count, err
}

// ListForUser returns active groups a user belongs to
func (r *GroupRepo) ListForUser(ctx context.Context, userId string) ([]*entity.Group, error) {
	var groups []*entity.Group
	err := r.db.WithContext(ctx).
		Where("status = ? AND id IN (?)", entity.GroupStatusActive,
			r.db.Model(&entity.GroupMember{}).Select("group_id").Where("user_id = ?", userId)).
		Order("created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateInvitation creates a group invitation
func (r *GroupRepo) CreateInvitation(ctx context.Context, inv *entity.GroupInvitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// SaveInvitation persists every field of an existing invitation row
func (r *GroupRepo) SaveInvitation(ctx context.Context, inv *entity.GroupInvitation) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

// GetInvitationById gets an invitation by Id
func (r *GroupRepo) GetInvitationById(ctx context.Context, id string) (*entity.GroupInvitation, error) {
	var inv entity.GroupInvitation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInvitation gets the invitation row for a group/invitee pair, if any
func (r *GroupRepo) GetInvitation(ctx context.Context, groupId, inviteeId string) (*entity.GroupInvitation, error) {
	var inv entity.GroupInvitation
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND invitee_id = ?", groupId, inviteeId).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListPendingInvitationsForUser returns pending invitations addressed to a user
func (r *GroupRepo) ListPendingInvitationsForUser(ctx context.Context, userId string) ([]*entity.GroupInvitation, error) {
	var invs []*entity.GroupInvitation
	err := r.db.WithContext(ctx).
		Where("invitee_id = ? AND status = ?", userId, entity.InvitationStatusPending).
		Order("created_at DESC").
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}
