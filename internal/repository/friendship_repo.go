package repository

import (
	"context"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// FriendshipRepo is the repository for friendship operations
type FriendshipRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewFriendshipRepo creates a new FriendshipRepo
func NewFriendshipRepo(db *gorm.DB, rdb *redis.Client) *FriendshipRepo {
	return &FriendshipRepo{db: db, rdb: rdb}
}

// Create creates a friendship row
func (r *FriendshipRepo) Create(ctx context.Context, f *entity.Friendship) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// Save persists every field of an existing friendship row
func (r *FriendshipRepo) Save(ctx context.Context, f *entity.Friendship) error {
	return r.db.WithContext(ctx).Save(f).Error
}

// GetById gets a friendship by Id
func (r *FriendshipRepo) GetById(ctx context.Context, id string) (*entity.Friendship, error) {
	var f entity.Friendship
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByPair gets the friendship row between two users, if any
func (r *FriendshipRepo) GetByPair(ctx context.Context, userA, userB string) (*entity.Friendship, error) {
	var f entity.Friendship
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", entity.PairKey(userA, userB)).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFriends returns accepted friendships involving a user
func (r *FriendshipRepo) ListFriends(ctx context.Context, userId string) ([]*entity.Friendship, error) {
	var fs []*entity.Friendship
	err := r.db.WithContext(ctx).
		Where("status = ? AND (requester_id = ? OR recipient_id = ?)",
			entity.FriendshipStatusFriends, userId, userId).
		Order("updated_at DESC").
		Find(&fs).Error
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// ListIncomingPending returns pending requests addressed to a user
func (r *FriendshipRepo) ListIncomingPending(ctx context.Context, userId string) ([]*entity.Friendship, error) {
	var fs []*entity.Friendship
	err := r.db.WithContext(ctx).
		Where("status = ? AND recipient_id = ?", entity.FriendshipStatusPending, userId).
		Order("created_at DESC").
		Find(&fs).Error
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// ListBlockedBy returns friendships a user has blocked
func (r *FriendshipRepo) ListBlockedBy(ctx context.Context, userId string) ([]*entity.Friendship, error) {
	var fs []*entity.Friendship
	err := r.db.WithContext(ctx).
		Where("status = ? AND blocked_by = ?", entity.FriendshipStatusBlocked, userId).
		Order("updated_at DESC").
		Find(&fs).Error
	if err != nil {
		return nil, err
	}
	return fs, nil
}
