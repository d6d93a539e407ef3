package repository

import (
	"context"
	"errors"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UserRepo is the repository for user operations
type UserRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewUserRepo creates a new UserRepo
func NewUserRepo(db *gorm.DB, rdb *redis.Client) *UserRepo {
	return &UserRepo{db: db, rdb: rdb}
}

// Create creates a new user
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetById gets user by Id
func (r *UserRepo) GetById(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIds gets users by Ids
func (r *UserRepo) GetByIds(ctx context.Context, ids []string) ([]*entity.User, error) {
	var users []*entity.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetByUsername gets user by username
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchByUsername finds users by exact username, excluding the searcher
func (r *UserRepo) SearchByUsername(ctx context.Context, username, excludeUserId string) ([]*entity.User, error) {
	var users []*entity.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND id <> ?", username, excludeUserId).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update updates user info
func (r *UserRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Updates(updates).Error
}

// Exists checks if user exists
func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddMute marks a conversation as muted for a user, idempotently
func (r *UserRepo) AddMute(ctx context.Context, userId, conversationId string) error {
	mute := &entity.UserMute{UserId: userId, ConversationId: conversationId}
	err := r.db.WithContext(ctx).Create(mute).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// RemoveMute unmutes a conversation for a user
func (r *UserRepo) RemoveMute(ctx context.Context, userId, conversationId string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND conversation_id = ?", userId, conversationId).
		Delete(&entity.UserMute{}).Error
}

// IsMuted checks if a user muted a conversation
func (r *UserRepo) IsMuted(ctx context.Context, userId, conversationId string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.UserMute{}).
		Where("user_id = ? AND conversation_id = ?", userId, conversationId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetMutedConversationIds returns the set of conversation ids a user muted
func (r *UserRepo) GetMutedConversationIds(ctx context.Context, userId string) (map[string]bool, error) {
	var mutes []*entity.UserMute
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).Find(&mutes).Error
	if err != nil {
		return nil, err
	}
	muted := make(map[string]bool, len(mutes))
	for _, m := range mutes {
		muted[m.ConversationId] = true
	}
	return muted, nil
}
