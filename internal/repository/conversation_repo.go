package repository

import (
	"context"
	"errors"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/pkg/idgen"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ConversationRepo is the repository for conversation operations
type ConversationRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewConversationRepo creates a new ConversationRepo
func NewConversationRepo(db *gorm.DB, rdb *redis.Client) *ConversationRepo {
	return &ConversationRepo{db: db, rdb: rdb}
}

// Create creates a conversation
func (r *ConversationRepo) Create(ctx context.Context, conv *entity.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

// GetById gets a conversation by Id
func (r *ConversationRepo) GetById(ctx context.Context, id string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetByPair gets the private conversation between two users
func (r *ConversationRepo) GetByPair(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", entity.PairKey(userA, userB)).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetOrCreatePrivate finds the private conversation between two users,
// creating it if absent. Returns whether a new row was created. Concurrent
// creates race on the pair_key unique index; the loser re-reads the winner's
// row.
func (r *ConversationRepo) GetOrCreatePrivate(ctx context.Context, userA, userB string) (*entity.Conversation, bool, error) {
	conv, err := r.GetByPair(ctx, userA, userB)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	newConv := entity.NewPrivateConversation(idgen.NextID(), userA, userB)
	err = r.db.WithContext(ctx).Create(newConv).Error
	if err == nil {
		return newConv, true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		conv, err = r.GetByPair(ctx, userA, userB)
		if err != nil {
			return nil, false, err
		}
		return conv, false, nil
	}
	return nil, false, err
}

// ListForUser returns every conversation visible to a user: private threads
// the user participates in plus channels of groups the user belongs to,
// newest activity first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userId string) ([]*entity.Conversation, error) {
	var convs []*entity.Conversation
	err := r.db.WithContext(ctx).
		Where("type = ? AND (participant_low = ? OR participant_high = ?)",
			entity.ConversationTypePrivate, userId, userId).
		Or("type = ? AND group_id IN (?)",
			entity.ConversationTypeGroup,
			r.db.Model(&entity.GroupMember{}).Select("group_id").Where("user_id = ?", userId)).
		Order("last_message_at DESC, created_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// UpdateLastMessage stamps the latest message onto the conversation row
func (r *ConversationRepo) UpdateLastMessage(ctx context.Context, tx *gorm.DB, convId string, msg *entity.Message) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Model(&entity.Conversation{}).
		Where("id = ?", convId).
		Updates(map[string]interface{}{
			"last_message_id": msg.Id,
			"last_snippet":    entity.Snippet(msg.Content),
			"last_message_at": msg.CreatedAt,
		}).Error
}

// CreateChannel creates a group channel conversation
func (r *ConversationRepo) CreateChannel(ctx context.Context, tx *gorm.DB, groupId, name string) (*entity.Conversation, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	channel := entity.NewChannel(idgen.NextID(), groupId, name)
	if err := db.WithContext(ctx).Create(channel).Error; err != nil {
		return nil, err
	}
	return channel, nil
}

// GetChannelsByGroup lists the channels of a group
func (r *ConversationRepo) GetChannelsByGroup(ctx context.Context, groupId string) ([]*entity.Conversation, error) {
	var convs []*entity.Conversation
	err := r.db.WithContext(ctx).
		Where("type = ? AND group_id = ?", entity.ConversationTypeGroup, groupId).
		Order("created_at ASC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// ClearGroupRef detaches all channels of a disbanded group so they stop
// appearing in member conversation lists
func (r *ConversationRepo) ClearGroupRef(ctx context.Context, tx *gorm.DB, groupId string) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Model(&entity.Conversation{}).
		Where("type = ? AND group_id = ?", entity.ConversationTypeGroup, groupId).
		Update("group_id", "").Error
}
