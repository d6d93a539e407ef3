package repository

import (
	"context"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MessageRepo is the repository for message operations
type MessageRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB, rdb *redis.Client) *MessageRepo {
	return &MessageRepo{db: db, rdb: rdb}
}

// Create persists a message
func (r *MessageRepo) Create(ctx context.Context, tx *gorm.DB, msg *entity.Message) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Create(msg).Error
}

// GetById gets a message by Id
func (r *MessageRepo) GetById(ctx context.Context, id string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Page returns one page of a conversation's messages, newest first, plus the
// total message count. Callers reverse the page for chronological display.
func (r *MessageRepo) Page(ctx context.Context, convId string, page, limit int) ([]*entity.Message, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("conversation_id = ?", convId).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var msgs []*entity.Message
	err = r.db.WithContext(ctx).
		Where("conversation_id = ?", convId).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// MarkRead stamps read_at on every unread message addressed to readerId in
// the conversation. Returns the number of messages affected; repeating the
// call affects zero rows.
func (r *MessageRepo) MarkRead(ctx context.Context, convId, readerId string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND read_at IS NULL", convId, readerId).
		Update("read_at", entity.NowUnixMilli())
	return res.RowsAffected, res.Error
}

// CountUnread counts messages in a conversation the user has not read.
// The sender's own messages never count as unread.
func (r *MessageRepo) CountUnread(ctx context.Context, convId, userId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND sender_id <> ? AND read_at IS NULL",
			convId, userId, userId).
		Count(&count).Error
	return count, err
}

// Search finds messages in a conversation matching the term, best match
// first, plus the total hit count. Uses the FULLTEXT index on MySQL and
// falls back to LIKE elsewhere.
func (r *MessageRepo) Search(ctx context.Context, convId, term string, page, limit int) ([]*entity.Message, int64, error) {
	base := r.db.WithContext(ctx).Model(&entity.Message{}).
		Where("conversation_id = ?", convId)
	q := r.db.WithContext(ctx).Where("conversation_id = ?", convId)

	if r.db.Dialector.Name() == "mysql" {
		base = base.Where("MATCH(content) AGAINST(? IN NATURAL LANGUAGE MODE)", term)
		q = q.Select("*, MATCH(content) AGAINST(? IN NATURAL LANGUAGE MODE) AS score", term).
			Where("MATCH(content) AGAINST(? IN NATURAL LANGUAGE MODE)", term).
			Order("score DESC, created_at DESC")
	} else {
		base = base.Where("content LIKE ?", "%"+term+"%")
		q = q.Where("content LIKE ?", "%"+term+"%").
			Order("created_at DESC")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var msgs []*entity.Message
	err := q.Offset((page - 1) * limit).Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}
