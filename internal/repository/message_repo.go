package repository

import (
	"context"
	"errors"
	"time"

	"github.com/flowgrid/flowgrid/internal/entity"
	"gorm.io/gorm"
)

// MessageRepo is the repository for message operations
type MessageRepo struct {
	db *gorm.DB
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append inserts a new message
func (r *MessageRepo) Append(ctx context.Context, msg *entity.Message) error {
	msg.CreatedAt = entity.NowUnixMilli()
	return r.db.WithContext(ctx).Create(msg).Error
}

// GetById gets a message by id
func (r *MessageRepo) GetById(ctx context.Context, id string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// List pulls a page of messages newest-first. A cursor (BeforeSentAt)
// takes precedence over the offset.
func (r *MessageRepo) List(ctx context.Context, conversationId string, q ListMessagesQuery) ([]*entity.Message, error) {
	db := r.db.WithContext(ctx).Where("conversation_id = ?", conversationId)

	if q.BeforeSentAt > 0 {
		db = db.Where("sent_at < ?", q.BeforeSentAt)
	} else if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	var messages []*entity.Message
	err := db.Order("sent_at DESC").
		Limit(q.Limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// UnreadIds returns ids of unread messages sent by fromSender
func (r *MessageRepo) UnreadIds(ctx context.Context, conversationId string, fromSender entity.IdentityType) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND sender_type = ? AND read_at IS NULL", conversationId, fromSender).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkRead sets read_at on the given ids. The IS NULL guard keeps the
// field set-once under concurrent batches.
func (r *MessageRepo) MarkRead(ctx context.Context, ids []string, readAt int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("id IN ? AND read_at IS NULL", ids).
		Update("read_at", readAt)
	return res.RowsAffected, res.Error
}

// SetDelivered sets delivered_at if still null
func (r *MessageRepo) SetDelivered(ctx context.Context, id string, ts int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("id = ? AND delivered_at IS NULL", id).
		Update("delivered_at", ts)
	return res.RowsAffected > 0, res.Error
}

// SetRead sets read_at if still null
func (r *MessageRepo) SetRead(ctx context.Context, id string, ts int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", ts)
	return res.RowsAffected > 0, res.Error
}

// CountUnread counts unread messages sent by fromSender in one conversation
func (r *MessageRepo) CountUnread(ctx context.Context, conversationId string, fromSender entity.IdentityType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND sender_type = ? AND read_at IS NULL", conversationId, fromSender).
		Count(&count).Error
	return count, err
}

// CountUnreadIn counts unread messages sent by fromSender across conversations
func (r *MessageRepo) CountUnreadIn(ctx context.Context, conversationIds []string, fromSender entity.IdentityType) (int64, error) {
	if len(conversationIds) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id IN ? AND sender_type = ? AND read_at IS NULL", conversationIds, fromSender).
		Count(&count).Error
	return count, err
}

// Stats computes the admin dashboard aggregate
func (r *MessageRepo) Stats(ctx context.Context) (*entity.ChatStats, error) {
	stats := &entity.ChatStats{}
	db := r.db.WithContext(ctx)
	now := time.Now().UnixMilli()

	if err := db.Model(&entity.Conversation{}).Count(&stats.TotalConversations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Message{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Message{}).Where("sent_at >= ?", now-24*3600*1000).Count(&stats.MessagesLast24h).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Message{}).Where("sent_at >= ?", now-7*24*3600*1000).Count(&stats.MessagesLast7d).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Message{}).Where("read_at IS NULL").Count(&stats.UnreadMessages).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Message{}).Where("delivered_at IS NOT NULL").Count(&stats.DeliveredMessages).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Message{}).Where("read_at IS NOT NULL").Count(&stats.ReadMessages).Error; err != nil {
		return nil, err
	}

	if stats.TotalMessages > 0 {
		stats.DeliveryRate = stats.DeliveredMessages * 100 / stats.TotalMessages
		stats.ReadRate = stats.ReadMessages * 100 / stats.TotalMessages
	}
	return stats, nil
}
