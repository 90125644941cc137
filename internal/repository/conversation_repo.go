package repository

import (
	"context"
	"errors"

	"github.com/flowgrid/flowgrid/internal/entity"
	"gorm.io/gorm"
)

// ConversationRepo is the repository for conversation operations
type ConversationRepo struct {
	db *gorm.DB
}

// NewConversationRepo creates a new ConversationRepo
func NewConversationRepo(db *gorm.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Find gets the conversation for a (consumer, plant) pair
func (r *ConversationRepo) Find(ctx context.Context, consumerId, plantId string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).
		Where("consumer_id = ? AND plant_id = ?", consumerId, plantId).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// Create inserts a new conversation. The (consumer_id, plant_id) unique
// index surfaces concurrent creation as gorm.ErrDuplicatedKey.
func (r *ConversationRepo) Create(ctx context.Context, conv *entity.Conversation) error {
	now := entity.NowUnixMilli()
	conv.CreatedAt = now
	if conv.LastMessageAt == 0 {
		conv.LastMessageAt = now
	}
	return r.db.WithContext(ctx).Create(conv).Error
}

// GetById gets a conversation by id
func (r *ConversationRepo) GetById(ctx context.Context, id string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// TouchLastMessageAt bumps last_message_at
func (r *ConversationRepo) TouchLastMessageAt(ctx context.Context, id string, ts int64) error {
	return r.db.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", ts).Error
}

// ListByParticipant lists conversations for one side, most recent first
func (r *ConversationRepo) ListByParticipant(ctx context.Context, t entity.IdentityType, participantId string) ([]*entity.Conversation, error) {
	column := "consumer_id"
	if t == entity.IdentityOwner {
		column = "owner_id"
	}

	var convs []*entity.Conversation
	err := r.db.WithContext(ctx).
		Where(column+" = ?", participantId).
		Order("last_message_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// Search lists conversations for the admin surface with optional filters
func (r *ConversationRepo) Search(ctx context.Context, q *AdminConversationQuery) ([]*entity.Conversation, int64, error) {
	db := r.db.WithContext(ctx).Model(&entity.Conversation{})
	if q.PlantId != "" {
		db = db.Where("plant_id = ?", q.PlantId)
	}
	if q.OwnerId != "" {
		db = db.Where("owner_id = ?", q.OwnerId)
	}
	if q.ConsumerId != "" {
		db = db.Where("consumer_id = ?", q.ConsumerId)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var convs []*entity.Conversation
	err := db.Order("last_message_at DESC").
		Offset(q.Offset).
		Limit(limit).
		Find(&convs).Error
	if err != nil {
		return nil, 0, err
	}
	return convs, total, nil
}
