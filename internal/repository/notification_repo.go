package repository

import (
	"context"

	"github.com/flowgrid/flowgrid/internal/entity"
	"gorm.io/gorm"
)

// NotificationRepo is the repository for owner notifications
type NotificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo creates a new NotificationRepo
func NewNotificationRepo(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts a notification
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListByOwner lists an owner's notifications, newest first
func (r *NotificationRepo) ListByOwner(ctx context.Context, ownerId string) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerId).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead sets read_at on an owner's notification if still unread
func (r *NotificationRepo) MarkRead(ctx context.Context, id, ownerId string, readAt int64) error {
	return r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("id = ? AND owner_id = ? AND read_at IS NULL", id, ownerId).
		Update("read_at", readAt).Error
}
