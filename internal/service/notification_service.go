package service

import (
	"context"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/mbeoliero/kit/log"
)

// NotificationService handles the owner notification feed
type NotificationService struct {
	notices repository.NotificationStore
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repos *repository.Repositories) *NotificationService {
	return &NotificationService{notices: repos.Notification}
}

// ListByOwner returns an owner's notifications, newest first
func (s *NotificationService) ListByOwner(ctx context.Context, ownerId string) ([]*entity.Notification, error) {
	notifications, err := s.notices.ListByOwner(ctx, ownerId)
	if err != nil {
		log.CtxError(ctx, "list notifications failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return notifications, nil
}

// MarkRead marks one of the owner's notifications as read. Idempotent.
func (s *NotificationService) MarkRead(ctx context.Context, ownerId, notificationId string) error {
	if err := s.notices.MarkRead(ctx, notificationId, ownerId, entity.NowUnixMilli()); err != nil {
		log.CtxError(ctx, "mark notification read failed: %v", err)
		return errcode.ErrInternalServer
	}
	return nil
}
