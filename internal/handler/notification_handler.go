package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/flowgrid/flowgrid/internal/middleware"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/response"
)

// NotificationHandler handles owner notification requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the caller's notifications, newest first
func (h *NotificationHandler) List(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	notices, err := h.notificationService.ListByOwner(ctx, id.Id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, notices)
}

// MarkRead marks a single notification as read
func (h *NotificationHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	notificationId := c.Param("id")
	if notificationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.notificationService.MarkRead(ctx, id.Id, notificationId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}
