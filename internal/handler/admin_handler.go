package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/response"
)

// AdminHandler handles the oversight endpoints
type AdminHandler struct {
	adminChat    *service.AdminChatService
	verification *service.VerificationService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminChat *service.AdminChatService, verification *service.VerificationService) *AdminHandler {
	return &AdminHandler{adminChat: adminChat, verification: verification}
}

// ChatStats returns the chat dashboard aggregate
func (h *AdminHandler) ChatStats(ctx context.Context, c *app.RequestContext) {
	stats, err := h.adminChat.Stats(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, stats)
}

// SearchConversations lists conversations filtered by party or plant
func (h *AdminHandler) SearchConversations(ctx context.Context, c *app.RequestContext) {
	q := &repository.AdminConversationQuery{
		PlantId:    c.Query("plant_id"),
		OwnerId:    c.Query("owner_id"),
		ConsumerId: c.Query("consumer_id"),
	}
	q.Offset, _ = strconv.Atoi(c.Query("offset"))
	q.Limit, _ = strconv.Atoi(c.Query("limit"))

	resp, err := h.adminChat.SearchConversations(ctx, q)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, resp)
}

// ConversationMessages returns history with full visibility
func (h *AdminHandler) ConversationMessages(ctx context.Context, c *app.RequestContext) {
	conversationId := c.Param("id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	var req service.ListMessagesRequest
	if err := c.BindQuery(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	resp, err := h.adminChat.ListMessages(ctx, conversationId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, resp)
}

// PendingVerifications returns the review queue
func (h *AdminHandler) PendingVerifications(ctx context.Context, c *app.RequestContext) {
	requests, err := h.verification.ListPending(ctx)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, requests)
}

// ReviewVerification applies an admin decision
func (h *AdminHandler) ReviewVerification(ctx context.Context, c *app.RequestContext) {
	requestId := c.Param("id")
	if requestId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	var req service.ReviewRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	request, err := h.verification.Review(ctx, requestId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, request)
}
