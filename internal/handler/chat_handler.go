package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/middleware"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/response"
)

// ChatHandler handles the participant-facing chat endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// openConversationRequest represents a consumer opening a chat with a plant
type openConversationRequest struct {
	PlantId string `json:"plant_id"`
}

// OpenConversation gets or creates the conversation between the calling
// consumer and a plant
func (h *ChatHandler) OpenConversation(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)
	if id.Type != entity.IdentityConsumer {
		response.ErrorWithCode(ctx, c, errcode.ErrForbidden)
		return
	}

	var req openConversationRequest
	if err := c.BindAndValidate(&req); err != nil || req.PlantId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	conv, err := h.chatService.GetOrCreateConversation(ctx, id.Id, req.PlantId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, conv)
}

// ListConversations lists the caller's conversations
func (h *ChatHandler) ListConversations(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	convs, err := h.chatService.ListConversations(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, convs)
}

// UnreadCount returns the caller's total unread message count
func (h *ChatHandler) UnreadCount(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	count, err := h.chatService.UnreadCount(ctx, id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]int64{"unread_count": count})
}

// ListMessages returns a page of conversation history
func (h *ChatHandler) ListMessages(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

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

	resp, err := h.chatService.ListMessages(ctx, conversationId, id, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, resp)
}

// sendMessageRequest represents the HTTP send message body
type sendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage sends a message into a conversation
func (h *ChatHandler) SendMessage(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	conversationId := c.Param("id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	var req sendMessageRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	info, err := h.chatService.SendMessage(ctx, conversationId, id, req.Content)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// MarkRead marks every unread counterpart message in the conversation
func (h *ChatHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	id := middleware.GetIdentity(c)

	conversationId := c.Param("id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.chatService.MarkAsRead(ctx, conversationId, id); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}
