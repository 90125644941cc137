package service

import (
	"context"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/mbeoliero/kit/log"
)

// AdminChatService is the oversight surface. It sees every conversation,
// every message and every readAt: read-receipt privacy never applies here.
type AdminChatService struct {
	convStore repository.ConversationStore
	msgStore  repository.MessageStore
	accounts  repository.AccountStore
	plants    repository.PlantStore
}

// NewAdminChatService creates a new AdminChatService
func NewAdminChatService(repos *repository.Repositories) *AdminChatService {
	return &AdminChatService{
		convStore: repos.Conversation,
		msgStore:  repos.Message,
		accounts:  repos.Account,
		plants:    repos.Plant,
	}
}

// AdminConversationInfo is the admin listing row. Unlike the participant
// projection it carries both party ids and the consumer's real name.
type AdminConversationInfo struct {
	Id            string `json:"id"`
	ConsumerId    string `json:"consumer_id"`
	ConsumerName  string `json:"consumer_name"`
	OwnerId       string `json:"owner_id"`
	OwnerName     string `json:"owner_name"`
	PlantId       string `json:"plant_id"`
	PlantName     string `json:"plant_name"`
	LastMessageAt string `json:"last_message_at"`
	CreatedAt     string `json:"created_at"`
}

// SearchConversationsResponse is a page of admin conversation rows
type SearchConversationsResponse struct {
	Conversations []*AdminConversationInfo `json:"conversations"`
	Total         int64                    `json:"total"`
}

// Stats returns the chat dashboard aggregate
func (s *AdminChatService) Stats(ctx context.Context) (*entity.ChatStats, error) {
	stats, err := s.msgStore.Stats(ctx)
	if err != nil {
		log.CtxError(ctx, "chat stats failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return stats, nil
}

// SearchConversations lists conversations filtered by party or plant
func (s *AdminChatService) SearchConversations(ctx context.Context, q *repository.AdminConversationQuery) (*SearchConversationsResponse, error) {
	convs, total, err := s.convStore.Search(ctx, q)
	if err != nil {
		log.CtxError(ctx, "search conversations failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	rows := make([]*AdminConversationInfo, 0, len(convs))
	for _, conv := range convs {
		row := &AdminConversationInfo{
			Id:            conv.Id,
			ConsumerId:    conv.ConsumerId,
			OwnerId:       conv.OwnerId,
			PlantId:       conv.PlantId,
			LastMessageAt: entity.FormatMilli(conv.LastMessageAt),
			CreatedAt:     entity.FormatMilli(conv.CreatedAt),
		}
		if c, err := s.accounts.GetConsumer(ctx, conv.ConsumerId); err == nil {
			row.ConsumerName = c.Name
		}
		if o, err := s.accounts.GetOwner(ctx, conv.OwnerId); err == nil {
			row.OwnerName = o.Name
		}
		if p, err := s.plants.GetById(ctx, conv.PlantId); err == nil && p != nil {
			row.PlantName = p.Name
		}
		rows = append(rows, row)
	}

	return &SearchConversationsResponse{Conversations: rows, Total: total}, nil
}

// ListMessages returns a page of conversation history with full visibility.
// readAt and deliveredAt are never filtered for admins.
func (s *AdminChatService) ListMessages(ctx context.Context, conversationId string, req *ListMessagesRequest) (*ListMessagesResponse, error) {
	conv, err := s.convStore.GetById(ctx, conversationId)
	if err != nil {
		log.CtxError(ctx, "get conversation failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if conv == nil {
		return nil, errcode.ErrConvNotFound
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = constant.DefaultMessagePageLimit
	}
	if limit > constant.MaxMessagePageLimit {
		limit = constant.MaxMessagePageLimit
	}

	query := repository.ListMessagesQuery{
		Offset: (page - 1) * limit,
		Limit:  limit + 1,
	}
	msgs, err := s.msgStore.List(ctx, conversationId, query)
	if err != nil {
		log.CtxError(ctx, "list messages failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}

	infos := make([]*entity.MessageInfo, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		infos = append(infos, msgs[i].ToMessageInfo())
	}

	header := &ConversationHeader{Id: conv.Id, PlantId: conv.PlantId}
	if p, err := s.plants.GetById(ctx, conv.PlantId); err == nil && p != nil {
		header.PlantName = p.Name
		header.PlantAddress = p.Address
	}

	return &ListMessagesResponse{Messages: infos, HasMore: hasMore, Conversation: header}, nil
}
