package service

import (
	"context"
	"errors"
	"strings"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/flowgrid/flowgrid/pkg/idgen"
	"github.com/mbeoliero/kit/log"
	"gorm.io/gorm"
)

// ChatService handles conversation and message business logic
type ChatService struct {
	convStore repository.ConversationStore
	msgStore  repository.MessageStore
	accounts  repository.AccountStore
	plants    repository.PlantStore
	notices   repository.NotificationStore
	sink      EventSink
}

// NewChatService creates a new ChatService
func NewChatService(repos *repository.Repositories) *ChatService {
	return &ChatService{
		convStore: repos.Conversation,
		msgStore:  repos.Message,
		accounts:  repos.Account,
		plants:    repos.Plant,
		notices:   repos.Notification,
	}
}

// SetSink sets the event sink. Services tolerate a nil sink so writes
// succeed even before the gateway is wired up.
func (s *ChatService) SetSink(sink EventSink) {
	s.sink = sink
}

func (s *ChatService) emitToUser(id entity.Identity, event string, payload interface{}) {
	if s.sink == nil {
		return
	}
	s.sink.BroadcastToUser(id, event, payload)
}

func (s *ChatService) emitToAdmins(event string, payload interface{}) {
	if s.sink == nil {
		return
	}
	s.sink.BroadcastToRole(entity.IdentityAdmin, event, payload)
}

// GetOrCreateConversation returns the single conversation between a consumer
// and a plant, creating it on first contact. Concurrent first contact is
// resolved by the unique index: the loser re-fetches the winner's row.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, consumerId, plantId string) (*entity.ConversationInfo, error) {
	plant, err := s.plants.GetById(ctx, plantId)
	if err != nil {
		log.CtxError(ctx, "get plant failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if plant == nil {
		return nil, errcode.ErrPlantNotFound
	}

	owner, err := s.accounts.GetOwner(ctx, plant.OwnerId)
	if err != nil {
		log.CtxError(ctx, "get owner failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	conv, err := s.convStore.Find(ctx, consumerId, plantId)
	if err != nil {
		log.CtxError(ctx, "find conversation failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	if conv == nil {
		id, err := idgen.NextID()
		if err != nil {
			return nil, errcode.ErrInternalServer.Wrap(err)
		}
		conv = &entity.Conversation{
			Id:         id,
			ConsumerId: consumerId,
			OwnerId:    plant.OwnerId,
			PlantId:    plantId,
		}
		err = s.convStore.Create(ctx, conv)
		switch {
		case err == nil:
			s.emitToAdmins(constant.EventChatCreated, &ChatCreatedPayload{
				Id:         conv.Id,
				ConsumerId: consumerId,
				OwnerId:    plant.OwnerId,
				PlantId:    plantId,
				PlantName:  plant.Name,
				OwnerName:  owner.Name,
			})
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// Lost the creation race, the existing row wins.
			conv, err = s.convStore.Find(ctx, consumerId, plantId)
			if err != nil || conv == nil {
				log.CtxError(ctx, "refetch conversation after duplicate failed: %v", err)
				return nil, errcode.ErrInternalServer
			}
		default:
			log.CtxError(ctx, "create conversation failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
	}

	unread, err := s.msgStore.CountUnread(ctx, conv.Id, entity.IdentityOwner)
	if err != nil {
		log.CtxWarn(ctx, "count unread failed: %v", err)
	}

	return &entity.ConversationInfo{
		Id:             conv.Id,
		PlantId:        plant.Id,
		PlantName:      plant.Name,
		PlantAddress:   plant.Address,
		OtherPartyName: owner.Name,
		UnreadCount:    unread,
		CreatedAt:      entity.FormatMilli(conv.CreatedAt),
	}, nil
}

// ListConversations returns the viewer's conversations ordered by recency,
// each with a last-message preview and the viewer's unread count.
func (s *ChatService) ListConversations(ctx context.Context, viewer entity.Identity) ([]*entity.ConversationInfo, error) {
	convs, err := s.convStore.ListByParticipant(ctx, viewer.Type, viewer.Id)
	if err != nil {
		log.CtxError(ctx, "list conversations failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.ConversationInfo, 0, len(convs))
	for _, conv := range convs {
		info, err := s.buildConversationInfo(ctx, conv, viewer.Type)
		if err != nil {
			log.CtxWarn(ctx, "build conversation info failed: conv_id=%s err=%v", conv.Id, err)
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *ChatService) buildConversationInfo(ctx context.Context, conv *entity.Conversation, viewerType entity.IdentityType) (*entity.ConversationInfo, error) {
	plant, err := s.plants.GetById(ctx, conv.PlantId)
	if err != nil {
		return nil, err
	}

	info := &entity.ConversationInfo{
		Id:        conv.Id,
		CreatedAt: entity.FormatMilli(conv.CreatedAt),
	}
	if plant != nil {
		info.PlantId = plant.Id
		info.PlantName = plant.Name
		info.PlantAddress = plant.Address
	}

	name, err := s.otherPartyName(ctx, conv, viewerType)
	if err != nil {
		return nil, err
	}
	info.OtherPartyName = name

	unread, err := s.msgStore.CountUnread(ctx, conv.Id, viewerType.Counterpart())
	if err != nil {
		return nil, err
	}
	info.UnreadCount = unread

	latest, err := s.msgStore.List(ctx, conv.Id, repository.ListMessagesQuery{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(latest) > 0 {
		info.LastMessage = &entity.LastMessageInfo{
			Content:    latest[0].Content,
			SentAt:     entity.FormatMilli(latest[0].SentAt),
			SenderType: string(latest[0].SenderType),
		}
	}
	return info, nil
}

// otherPartyName resolves the counterpart's visible name. Owners only ever
// see the consumer's display name; the consumer's real name stays private.
func (s *ChatService) otherPartyName(ctx context.Context, conv *entity.Conversation, viewerType entity.IdentityType) (string, error) {
	if viewerType == entity.IdentityConsumer {
		owner, err := s.accounts.GetOwner(ctx, conv.OwnerId)
		if err != nil {
			return "", err
		}
		return owner.Name, nil
	}
	consumer, err := s.accounts.GetConsumer(ctx, conv.ConsumerId)
	if err != nil {
		return "", err
	}
	return consumer.DisplayName, nil
}

// UnreadCount returns the viewer's total unread messages across all their
// conversations.
func (s *ChatService) UnreadCount(ctx context.Context, viewer entity.Identity) (int64, error) {
	convs, err := s.convStore.ListByParticipant(ctx, viewer.Type, viewer.Id)
	if err != nil {
		log.CtxError(ctx, "list conversations failed: %v", err)
		return 0, errcode.ErrInternalServer
	}
	if len(convs) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(convs))
	for _, conv := range convs {
		ids = append(ids, conv.Id)
	}

	count, err := s.msgStore.CountUnreadIn(ctx, ids, viewer.Type.Counterpart())
	if err != nil {
		log.CtxError(ctx, "count unread failed: %v", err)
		return 0, errcode.ErrInternalServer
	}
	return count, nil
}

// SendMessage persists and fans out one message. Delivery is unconditional:
// read-receipt settings never gate this path.
func (s *ChatService) SendMessage(ctx context.Context, conversationId string, sender entity.Identity, content string) (*entity.MessageInfo, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errcode.ErrEmptyContent
	}

	conv, err := s.requireParticipant(ctx, conversationId, sender)
	if err != nil {
		return nil, err
	}

	id, err := idgen.NextID()
	if err != nil {
		return nil, errcode.ErrInternalServer.Wrap(err)
	}

	msg := &entity.Message{
		Id:             id,
		ConversationId: conversationId,
		SenderType:     sender.Type,
		SenderId:       sender.Id,
		Content:        content,
		SentAt:         entity.NowUnixMilli(),
	}
	if err := s.msgStore.Append(ctx, msg); err != nil {
		log.CtxError(ctx, "append message failed: %v", err)
		return nil, errcode.ErrSendFailed.Wrap(err)
	}

	if err := s.convStore.TouchLastMessageAt(ctx, conversationId, msg.SentAt); err != nil {
		log.CtxWarn(ctx, "touch last_message_at failed: conv_id=%s err=%v", conversationId, err)
	}

	// Best effort, a failed notification row never fails the send.
	if sender.Type == entity.IdentityConsumer {
		s.createMessageNotification(ctx, conv.OwnerId)
	}

	info := msg.ToMessageInfo()
	payload := &MessageNewPayload{Message: info, ConversationId: conversationId}
	s.emitToUser(entity.Identity{Type: entity.IdentityConsumer, Id: conv.ConsumerId}, constant.EventMessageNew, payload)
	s.emitToUser(entity.Identity{Type: entity.IdentityOwner, Id: conv.OwnerId}, constant.EventMessageNew, payload)
	s.emitToAdmins(constant.EventChatMessage, &ChatMessagePayload{
		Message:        info,
		ConversationId: conversationId,
		ConsumerId:     conv.ConsumerId,
		OwnerId:        conv.OwnerId,
	})

	return info, nil
}

func (s *ChatService) createMessageNotification(ctx context.Context, ownerId string) {
	id, err := idgen.NextID()
	if err != nil {
		log.CtxWarn(ctx, "gen notification id failed: %v", err)
		return
	}
	n := &entity.Notification{
		Id:      id,
		OwnerId: ownerId,
		Type:    constant.NotificationNewMessage,
		Title:   "New Message",
		Message: "You have a new message",
	}
	if err := s.notices.Create(ctx, n); err != nil {
		log.CtxWarn(ctx, "create notification failed: owner_id=%s err=%v", ownerId, err)
	}
}

// ListMessagesRequest selects a message page. Before is a message id; when
// set it wins over Page and the page is everything strictly older.
type ListMessagesRequest struct {
	Page   int    `json:"page" query:"page"`
	Limit  int    `json:"limit" query:"limit"`
	Before string `json:"before" query:"before"`
}

// ConversationHeader is the conversation summary attached to a message page.
type ConversationHeader struct {
	Id             string `json:"id"`
	PlantId        string `json:"plant_id"`
	PlantName      string `json:"plant_name"`
	PlantAddress   string `json:"plant_address"`
	OtherPartyName string `json:"other_party_name"`
}

// ListMessagesResponse is one page of messages in ascending sentAt order.
type ListMessagesResponse struct {
	Messages     []*entity.MessageInfo `json:"messages"`
	HasMore      bool                  `json:"has_more"`
	Conversation *ConversationHeader   `json:"conversation"`
}

// ListMessages returns a page of conversation history for a participant,
// with readAt filtered by the counterpart's read-receipt flag.
func (s *ChatService) ListMessages(ctx context.Context, conversationId string, viewer entity.Identity, req *ListMessagesRequest) (*ListMessagesResponse, error) {
	conv, err := s.requireParticipant(ctx, conversationId, viewer)
	if err != nil {
		return nil, err
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

	query := repository.ListMessagesQuery{Limit: limit + 1}
	if req.Before != "" {
		beforeMsg, err := s.msgStore.GetById(ctx, req.Before)
		if err != nil {
			log.CtxError(ctx, "get cursor message failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		if beforeMsg != nil && beforeMsg.ConversationId == conversationId {
			query.BeforeSentAt = beforeMsg.SentAt
		}
	} else {
		query.Offset = (page - 1) * limit
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

	counterpart := entity.Identity{
		Type: viewer.Type.Counterpart(),
		Id:   conv.Participant(viewer.Type.Counterpart()),
	}
	counterpartEnabled, err := s.accounts.ReadReceiptsEnabled(ctx, counterpart)
	if err != nil {
		log.CtxWarn(ctx, "resolve read receipts failed, defaulting on: %v", err)
		counterpartEnabled = true
	}

	// Fetched newest first, returned ascending.
	infos := make([]*entity.MessageInfo, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		info := msg.ToMessageInfo()
		if !ShowReadAt(msg.SenderType == viewer.Type, counterpartEnabled) {
			info.ReadAt = nil
		}
		infos = append(infos, info)
	}

	name, err := s.otherPartyName(ctx, conv, viewer.Type)
	if err != nil {
		log.CtxError(ctx, "resolve other party failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	header := &ConversationHeader{
		Id:             conv.Id,
		PlantId:        conv.PlantId,
		OtherPartyName: name,
	}
	if plant, err := s.plants.GetById(ctx, conv.PlantId); err == nil && plant != nil {
		header.PlantName = plant.Name
		header.PlantAddress = plant.Address
	}

	return &ListMessagesResponse{Messages: infos, HasMore: hasMore, Conversation: header}, nil
}

// MarkAsRead marks every unread counterpart message in the conversation as
// read. readAt is always persisted; the reader's privacy flag only controls
// whether the sender is told. Admins are always told.
func (s *ChatService) MarkAsRead(ctx context.Context, conversationId string, reader entity.Identity) error {
	conv, err := s.requireParticipant(ctx, conversationId, reader)
	if err != nil {
		return err
	}

	readerEnabled, err := s.accounts.ReadReceiptsEnabled(ctx, reader)
	if err != nil {
		log.CtxWarn(ctx, "resolve read receipts failed, defaulting on: %v", err)
		readerEnabled = true
	}

	ids, err := s.msgStore.UnreadIds(ctx, conversationId, reader.Type.Counterpart())
	if err != nil {
		log.CtxError(ctx, "list unread ids failed: %v", err)
		return errcode.ErrInternalServer
	}
	if len(ids) == 0 {
		return nil
	}

	readAt := entity.NowUnixMilli()
	updated, err := s.msgStore.MarkRead(ctx, ids, readAt)
	if err != nil {
		log.CtxError(ctx, "mark read failed: %v", err)
		return errcode.ErrInternalServer
	}
	log.CtxDebug(ctx, "marked read: conv_id=%s reader=%s count=%d", conversationId, reader.Key(), updated)

	convUpdated := &ConversationUpdatedPayload{
		Id:                  conversationId,
		ConsumerId:          conv.ConsumerId,
		OwnerId:             conv.OwnerId,
		ReadBy:              string(reader.Type),
		MessagesRead:        len(ids),
		ReadReceiptsEnabled: readerEnabled,
	}
	s.emitToUser(entity.Identity{Type: entity.IdentityConsumer, Id: conv.ConsumerId}, constant.EventConversationUpdated, convUpdated)
	s.emitToUser(entity.Identity{Type: entity.IdentityOwner, Id: conv.OwnerId}, constant.EventConversationUpdated, convUpdated)
	s.emitToAdmins(constant.EventChatUpdated, convUpdated)

	readAtStr := entity.FormatMilli(readAt)
	s.emitToAdmins(constant.EventChatRead, &ChatReadPayload{
		ConversationId: conversationId,
		MessageIds:     ids,
		ReadAt:         readAtStr,
		ConsumerId:     conv.ConsumerId,
		OwnerId:        conv.OwnerId,
		ReadBy:         string(reader.Type),
	})

	if ReadEventVisibleToSender(readerEnabled) {
		sender := entity.Identity{
			Type: reader.Type.Counterpart(),
			Id:   conv.Participant(reader.Type.Counterpart()),
		}
		s.emitToUser(sender, constant.EventMessagesRead, &MessagesReadPayload{
			ConversationId: conversationId,
			MessageIds:     ids,
			ReadAt:         readAtStr,
		})
	}

	return nil
}

// MarkMessageDelivered records a delivery ack from the recipient. Set-once:
// repeat acks are silently absorbed and emit nothing.
func (s *ChatService) MarkMessageDelivered(ctx context.Context, messageId string, recipient entity.Identity) error {
	msg, conv, err := s.loadMessageFor(ctx, messageId, recipient)
	if err != nil {
		return err
	}
	if msg.SenderType == recipient.Type {
		// Only the receiving side acks delivery.
		return errcode.ErrNoPermission
	}

	ts := entity.NowUnixMilli()
	set, err := s.msgStore.SetDelivered(ctx, messageId, ts)
	if err != nil {
		log.CtxError(ctx, "set delivered failed: %v", err)
		return errcode.ErrInternalServer
	}
	if !set {
		return nil
	}

	s.emitToUser(entity.Identity{Type: msg.SenderType, Id: msg.SenderId}, constant.EventMessageDelivered, &MessageDeliveredPayload{
		ConversationId: conv.Id,
		MessageId:      messageId,
		DeliveredAt:    entity.FormatMilli(ts),
	})
	return nil
}

// MarkMessageRead records a single-message read ack. readAt is always
// persisted; the sender only hears about it if the reader's flag allows.
func (s *ChatService) MarkMessageRead(ctx context.Context, messageId string, reader entity.Identity) error {
	msg, conv, err := s.loadMessageFor(ctx, messageId, reader)
	if err != nil {
		return err
	}
	if msg.SenderType == reader.Type {
		return errcode.ErrNoPermission
	}

	ts := entity.NowUnixMilli()
	set, err := s.msgStore.SetRead(ctx, messageId, ts)
	if err != nil {
		log.CtxError(ctx, "set read failed: %v", err)
		return errcode.ErrInternalServer
	}
	if !set {
		return nil
	}

	readerEnabled, err := s.accounts.ReadReceiptsEnabled(ctx, reader)
	if err != nil {
		log.CtxWarn(ctx, "resolve read receipts failed, defaulting on: %v", err)
		readerEnabled = true
	}

	readAtStr := entity.FormatMilli(ts)
	s.emitToAdmins(constant.EventChatRead, &ChatReadPayload{
		ConversationId: conv.Id,
		MessageIds:     []string{messageId},
		ReadAt:         readAtStr,
		ConsumerId:     conv.ConsumerId,
		OwnerId:        conv.OwnerId,
		ReadBy:         string(reader.Type),
	})
	if ReadEventVisibleToSender(readerEnabled) {
		s.emitToUser(entity.Identity{Type: msg.SenderType, Id: msg.SenderId}, constant.EventMessagesRead, &MessagesReadPayload{
			ConversationId: conv.Id,
			MessageIds:     []string{messageId},
			ReadAt:         readAtStr,
		})
	}
	return nil
}

// RelayTyping forwards an ephemeral typing indicator to the counterpart.
// Nothing is persisted.
func (s *ChatService) RelayTyping(ctx context.Context, conversationId string, from entity.Identity, isTyping bool) error {
	conv, err := s.requireParticipant(ctx, conversationId, from)
	if err != nil {
		return err
	}

	counterpart := entity.Identity{
		Type: from.Type.Counterpart(),
		Id:   conv.Participant(from.Type.Counterpart()),
	}
	s.emitToUser(counterpart, constant.EventUserTyping, &TypingPayload{
		ConversationId: conversationId,
		UserId:         from.Id,
		UserType:       string(from.Type),
		IsTyping:       isTyping,
	})
	return nil
}

// VerifyConversationAccess reports whether the identity may observe the
// conversation. Fails closed on absence. Admins observe everything.
func (s *ChatService) VerifyConversationAccess(ctx context.Context, conversationId string, id entity.Identity) (bool, error) {
	conv, err := s.convStore.GetById(ctx, conversationId)
	if err != nil {
		return false, err
	}
	if conv == nil {
		return false, nil
	}
	if id.Type == entity.IdentityAdmin {
		return true, nil
	}
	return conv.HasParticipant(id), nil
}

func (s *ChatService) requireParticipant(ctx context.Context, conversationId string, id entity.Identity) (*entity.Conversation, error) {
	conv, err := s.convStore.GetById(ctx, conversationId)
	if err != nil {
		log.CtxError(ctx, "get conversation failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if conv == nil {
		return nil, errcode.ErrConvNotFound
	}
	if !conv.HasParticipant(id) {
		return nil, errcode.ErrConvAccess
	}
	return conv, nil
}

func (s *ChatService) loadMessageFor(ctx context.Context, messageId string, id entity.Identity) (*entity.Message, *entity.Conversation, error) {
	msg, err := s.msgStore.GetById(ctx, messageId)
	if err != nil {
		log.CtxError(ctx, "get message failed: %v", err)
		return nil, nil, errcode.ErrInternalServer
	}
	if msg == nil {
		return nil, nil, errcode.ErrMessageNotFound
	}
	conv, err := s.requireParticipant(ctx, msg.ConversationId, id)
	if err != nil {
		return nil, nil, err
	}
	return msg, conv, nil
}
