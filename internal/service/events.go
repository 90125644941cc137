package service

import "github.com/flowgrid/flowgrid/internal/entity"

// EventSink receives push events from the service layer. The gateway
// broadcaster implements it; services hold a nil-safe reference so business
// writes never depend on the push path being up.
type EventSink interface {
	// BroadcastToUser pushes to every connection of one identity. No-op
	// when the identity has no connections.
	BroadcastToUser(id entity.Identity, event string, payload interface{})
	// BroadcastToRole pushes to every connection of an identity type.
	BroadcastToRole(t entity.IdentityType, event string, payload interface{})
	// BroadcastToAll pushes to every connection.
	BroadcastToAll(event string, payload interface{})
}

// MessageNewPayload carries a freshly sent message to both participants.
type MessageNewPayload struct {
	Message        *entity.MessageInfo `json:"message"`
	ConversationId string              `json:"conversation_id"`
}

// ChatMessagePayload is the admin mirror of message:new with party ids.
type ChatMessagePayload struct {
	Message        *entity.MessageInfo `json:"message"`
	ConversationId string              `json:"conversation_id"`
	ConsumerId     string              `json:"consumer_id"`
	OwnerId        string              `json:"owner_id"`
}

// ChatCreatedPayload announces a new conversation to admins.
type ChatCreatedPayload struct {
	Id         string `json:"id"`
	ConsumerId string `json:"consumer_id"`
	OwnerId    string `json:"owner_id"`
	PlantId    string `json:"plant_id"`
	PlantName  string `json:"plant_name"`
	OwnerName  string `json:"owner_name"`
}

// ConversationUpdatedPayload tells both parties to refresh badge counts.
type ConversationUpdatedPayload struct {
	Id                  string `json:"id"`
	ConsumerId          string `json:"consumer_id"`
	OwnerId             string `json:"owner_id"`
	ReadBy              string `json:"read_by"`
	MessagesRead        int    `json:"messages_read"`
	ReadReceiptsEnabled bool   `json:"read_receipts_enabled"`
}

// MessagesReadPayload tells the sender which of their messages were read.
// Only emitted when the reader's privacy flag allows it.
type MessagesReadPayload struct {
	ConversationId string   `json:"conversation_id"`
	MessageIds     []string `json:"message_ids"`
	ReadAt         string   `json:"read_at"`
}

// ChatReadPayload is the admin mirror of a read event. Emitted regardless
// of the reader's privacy flag.
type ChatReadPayload struct {
	ConversationId string   `json:"conversation_id"`
	MessageIds     []string `json:"message_ids"`
	ReadAt         string   `json:"read_at"`
	ConsumerId     string   `json:"consumer_id"`
	OwnerId        string   `json:"owner_id"`
	ReadBy         string   `json:"read_by"`
}

// MessageDeliveredPayload acknowledges delivery of one message to its sender.
type MessageDeliveredPayload struct {
	ConversationId string `json:"conversation_id"`
	MessageId      string `json:"message_id"`
	DeliveredAt    string `json:"delivered_at"`
}

// TypingPayload relays an ephemeral typing indicator. Never persisted.
type TypingPayload struct {
	ConversationId string `json:"conversation_id"`
	UserId         string `json:"user_id"`
	UserType       string `json:"user_type"`
	IsTyping       bool   `json:"is_typing"`
}

// PlantDeletedPayload carries the id of a removed listing.
type PlantDeletedPayload struct {
	Id string `json:"id"`
}

// PlantVerifiedPayload tells consumers a listing passed verification.
type PlantVerifiedPayload struct {
	PlantId string `json:"plant_id"`
}
