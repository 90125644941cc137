package entity

// Conversation joins one consumer and one plant (and through the plant, its
// owner). Exactly one conversation exists per (consumer_id, plant_id) pair;
// the unique index is the final arbiter under concurrent creation.
type Conversation struct {
	Id            string `json:"id" gorm:"column:id;primaryKey"`
	ConsumerId    string `json:"consumer_id" gorm:"column:consumer_id;uniqueIndex:uk_consumer_plant"`
	OwnerId       string `json:"owner_id" gorm:"column:owner_id;index"`
	PlantId       string `json:"plant_id" gorm:"column:plant_id;uniqueIndex:uk_consumer_plant"`
	CreatedAt     int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	LastMessageAt int64  `json:"last_message_at" gorm:"column:last_message_at"`
}

// TableName returns the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// Participant returns the participant id for a side of the conversation.
func (c *Conversation) Participant(t IdentityType) string {
	if t == IdentityConsumer {
		return c.ConsumerId
	}
	return c.OwnerId
}

// HasParticipant reports whether the identity is one of the two parties.
// Admins are not participants; their visibility is handled separately.
func (c *Conversation) HasParticipant(id Identity) bool {
	switch id.Type {
	case IdentityConsumer:
		return c.ConsumerId == id.Id
	case IdentityOwner:
		return c.OwnerId == id.Id
	}
	return false
}

// ConversationInfo is the conversation projection returned to participants.
type ConversationInfo struct {
	Id             string           `json:"id"`
	PlantId        string           `json:"plant_id"`
	PlantName      string           `json:"plant_name"`
	PlantAddress   string           `json:"plant_address"`
	OtherPartyName string           `json:"other_party_name"`
	LastMessage    *LastMessageInfo `json:"last_message,omitempty"`
	UnreadCount    int64            `json:"unread_count"`
	CreatedAt      string           `json:"created_at"`
}

// LastMessageInfo is the preview of the newest message in a listing row.
type LastMessageInfo struct {
	Content    string `json:"content"`
	SentAt     string `json:"sent_at"`
	SenderType string `json:"sender_type"`
}

// ChatStats is the admin dashboard aggregate.
type ChatStats struct {
	TotalConversations int64 `json:"total_conversations"`
	TotalMessages      int64 `json:"total_messages"`
	MessagesLast24h    int64 `json:"messages_last_24h"`
	MessagesLast7d     int64 `json:"messages_last_7d"`
	UnreadMessages     int64 `json:"unread_messages"`
	DeliveredMessages  int64 `json:"delivered_messages"`
	ReadMessages       int64 `json:"read_messages"`
	DeliveryRate       int64 `json:"delivery_rate"`
	ReadRate           int64 `json:"read_rate"`
}
