package entity

// Message is one chat message. DeliveredAt and ReadAt are independent
// set-once signals: either may be set without the other, and neither is
// ever reset or moved backward once non-null.
type Message struct {
	Id             string       `json:"id" gorm:"column:id;primaryKey"`
	ConversationId string       `json:"conversation_id" gorm:"column:conversation_id;index:idx_conv_sent"`
	SenderType     IdentityType `json:"sender_type" gorm:"column:sender_type"`
	SenderId       string       `json:"sender_id" gorm:"column:sender_id"`
	Content        string       `json:"content" gorm:"column:content"`
	SentAt         int64        `json:"sent_at" gorm:"column:sent_at;index:idx_conv_sent"`
	DeliveredAt    *int64       `json:"delivered_at" gorm:"column:delivered_at"`
	ReadAt         *int64       `json:"read_at" gorm:"column:read_at"`
	CreatedAt      int64        `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageInfo is the message projection returned to participants. ReadAt
// is filtered by the read-receipt policy before it leaves the service.
type MessageInfo struct {
	Id             string  `json:"id"`
	ConversationId string  `json:"conversation_id"`
	SenderType     string  `json:"sender_type"`
	SenderId       string  `json:"sender_id"`
	Content        string  `json:"content"`
	SentAt         string  `json:"sent_at"`
	DeliveredAt    *string `json:"delivered_at,omitempty"`
	ReadAt         *string `json:"read_at,omitempty"`
}

// ToMessageInfo converts Message to MessageInfo with all fields visible.
func (m *Message) ToMessageInfo() *MessageInfo {
	return &MessageInfo{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		SenderType:     string(m.SenderType),
		SenderId:       m.SenderId,
		Content:        m.Content,
		SentAt:         FormatMilli(m.SentAt),
		DeliveredAt:    FormatMilliPtr(m.DeliveredAt),
		ReadAt:         FormatMilliPtr(m.ReadAt),
	}
}
