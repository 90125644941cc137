package repository

import (
	"context"

	"github.com/flowgrid/flowgrid/internal/entity"
)

// The service layer depends on these contracts rather than concrete repos
// so chat logic can be tested against in-memory fakes.

// ListMessagesQuery selects a message page. BeforeSentAt switches to cursor
// pagination ("strictly older than"); otherwise Offset applies.
type ListMessagesQuery struct {
	BeforeSentAt int64 // 0 = no cursor
	Offset       int
	Limit        int
}

// AdminConversationQuery filters the admin conversation listing.
type AdminConversationQuery struct {
	PlantId    string
	OwnerId    string
	ConsumerId string
	Offset     int
	Limit      int
}

// ConversationStore is the conversation persistence contract.
type ConversationStore interface {
	// Find returns nil, nil when no conversation exists for the pair.
	Find(ctx context.Context, consumerId, plantId string) (*entity.Conversation, error)
	// Create returns gorm.ErrDuplicatedKey when the (consumer, plant)
	// uniqueness constraint fires.
	Create(ctx context.Context, conv *entity.Conversation) error
	// GetById returns nil, nil when absent.
	GetById(ctx context.Context, id string) (*entity.Conversation, error)
	TouchLastMessageAt(ctx context.Context, id string, ts int64) error
	ListByParticipant(ctx context.Context, t entity.IdentityType, participantId string) ([]*entity.Conversation, error)
	Search(ctx context.Context, q *AdminConversationQuery) ([]*entity.Conversation, int64, error)
}

// MessageStore is the message persistence contract.
type MessageStore interface {
	Append(ctx context.Context, msg *entity.Message) error
	// GetById returns nil, nil when absent.
	GetById(ctx context.Context, id string) (*entity.Message, error)
	// List returns messages newest-first.
	List(ctx context.Context, conversationId string, q ListMessagesQuery) ([]*entity.Message, error)
	// UnreadIds returns ids of messages sent by fromSender with read_at null.
	UnreadIds(ctx context.Context, conversationId string, fromSender entity.IdentityType) ([]string, error)
	// MarkRead sets read_at on the given ids where still null, returning the
	// number of rows actually updated.
	MarkRead(ctx context.Context, ids []string, readAt int64) (int64, error)
	// SetDelivered/SetRead are guarded single-row updates; they report false
	// without touching the row when the timestamp was already set.
	SetDelivered(ctx context.Context, id string, ts int64) (bool, error)
	SetRead(ctx context.Context, id string, ts int64) (bool, error)
	CountUnread(ctx context.Context, conversationId string, fromSender entity.IdentityType) (int64, error)
	CountUnreadIn(ctx context.Context, conversationIds []string, fromSender entity.IdentityType) (int64, error)
	Stats(ctx context.Context) (*entity.ChatStats, error)
}

// AccountStore is the consumer/owner/admin persistence contract.
type AccountStore interface {
	GetConsumer(ctx context.Context, id string) (*entity.Consumer, error)
	GetOwner(ctx context.Context, id string) (*entity.Owner, error)
	GetAdmin(ctx context.Context, id string) (*entity.Admin, error)
	GetConsumerByEmail(ctx context.Context, email string) (*entity.Consumer, error)
	GetOwnerByEmail(ctx context.Context, email string) (*entity.Owner, error)
	GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error)
	CreateConsumer(ctx context.Context, c *entity.Consumer) error
	CreateOwner(ctx context.Context, o *entity.Owner) error
	UpdateConsumer(ctx context.Context, id string, updates map[string]interface{}) error
	UpdateOwner(ctx context.Context, id string, updates map[string]interface{}) error
	// ReadReceiptsEnabled resolves the privacy flag for a consumer or owner
	// identity; unknown identities default to true.
	ReadReceiptsEnabled(ctx context.Context, id entity.Identity) (bool, error)
}

// PlantStore is the plant persistence contract.
type PlantStore interface {
	Create(ctx context.Context, p *entity.Plant) error
	// GetById returns nil, nil when absent.
	GetById(ctx context.Context, id string) (*entity.Plant, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerId string) ([]*entity.Plant, error)
	ListAll(ctx context.Context, offset, limit int) ([]*entity.Plant, error)
}

// NotificationStore is the notification persistence contract.
type NotificationStore interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByOwner(ctx context.Context, ownerId string) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id, ownerId string, readAt int64) error
}

// VerificationStore is the verification-request persistence contract.
type VerificationStore interface {
	Create(ctx context.Context, v *entity.VerificationRequest) error
	// GetById returns nil, nil when absent.
	GetById(ctx context.Context, id string) (*entity.VerificationRequest, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	ListByStatus(ctx context.Context, status string) ([]*entity.VerificationRequest, error)
	ListByOwner(ctx context.Context, ownerId string) ([]*entity.VerificationRequest, error)
}
