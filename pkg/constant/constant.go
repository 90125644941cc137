package constant

// Identity types (also the role rooms on the sync channel)
const (
	IdentityConsumer = "consumer"
	IdentityOwner    = "owner"
	IdentityAdmin    = "admin"
)

// Outbound event names pushed over the sync channel
const (
	EventMessageNew          = "message:new"
	EventMessageDelivered    = "message:delivered"
	EventMessagesRead        = "messages:read"
	EventConversationUpdated = "conversation:updated"
	EventUserTyping          = "user_typing"

	// Admin observability mirrors
	EventChatCreated = "chat:created"
	EventChatMessage = "chat:message"
	EventChatRead    = "chat:read"
	EventChatUpdated = "chat:updated"

	// Public listing events
	EventPlantCreated  = "plant:created"
	EventPlantUpdated  = "plant:updated"
	EventPlantDeleted  = "plant:deleted"
	EventPlantVerified = "plant:verified"

	// Verification events
	EventVerificationCreated = "verification:created"
	EventVerificationUpdated = "verification:updated"
)

// Notification types
const (
	NotificationNewMessage           = "NEW_MESSAGE"
	NotificationVerificationApproved = "VERIFICATION_APPROVED"
	NotificationVerificationRejected = "VERIFICATION_REJECTED"
)

// Verification request statuses
const (
	VerificationPending  = "PENDING"
	VerificationApproved = "APPROVED"
	VerificationRejected = "REJECTED"
)

// Pagination defaults for message listing
const (
	DefaultMessagePageLimit = 50
	MaxMessagePageLimit     = 100
)

// Redis key patterns (without prefix, use RedisKey*() to get full key)
const (
	redisKeyToken        = "token:%s"        // token:{identity_key}
	redisKeyOnline       = "online:%s"       // online:{identity_key}
	redisKeyReadReceipts = "readreceipts:%s" // readreceipts:{identity_key}
)

// redisKeyPrefix is the global prefix for all Redis keys
var redisKeyPrefix = "flowgrid:"

// InitRedisKeyPrefix initializes the Redis key prefix from config
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

// Redis key getters with prefix
func RedisKeyToken() string        { return redisKeyPrefix + redisKeyToken }
func RedisKeyOnline() string       { return redisKeyPrefix + redisKeyOnline }
func RedisKeyReadReceipts() string { return redisKeyPrefix + redisKeyReadReceipts }
