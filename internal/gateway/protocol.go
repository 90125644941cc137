package gateway

import "encoding/json"

// WSRequest represents an inbound WebSocket frame
type WSRequest struct {
	Action string          `json:"action"`  // Action name
	ReqId  string          `json:"req_id"`  // Client request counter/trace Id
	Data   json.RawMessage `json:"data"`    // Action payload
}

// WSResponse represents a direct reply to an inbound frame
type WSResponse struct {
	Action  string          `json:"action"`            // Action name (echo back)
	ReqId   string          `json:"req_id"`            // Request Id (echo back)
	ErrCode int             `json:"err_code"`          // Error code, 0 = success
	ErrMsg  string          `json:"err_msg,omitempty"` // Error message
	Data    json.RawMessage `json:"data,omitempty"`    // Reply payload
}

// EventFrame represents a server-initiated push. Action is empty so
// clients can tell pushes from replies.
type EventFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// JoinConversationReq represents join/leave conversation payload
type JoinConversationReq struct {
	ConversationId string `json:"conversation_id"`
}

// SendMessageReq represents send message payload
type SendMessageReq struct {
	ConversationId string `json:"conversation_id"`
	Content        string `json:"content"`
}

// TypingReq represents typing indicator payload
type TypingReq struct {
	ConversationId string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

// AckReq represents mark_read / mark_delivered payload
type AckReq struct {
	ConversationId string `json:"conversation_id"`
	MessageId      string `json:"message_id"`
}

// JoinResp acknowledges a room membership change
type JoinResp struct {
	Success bool `json:"success"`
}

// Encode encodes data to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Decode decodes JSON bytes to struct
func Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
