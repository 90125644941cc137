package gateway

import "errors"

// Gateway errors
var (
	ErrConnClosed       = errors.New("connection closed")
	ErrWriteChannelFull = errors.New("write channel full")
	ErrInvalidProtocol  = errors.New("invalid protocol")
	ErrNotJoined        = errors.New("conversation not joined")
	ErrAccessDenied     = errors.New("access denied")
	ErrPanic            = errors.New("panic error")
)
