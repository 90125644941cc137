package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/mbeoliero/kit/log"
)

// Client represents one authenticated WebSocket connection
type Client struct {
	mu        sync.Mutex
	conn      ClientConn
	Identity  entity.Identity
	Token     string
	ConnId    string
	server    *WsServer
	joined    map[string]struct{} // conversation ids this connection joined
	joinedMu  sync.RWMutex
	closed    atomic.Bool
	closedErr error
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new client
func NewClient(conn ClientConn, id entity.Identity, token, connId string, server *WsServer) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:     conn,
		Identity: id,
		Token:    token,
		ConnId:   connId,
		server:   server,
		joined:   make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the client message handling
func (c *Client) Start() {
	go c.readLoop()
}

// readLoop continuously reads frames from the connection
func (c *Client) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			c.closedErr = ErrPanic
			log.CtxError(c.ctx, "client read loop panic: identity=%s, error=%v", c.Identity.Key(), r)
		}
		c.close()
	}()

	for {
		message, err := c.conn.ReadMessage()
		if err != nil {
			log.CtxDebug(c.ctx, "read message error: identity=%s, error=%v", c.Identity.Key(), err)
			c.closedErr = err
			return
		}

		if c.closed.Load() {
			c.closedErr = ErrConnClosed
			return
		}

		if err := c.handleMessage(message); err != nil {
			log.CtxWarn(c.ctx, "handle message error: identity=%s, error=%v", c.Identity.Key(), err)
			c.closedErr = err
			return
		}
	}
}

// handleMessage handles a single inbound frame
func (c *Client) handleMessage(message []byte) error {
	var req WSRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return c.replyError(&req, errcode.ErrInvalidProtocol)
	}

	log.CtxDebug(c.ctx, "received frame: action=%s, identity=%s", req.Action, c.Identity.Key())

	var resp []byte
	var err error

	switch req.Action {
	case ActionJoinConversation:
		resp, err = c.server.HandleJoinConversation(c.ctx, c, &req)
	case ActionLeaveConversation:
		resp, err = c.server.HandleLeaveConversation(c.ctx, c, &req)
	case ActionSendMessage:
		resp, err = c.server.HandleSendMessage(c.ctx, c, &req)
	case ActionTyping:
		resp, err = c.server.HandleTyping(c.ctx, c, &req)
	case ActionMarkRead:
		resp, err = c.server.HandleMarkRead(c.ctx, c, &req)
	case ActionMarkDelivered:
		resp, err = c.server.HandleMarkDelivered(c.ctx, c, &req)
	default:
		return c.replyError(&req, errcode.ErrInvalidProtocol)
	}

	return c.reply(&req, err, resp)
}

// reply sends a direct response to the client
func (c *Client) reply(req *WSRequest, err error, data []byte) error {
	resp := WSResponse{
		Action: req.Action,
		ReqId:  req.ReqId,
		Data:   data,
	}

	if err != nil {
		var bizErr *errcode.Error
		if errors.As(err, &bizErr) {
			resp.ErrCode = bizErr.Code
			resp.ErrMsg = bizErr.Msg
		} else {
			resp.ErrCode = errcode.ErrInternalServer.Code
			resp.ErrMsg = err.Error()
		}
	}

	return c.writeResponse(resp)
}

// replyError sends an error response
func (c *Client) replyError(req *WSRequest, err *errcode.Error) error {
	resp := WSResponse{
		Action:  req.Action,
		ReqId:   req.ReqId,
		ErrCode: err.Code,
		ErrMsg:  err.Msg,
	}
	return c.writeResponse(resp)
}

// writeResponse writes a response to the connection
func (c *Client) writeResponse(resp WSResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return c.conn.WriteMessage(data)
}

// PushEvent pushes a server event frame to the client
func (c *Client) PushEvent(event string, payload interface{}) error {
	if c.closed.Load() {
		return ErrConnClosed
	}

	data, err := json.Marshal(&EventFrame{Event: event, Data: payload})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return ErrConnClosed
	}
	return c.conn.WriteMessage(data)
}

// JoinConversation marks this connection as joined to the conversation
func (c *Client) JoinConversation(conversationId string) {
	c.joinedMu.Lock()
	defer c.joinedMu.Unlock()
	c.joined[conversationId] = struct{}{}
}

// LeaveConversation drops the membership
func (c *Client) LeaveConversation(conversationId string) {
	c.joinedMu.Lock()
	defer c.joinedMu.Unlock()
	delete(c.joined, conversationId)
}

// InConversation reports whether this connection joined the conversation
func (c *Client) InConversation(conversationId string) bool {
	c.joinedMu.RLock()
	defer c.joinedMu.RUnlock()
	_, ok := c.joined[conversationId]
	return ok
}

// Close closes the client connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil
	}

	c.closed.Store(true)
	c.cancel()
	return c.conn.Close()
}

// close handles cleanup when connection is closed
func (c *Client) close() {
	c.Close()
	c.server.UnregisterClient(c)
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
