package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/flowgrid/flowgrid/internal/config"
	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"
	"github.com/redis/go-redis/v9"
)

// WsServer is the WebSocket server
type WsServer struct {
	upgrader        *websocket.Upgrader
	cfg             *config.Config
	registry        *Registry
	broadcaster     *Broadcaster
	registerChan    chan *Client
	unregisterChan  chan *Client
	chatService     *service.ChatService
	authService     *service.AuthService
	onlineMemberNum atomic.Int64
	onlineConnNum   atomic.Int64
	maxConnNum      int64
}

// NewWsServer creates a new WebSocket server
func NewWsServer(cfg *config.Config, rdb *redis.Client, chatService *service.ChatService, authService *service.AuthService) *WsServer {
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     makeOriginChecker(cfg.Server.AllowedOrigins),
	}

	registry := NewRegistry(rdb)

	return &WsServer{
		upgrader:       upgrader,
		cfg:            cfg,
		registry:       registry,
		broadcaster:    NewBroadcaster(registry, cfg.WebSocket.PushChannelSize),
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
		chatService:    chatService,
		authService:    authService,
		maxConnNum:     cfg.WebSocket.MaxConnNum,
	}
}

func makeOriginChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Broadcaster returns the event sink backed by this server's registry
func (s *WsServer) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// Run starts the WebSocket server loops
func (s *WsServer) Run(ctx context.Context) {
	go s.eventLoop(ctx)
	s.broadcaster.Run(ctx, s.cfg.WebSocket.PushWorkerNum)
}

// eventLoop handles client registration and unregistration
func (s *WsServer) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-s.registerChan:
			s.registerClient(ctx, client)
		case client := <-s.unregisterChan:
			s.unregisterClient(ctx, client)
		}
	}
}

func (s *WsServer) registerClient(ctx context.Context, client *Client) {
	if !s.registry.HasConnection(client.Identity) {
		s.onlineMemberNum.Add(1)
	}

	s.registry.Register(ctx, client)
	s.onlineConnNum.Add(1)

	log.CtxInfo(ctx, "client registered: identity=%s, conn_id=%s, online_members=%d, online_conns=%d",
		client.Identity.Key(), client.ConnId, s.onlineMemberNum.Load(), s.onlineConnNum.Load())
}

func (s *WsServer) unregisterClient(ctx context.Context, client *Client) {
	offline := s.registry.Unregister(ctx, client)
	s.onlineConnNum.Add(-1)
	if offline {
		s.onlineMemberNum.Add(-1)
	}

	log.CtxInfo(ctx, "client unregistered: identity=%s, conn_id=%s, member_offline=%v, online_members=%d, online_conns=%d",
		client.Identity.Key(), client.ConnId, offline, s.onlineMemberNum.Load(), s.onlineConnNum.Load())
}

// UnregisterClient queues client for unregistration
func (s *WsServer) UnregisterClient(client *Client) {
	select {
	case s.unregisterChan <- client:
	default:
		log.Warn("unregister channel full: identity=%s", client.Identity.Key())
	}
}

// authenticate resolves the handshake token into an identity. Expired and
// kicked tokens are rejected the same as malformed ones.
func (s *WsServer) authenticate(ctx context.Context, token string) (entity.Identity, error) {
	if token == "" {
		return entity.Identity{}, errcode.ErrTokenMissing
	}

	claims, err := s.authService.ValidateToken(ctx, token)
	if err != nil {
		return entity.Identity{}, err
	}

	id := entity.Identity{Type: entity.IdentityType(claims.IdentityType), Id: claims.SubjectId}
	if !id.Type.Valid() || id.Id == "" {
		return entity.Identity{}, errcode.ErrTokenInvalid
	}
	return id, nil
}

// HandleConnection handles a new WebSocket connection over net/http
func (s *WsServer) HandleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if s.onlineConnNum.Load() >= s.maxConnNum {
		http.Error(w, "connection limit exceeded", http.StatusServiceUnavailable)
		return
	}

	token := r.URL.Query().Get(QueryToken)
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	id, err := s.authenticate(ctx, token)
	if err != nil {
		log.CtxDebug(ctx, "handshake auth failed: %v", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
		return
	}

	connId := uuid.New().String()
	wsConn := NewWebSocketClientConn(conn, s.cfg.WebSocket.MaxMessageSize, PongWait, PingPeriod, s.cfg.WebSocket.WriteChannelSize)
	client := NewClient(wsConn, id, token, connId, s)

	s.registerChan <- client
	client.Start()
}

// OnlineMemberCount returns online identity count
func (s *WsServer) OnlineMemberCount() int64 {
	return s.onlineMemberNum.Load()
}

// OnlineConnCount returns online connection count
func (s *WsServer) OnlineConnCount() int64 {
	return s.onlineConnNum.Load()
}

// ========== Action Handlers ==========

// HandleJoinConversation verifies access and joins the conversation room
func (s *WsServer) HandleJoinConversation(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var joinReq JoinConversationReq
	if err := json.Unmarshal(req.Data, &joinReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}

	ok, err := s.chatService.VerifyConversationAccess(ctx, joinReq.ConversationId, client.Identity)
	if err != nil {
		log.CtxError(ctx, "verify conversation access failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if !ok {
		return nil, errcode.ErrConvAccess
	}

	client.JoinConversation(joinReq.ConversationId)
	return json.Marshal(&JoinResp{Success: true})
}

// HandleLeaveConversation leaves the conversation room
func (s *WsServer) HandleLeaveConversation(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var leaveReq JoinConversationReq
	if err := json.Unmarshal(req.Data, &leaveReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}

	client.LeaveConversation(leaveReq.ConversationId)
	return json.Marshal(&JoinResp{Success: true})
}

// HandleSendMessage sends a message through the chat service
func (s *WsServer) HandleSendMessage(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var sendReq SendMessageReq
	if err := json.Unmarshal(req.Data, &sendReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}

	info, err := s.chatService.SendMessage(ctx, sendReq.ConversationId, client.Identity, sendReq.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(info)
}

// HandleTyping relays the typing indicator to the counterpart
func (s *WsServer) HandleTyping(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var typingReq TypingReq
	if err := json.Unmarshal(req.Data, &typingReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}

	if err := s.chatService.RelayTyping(ctx, typingReq.ConversationId, client.Identity, typingReq.IsTyping); err != nil {
		return nil, err
	}
	return json.Marshal(&JoinResp{Success: true})
}

// HandleMarkRead acks a single message as read
func (s *WsServer) HandleMarkRead(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var ackReq AckReq
	if err := json.Unmarshal(req.Data, &ackReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}

	if err := s.chatService.MarkMessageRead(ctx, ackReq.MessageId, client.Identity); err != nil {
		return nil, err
	}
	return json.Marshal(&JoinResp{Success: true})
}

// HandleMarkDelivered acks a single message as delivered
func (s *WsServer) HandleMarkDelivered(ctx context.Context, client *Client, req *WSRequest) ([]byte, error) {
	var ackReq AckReq
	if err := json.Unmarshal(req.Data, &ackReq); err != nil {
		return nil, errcode.ErrInvalidParam
	}

	if err := s.chatService.MarkMessageDelivered(ctx, ackReq.MessageId, client.Identity); err != nil {
		return nil, err
	}
	return json.Marshal(&JoinResp{Success: true})
}
