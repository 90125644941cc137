package gateway

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/hertz-contrib/websocket"
	"github.com/mbeoliero/kit/log"
)

// HandleHertzConnection handles a WebSocket connection upgraded by Hertz
func (s *WsServer) HandleHertzConnection(ctx context.Context, c *app.RequestContext, upgrader *websocket.HertzUpgrader) {
	if s.onlineConnNum.Load() >= s.maxConnNum {
		c.String(503, "connection limit exceeded")
		return
	}

	token := c.Query(QueryToken)
	if token == "" {
		auth := string(c.GetHeader("Authorization"))
		if len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}

	id, err := s.authenticate(ctx, token)
	if err != nil {
		log.CtxDebug(ctx, "handshake auth failed: %v", err)
		c.String(401, "unauthorized")
		return
	}

	err = upgrader.Upgrade(c, func(conn *websocket.Conn) {
		connId := uuid.New().String()
		wsConn := NewHertzClientConn(conn, s.cfg.WebSocket.MaxMessageSize, PongWait, PingPeriod, s.cfg.WebSocket.WriteChannelSize)
		client := NewClient(wsConn, id, token, connId, s)

		s.registerChan <- client

		// Blocking: the handler must not return while the conn is live
		client.readLoop()
	})

	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
		return
	}
}
