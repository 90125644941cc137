package router

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/flowgrid/flowgrid/internal/config"
	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/gateway"
	"github.com/flowgrid/flowgrid/internal/handler"
	"github.com/flowgrid/flowgrid/internal/middleware"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/hertz-contrib/websocket"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Auth         *handler.AuthHandler
	Profile      *handler.ProfileHandler
	Chat         *handler.ChatHandler
	Plant        *handler.PlantHandler
	Verification *handler.VerificationHandler
	Notification *handler.NotificationHandler
	Admin        *handler.AdminHandler
}

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, handlers *Handlers, authService *service.AuthService, wsServer *gateway.WsServer) {
	cfg := config.GlobalConfig

	// CORS middleware
	h.Use(middleware.CORS())

	// Health check
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	auth := middleware.JWTAuth(authService)

	// Auth routes (no auth required except logout)
	authGroup := h.Group("/auth")
	{
		authGroup.POST("/consumer/register", handlers.Auth.RegisterConsumer)
		authGroup.POST("/consumer/login", handlers.Auth.LoginConsumer)
		authGroup.POST("/owner/register", handlers.Auth.RegisterOwner)
		authGroup.POST("/owner/login", handlers.Auth.LoginOwner)
		authGroup.POST("/admin/login", handlers.Auth.LoginAdmin)
		authGroup.POST("/logout", auth, handlers.Auth.Logout)
	}

	// Public plant directory
	plantGroup := h.Group("/plants")
	{
		plantGroup.GET("", handlers.Plant.List)
		plantGroup.GET("/:id", handlers.Plant.Get)
	}

	// Profile routes (any authenticated role)
	profileGroup := h.Group("/profile", auth)
	{
		profileGroup.GET("", handlers.Profile.Get)
		profileGroup.PATCH("", handlers.Profile.Update)
	}

	// Chat routes (consumer and owner; access checked per conversation)
	chatGroup := h.Group("/chat", auth)
	{
		chatGroup.POST("/conversations", handlers.Chat.OpenConversation)
		chatGroup.GET("/conversations", handlers.Chat.ListConversations)
		chatGroup.GET("/unread_count", handlers.Chat.UnreadCount)
		chatGroup.GET("/conversations/:id/messages", handlers.Chat.ListMessages)
		chatGroup.POST("/conversations/:id/messages", handlers.Chat.SendMessage)
		chatGroup.POST("/conversations/:id/read", handlers.Chat.MarkRead)
	}

	// Owner routes
	ownerGroup := h.Group("/owner", auth, middleware.RequireRole(entity.IdentityOwner))
	{
		ownerGroup.GET("/plants", handlers.Plant.ListMine)
		ownerGroup.POST("/plants", handlers.Plant.Create)
		ownerGroup.PATCH("/plants/:id", handlers.Plant.Update)
		ownerGroup.DELETE("/plants/:id", handlers.Plant.Delete)

		ownerGroup.POST("/verifications", handlers.Verification.Submit)
		ownerGroup.GET("/verifications", handlers.Verification.List)
		ownerGroup.POST("/verifications/documents", handlers.Verification.UploadDocument)

		ownerGroup.GET("/notifications", handlers.Notification.List)
		ownerGroup.POST("/notifications/:id/read", handlers.Notification.MarkRead)
	}

	// Admin routes
	adminGroup := h.Group("/admin", auth, middleware.RequireRole(entity.IdentityAdmin))
	{
		adminGroup.GET("/chat/stats", handlers.Admin.ChatStats)
		adminGroup.GET("/chat/conversations", handlers.Admin.SearchConversations)
		adminGroup.GET("/chat/conversations/:id/messages", handlers.Admin.ConversationMessages)
		adminGroup.GET("/verifications/pending", handlers.Admin.PendingVerifications)
		adminGroup.POST("/verifications/:id/review", handlers.Admin.ReviewVerification)
	}

	// WebSocket route using hertz-contrib/websocket with origin validation
	allowedOrigins := cfg.Server.AllowedOrigins
	upgrader := &websocket.HertzUpgrader{
		CheckOrigin: func(ctx *app.RequestContext) bool {
			return checkOrigin(ctx, allowedOrigins)
		},
	}

	h.GET("/ws", func(ctx context.Context, c *app.RequestContext) {
		wsServer.HandleHertzConnection(ctx, c, upgrader)
	})
}

// checkOrigin validates the Origin header against allowed origins
func checkOrigin(ctx *app.RequestContext, allowedOrigins []string) bool {
	origin := string(ctx.Request.Header.Peek("Origin"))

	// No origin header means a same-origin request or non-browser client
	if origin == "" {
		return true
	}

	if len(allowedOrigins) == 0 {
		return false
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return true
		}
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}

	return false
}
