package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/flowgrid/flowgrid/internal/config"
	"github.com/flowgrid/flowgrid/internal/gateway"
	"github.com/flowgrid/flowgrid/internal/handler"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/internal/router"
	"github.com/flowgrid/flowgrid/internal/service"
	"github.com/flowgrid/flowgrid/internal/storage"
	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/mbeoliero/kit/log"
)

func main() {
	ctx := context.TODO()

	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}

	log.CtxInfo(ctx, "config loaded: mode=%s", cfg.Server.Mode)

	// Initialize Redis key prefix
	constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)

	// Initialize repositories
	repos, err := repository.NewRepositories(cfg)
	if err != nil {
		log.CtxError(ctx, "failed to initialize repositories: %v", err)
		panic(err)
	}
	defer repos.Close()

	// Check database connection
	if err := repos.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "database connection check failed: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "database connection established")

	// Object storage is optional; document upload is disabled without it
	var objectStorage *storage.ObjectStorage
	if cfg.Storage.Endpoint != "" {
		objectStorage, err = storage.NewObjectStorage(&cfg.Storage)
		if err != nil {
			log.CtxError(ctx, "failed to initialize object storage: %v", err)
			panic(err)
		}
		log.CtxInfo(ctx, "object storage ready: bucket=%s", cfg.Storage.Bucket)
	} else {
		log.CtxWarn(ctx, "object storage not configured, document upload disabled")
	}

	// Initialize services
	authService := service.NewAuthService(repos, cfg, repos.Redis)
	accountService := service.NewAccountService(repos)
	chatService := service.NewChatService(repos)
	adminChatService := service.NewAdminChatService(repos)
	plantService := service.NewPlantService(repos)
	verificationService := service.NewVerificationService(repos)
	notificationService := service.NewNotificationService(repos)

	// Initialize WebSocket server
	wsServer := gateway.NewWsServer(cfg, repos.Redis, chatService, authService)

	// Route service events through the gateway broadcaster
	chatService.SetSink(wsServer.Broadcaster())
	plantService.SetSink(wsServer.Broadcaster())
	verificationService.SetSink(wsServer.Broadcaster())

	// Start WebSocket server
	wsServer.Run(ctx)
	log.CtxInfo(ctx, "websocket server started")

	// Initialize handlers
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Profile:      handler.NewProfileHandler(accountService),
		Chat:         handler.NewChatHandler(chatService),
		Plant:        handler.NewPlantHandler(plantService),
		Verification: handler.NewVerificationHandler(verificationService, objectStorage),
		Notification: handler.NewNotificationHandler(notificationService),
		Admin:        handler.NewAdminHandler(adminChatService, verificationService),
	}

	// Create Hertz server
	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)

	// Setup routes
	router.SetupRouter(h, handlers, authService, wsServer)

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)

	// Start server in goroutine
	go func() {
		h.Spin()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")

	// Graceful shutdown
	if err := h.Shutdown(ctx); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}

	log.CtxInfo(ctx, "server stopped")
}
