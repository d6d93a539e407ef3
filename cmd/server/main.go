package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/mbeoliero/kit/log"
	"github.com/qy-8/gamechat-app/internal/config"
	"github.com/qy-8/gamechat-app/internal/gateway"
	"github.com/qy-8/gamechat-app/internal/handler"
	"github.com/qy-8/gamechat-app/internal/repository"
	"github.com/qy-8/gamechat-app/internal/router"
	"github.com/qy-8/gamechat-app/internal/service"
	"github.com/qy-8/gamechat-app/pkg/constant"
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
	log.CtxInfo(ctx, "redis key prefix: %s", constant.GetRedisKeyPrefix())

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

	// Create or update tables
	if err := repos.Migrate(ctx); err != nil {
		log.CtxError(ctx, "database migration failed: %v", err)
		panic(err)
	}

	// Initialize services
	authService := service.NewAuthService(repos.User, cfg, repos.Redis)
	userService := service.NewUserService(repos.User)
	convService := service.NewConversationService(repos)
	msgService := service.NewMessageService(repos)
	friendService := service.NewFriendService(repos)
	groupService := service.NewGroupService(repos)

	// Initialize WebSocket server; the conversation service gates channel
	// room subscriptions
	wsServer := gateway.NewWsServer(cfg, repos.Redis, convService)

	// Wire the pusher into every service that fans events out
	msgService.SetPusher(wsServer)
	friendService.SetPusher(wsServer)
	groupService.SetPusher(wsServer)

	// Start WebSocket server
	wsServer.Run(ctx)
	log.CtxInfo(ctx, "websocket server started")

	// Initialize handlers
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService),
		Conversation: handler.NewConversationHandler(convService, msgService),
		Message:      handler.NewMessageHandler(msgService),
		Friend:       handler.NewFriendHandler(friendService),
		Group:        handler.NewGroupHandler(groupService, convService),
	}

	// Create Hertz server
	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)

	// Setup routes
	router.SetupRouter(h, handlers, convService, wsServer)

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)

	// Start server in goroutine
	go func() {
		h.Spin()
	}()

	// Optional standalone WebSocket listener when ws_port differs from the
	// HTTP port
	var wsHTTPServer *http.Server
	if cfg.Server.WSPort != cfg.Server.HTTPPort {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			wsServer.HandleConnection(r.Context(), w, r)
		})
		wsHTTPServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.WSPort),
			Handler: mux,
		}
		go func() {
			log.CtxInfo(ctx, "standalone websocket listener on port %d", cfg.Server.WSPort)
			if err := wsHTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.CtxError(ctx, "websocket listener error: %v", err)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")

	// Graceful shutdown
	if wsHTTPServer != nil {
		if err := wsHTTPServer.Shutdown(ctx); err != nil {
			log.CtxError(ctx, "websocket listener shutdown error: %v", err)
		}
	}
	if err := h.Shutdown(ctx); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}

	log.CtxInfo(ctx, "server stopped")
}
