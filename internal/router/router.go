package router

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/websocket"
	"github.com/qy-8/gamechat-app/internal/config"
	"github.com/qy-8/gamechat-app/internal/gateway"
	"github.com/qy-8/gamechat-app/internal/handler"
	"github.com/qy-8/gamechat-app/internal/middleware"
	"github.com/qy-8/gamechat-app/internal/service"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Friend       *handler.FriendHandler
	Group        *handler.GroupHandler
}

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, handlers *Handlers, convService *service.ConversationService, wsServer *gateway.WsServer) {
	cfg := config.GlobalConfig

	// CORS middleware
	h.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Health check
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]interface{}{
			"status":       "ok",
			"online_users": wsServer.GetOnlineUserCount(),
			"online_conns": wsServer.GetOnlineConnCount(),
		})
	})

	// Auth routes
	authGroup := h.Group("/auth")
	{
		authGroup.POST("/register", handlers.Auth.Register)
		authGroup.POST("/login", handlers.Auth.Login)
		authGroup.POST("/logout", middleware.JWTAuth(), handlers.Auth.Logout)
	}

	// User routes (auth required)
	userGroup := h.Group("/user", middleware.JWTAuth())
	{
		userGroup.GET("/me", handlers.User.Me)
		userGroup.PUT("/avatar", handlers.User.UpdateAvatar)
		userGroup.GET("/search", handlers.User.Search)
	}

	// Conversation routes (auth required); routes naming a conversation go
	// through the resolver, which loads the row and checks access
	convGroup := h.Group("/conversation", middleware.JWTAuth())
	{
		convGroup.POST("", handlers.Conversation.GetOrCreate)
		convGroup.GET("/list", handlers.Conversation.List)

		resolved := convGroup.Group("/:conversation_id", middleware.ResolveConversation(convService))
		{
			resolved.POST("/messages", handlers.Message.Send)
			resolved.GET("/messages", handlers.Message.Page)
			resolved.GET("/messages/search", handlers.Message.Search)
			resolved.POST("/read", handlers.Conversation.MarkRead)
			resolved.POST("/mute", handlers.Conversation.Mute)
		}
	}

	// Friend routes (auth required)
	friendGroup := h.Group("/friend", middleware.JWTAuth())
	{
		friendGroup.POST("/request", handlers.Friend.SendRequest)
		friendGroup.POST("/request/:request_id/respond", handlers.Friend.Respond)
		friendGroup.GET("/list", handlers.Friend.List)
		friendGroup.GET("/pending", handlers.Friend.Pending)
		friendGroup.DELETE("/:user_id", handlers.Friend.Unfriend)
		friendGroup.POST("/:user_id/block", handlers.Friend.Block)
		friendGroup.POST("/:user_id/unblock", handlers.Friend.Unblock)
		friendGroup.GET("/blocked", handlers.Friend.Blocked)
	}

	// Group routes (auth required)
	groupGroup := h.Group("/group", middleware.JWTAuth())
	{
		groupGroup.POST("", handlers.Group.Create)
		groupGroup.GET("/list", handlers.Group.List)
		groupGroup.GET("/invitations", handlers.Group.PendingInvitations)
		groupGroup.POST("/invitations/:invitation_id/respond", handlers.Group.RespondInvitation)
		groupGroup.GET("/:group_id", handlers.Group.Details)
		groupGroup.GET("/:group_id/channels", handlers.Group.Channels)
		groupGroup.GET("/:group_id/members", handlers.Group.SearchMembers)
		groupGroup.POST("/:group_id/invite", handlers.Group.Invite)
		groupGroup.POST("/:group_id/leave", handlers.Group.Leave)
		groupGroup.DELETE("/:group_id", handlers.Group.Disband)
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

	// If no origin header, allow (same-origin request or non-browser client)
	if origin == "" {
		return true
	}

	// If no allowed origins configured, reject all cross-origin requests in production
	if len(allowedOrigins) == 0 {
		return false
	}

	// Check against allowed origins
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			// Wildcard - allow all (only use in development!)
			return true
		}
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}

	return false
}
