package gateway

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"
	"github.com/qy-8/gamechat-app/internal/config"
	"github.com/qy-8/gamechat-app/pkg/jwt"
	"github.com/redis/go-redis/v9"
)

// ChannelAuthorizer decides whether a user may subscribe to a channel room
type ChannelAuthorizer interface {
	CanJoinChannel(ctx context.Context, userId, channelId string) error
}

// WsServer is the WebSocket server. It owns the presence registry and room
// hub and fans server events out to connections through a worker pool.
type WsServer struct {
	upgrader       *websocket.Upgrader
	cfg            *config.Config
	registry       *Registry
	rooms          *RoomHub
	authorizer     ChannelAuthorizer
	registerChan   chan *Client
	unregisterChan chan *Client
	pushChan       chan *PushTask
	onlineUserNum  atomic.Int64
	onlineConnNum  atomic.Int64
	maxConnNum     int64
}

// PushTask represents a fan-out unit: one event delivered either to every
// connection of the target users or to every connection in a room.
type PushTask struct {
	Event         string
	Payload       interface{}
	TargetIds     []string
	RoomId        string
	ExcludeConnId string
}

// NewWsServer creates a new WebSocket server
func NewWsServer(cfg *config.Config, rdb *redis.Client, authorizer ChannelAuthorizer) *WsServer {
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.Server.AllowedOrigins),
	}

	server := &WsServer{
		upgrader:       upgrader,
		cfg:            cfg,
		registry:       NewRegistry(rdb),
		rooms:          NewRoomHub(),
		authorizer:     authorizer,
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
		pushChan:       make(chan *PushTask, cfg.WebSocket.PushChannelSize),
		maxConnNum:     cfg.WebSocket.MaxConnNum,
	}

	return server
}

// originChecker allows handshakes from configured origins. An empty list
// allows everything, which suits local development.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Run starts the WebSocket server
func (s *WsServer) Run(ctx context.Context) {
	// Start event loop
	go s.eventLoop(ctx)
	// Start push workers
	workerNum := s.cfg.WebSocket.PushWorkerNum
	if workerNum <= 0 {
		workerNum = 10
	}
	for i := 0; i < workerNum; i++ {
		go s.pushLoop(ctx)
	}
	log.Info("started %d push workers", workerNum)
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

// pushLoop handles async event pushing
func (s *WsServer) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-s.pushChan:
			s.processPushTask(ctx, task)
		}
	}
}

// processPushTask delivers one event to its targets. Per-connection write
// failures are logged and skipped; a dead socket never blocks the rest of
// the fan-out.
func (s *WsServer) processPushTask(ctx context.Context, task *PushTask) {
	var clients []*Client
	if task.RoomId != "" {
		clients = s.rooms.Members(task.RoomId)
	} else {
		for _, userId := range task.TargetIds {
			clients = append(clients, s.registry.Lookup(userId)...)
		}
	}

	for _, client := range clients {
		if task.ExcludeConnId != "" && client.ConnId == task.ExcludeConnId {
			continue
		}

		if err := client.Push(task.Event, task.Payload); err != nil {
			log.CtxDebug(ctx, "push to client failed: event=%s, user_id=%s, conn_id=%s, error=%v",
				task.Event, client.UserId, client.ConnId, err)
		}
	}
}

// registerClient registers a client
func (s *WsServer) registerClient(ctx context.Context, client *Client) {
	cameOnline := s.registry.Register(ctx, client)
	if cameOnline {
		s.onlineUserNum.Add(1)
	}
	s.onlineConnNum.Add(1)

	go s.keepOnline(client, OnlineTTL/2)

	log.CtxInfo(ctx, "client registered: user_id=%s, platform_id=%d, conn_id=%s, online_users=%d, online_conns=%d",
		client.UserId, client.PlatformId, client.ConnId, s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// unregisterClient unregisters a client and drops its room memberships
func (s *WsServer) unregisterClient(ctx context.Context, client *Client) {
	removed, userOffline := s.registry.Deregister(ctx, client.ConnId)
	if removed == nil {
		return
	}

	s.rooms.LeaveAll(client.ConnId)
	s.onlineConnNum.Add(-1)
	if userOffline {
		s.onlineUserNum.Add(-1)
	}

	log.CtxInfo(ctx, "client unregistered: user_id=%s, conn_id=%s, user_offline=%v, online_users=%d, online_conns=%d",
		client.UserId, client.ConnId, userOffline, s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

// keepOnline re-arms the Redis online marker for the connection's user until
// the client closes. Without it the marker would expire under a long-lived
// quiet connection and other instances would see the user as offline.
func (s *WsServer) keepOnline(client *Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-client.ctx.Done():
			return
		case <-ticker.C:
			s.registry.RefreshOnlineStatus(client.ctx, client.UserId)
		}
	}
}

// UnregisterClient queues client for unregistration
func (s *WsServer) UnregisterClient(client *Client) {
	select {
	case s.unregisterChan <- client:
	default:
		log.Warn("unregister channel full: user_id=%s", client.UserId)
	}
}

// JoinRoom subscribes a connection to a channel room after an access check
func (s *WsServer) JoinRoom(ctx context.Context, client *Client, channelId string) error {
	if s.authorizer != nil {
		if err := s.authorizer.CanJoinChannel(ctx, client.UserId, channelId); err != nil {
			return err
		}
	}
	s.rooms.Join(channelId, client)
	log.CtxDebug(ctx, "joined channel room: user_id=%s, conn_id=%s, channel_id=%s",
		client.UserId, client.ConnId, channelId)
	return nil
}

// PushToUsers queues an event for every connection of the target users
func (s *WsServer) PushToUsers(event string, payload interface{}, userIds []string, excludeConnId string) {
	s.enqueue(&PushTask{
		Event:         event,
		Payload:       payload,
		TargetIds:     userIds,
		ExcludeConnId: excludeConnId,
	})
}

// PushToRoom queues an event for every connection subscribed to a room
func (s *WsServer) PushToRoom(event string, payload interface{}, roomId string) {
	s.enqueue(&PushTask{
		Event:   event,
		Payload: payload,
		RoomId:  roomId,
	})
}

func (s *WsServer) enqueue(task *PushTask) {
	select {
	case s.pushChan <- task:
		// Successfully queued
	default:
		// Queue full, log warning
		log.Warn("push channel full, event dropped: event=%s", task.Event)
	}
}

// IsOnline reports whether a user has a live connection anywhere
func (s *WsServer) IsOnline(ctx context.Context, userId string) bool {
	return s.registry.IsOnline(ctx, userId)
}

// GetOnlineUserCount returns online user count
func (s *WsServer) GetOnlineUserCount() int64 {
	return s.onlineUserNum.Load()
}

// GetOnlineConnCount returns online connection count
func (s *WsServer) GetOnlineConnCount() int64 {
	return s.onlineConnNum.Load()
}

// authenticate resolves the handshake token to claims. External tokens are
// accepted when configured, so game clients can connect with their platform
// session.
func (s *WsServer) authenticate(token, sendId string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateToken(token, s.cfg.JWT.Secret, sendId)
	if err != nil && s.cfg.ExternalJWT.Enabled {
		extClaims, extErr := jwt.ParseExternalToken(token, s.cfg.ExternalJWT.Secret, s.cfg.ExternalJWT.DefaultPlatformId)
		if extErr == nil && (sendId == "" || extClaims.UserId == sendId) {
			claims, err = extClaims, nil
		}
	}
	if err != nil {
		return nil, err
	}

	// A token that validates but names no user cannot own a connection
	if claims.UserId == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// HandleConnection handles a new WebSocket connection on the standalone
// gorilla listener
func (s *WsServer) HandleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	// Check connection limit
	if s.onlineConnNum.Load() >= s.maxConnNum {
		http.Error(w, "connection limit exceeded", http.StatusServiceUnavailable)
		return
	}

	// Parse query parameters
	token := r.URL.Query().Get(QueryToken)
	sendId := r.URL.Query().Get(QuerySendId)
	platformIdStr := r.URL.Query().Get(QueryPlatformId)

	if token == "" || sendId == "" {
		http.Error(w, "missing required parameters", http.StatusBadRequest)
		return
	}

	platformId := 0
	if platformIdStr != "" {
		platformId, _ = strconv.Atoi(platformIdStr)
	}

	// Validate token before upgrading
	claims, err := s.authenticate(token, sendId)
	if err != nil {
		log.CtxDebug(ctx, "token validation failed: send_id=%s, error=%v", sendId, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.PlatformId == 0 {
		claims.PlatformId = platformId
	}

	// Upgrade connection
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
		return
	}

	// Create client
	connId := uuid.New().String()
	wsConn := NewWebSocketClientConn(conn, s.cfg.WebSocket.MaxMessageSize, s.cfg.WebSocket.PongWait, s.cfg.WebSocket.PingPeriod, s.cfg.WebSocket.WriteWait, s.cfg.WebSocket.WriteChannelSize)
	client := NewClient(wsConn, claims.UserId, claims.PlatformId, token, connId, s)

	// Register client
	s.registerChan <- client

	// Start client
	client.Start()
}
