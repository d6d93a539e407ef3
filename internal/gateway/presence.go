package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/qy-8/gamechat-app/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// Registry tracks which users are connected and through which connections.
// Both directions (user to connections, connection to user) live under one
// mutex so they can never disagree.
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]*Client // userId -> connId -> client
	conns map[string]*Client            // connId -> client
	rdb   *redis.Client
}

// NewRegistry creates a new Registry
func NewRegistry(rdb *redis.Client) *Registry {
	return &Registry{
		users: make(map[string]map[string]*Client),
		conns: make(map[string]*Client),
		rdb:   rdb,
	}
}

// Register adds a client connection. Returns true if this is the user's
// first live connection (the user just came online).
func (m *Registry) Register(ctx context.Context, client *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	userConns, exists := m.users[client.UserId]
	if !exists {
		userConns = make(map[string]*Client, 2)
		m.users[client.UserId] = userConns
	}
	userConns[client.ConnId] = client
	m.conns[client.ConnId] = client

	m.setOnline(ctx, client.UserId)

	return !exists
}

// Deregister removes a connection by id. Returns the removed client and
// whether the user has no connections left. Unknown connection ids are a
// no-op.
func (m *Registry) Deregister(ctx context.Context, connId string) (*Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, exists := m.conns[connId]
	if !exists {
		return nil, false
	}
	delete(m.conns, connId)

	userConns := m.users[client.UserId]
	delete(userConns, connId)
	if len(userConns) == 0 {
		delete(m.users, client.UserId)
		m.setOffline(ctx, client.UserId)
		return client, true
	}

	return client, false
}

// Lookup returns a snapshot of a user's live connections
func (m *Registry) Lookup(userId string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userConns, exists := m.users[userId]
	if !exists {
		return nil
	}

	clients := make([]*Client, 0, len(userConns))
	for _, c := range userConns {
		clients = append(clients, c)
	}
	return clients
}

// HasConnection checks if a user has any live connection on this instance
func (m *Registry) HasConnection(userId string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.users[userId]) > 0
}

// OnlineUserCount returns the number of distinct online users
func (m *Registry) OnlineUserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// OnlineConnCount returns the total number of connections
func (m *Registry) OnlineConnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// IsOnline checks if user is online (checks Redis for distributed support)
func (m *Registry) IsOnline(ctx context.Context, userId string) bool {
	// First check local
	if m.HasConnection(userId) {
		return true
	}

	// Then check Redis for multi-instance support
	if m.rdb != nil {
		key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
		exists, _ := m.rdb.Exists(ctx, key).Result()
		return exists > 0
	}

	return false
}

// setOnline marks user as online in Redis
func (m *Registry) setOnline(ctx context.Context, userId string) {
	if m.rdb == nil {
		return
	}

	key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
	m.rdb.Set(ctx, key, "1", OnlineTTL)
}

// setOffline marks user as offline in Redis
func (m *Registry) setOffline(ctx context.Context, userId string) {
	if m.rdb == nil {
		return
	}

	key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
	m.rdb.Del(ctx, key)
}

// RefreshOnlineStatus re-arms the online TTL while the user still has a
// connection here
func (m *Registry) RefreshOnlineStatus(ctx context.Context, userId string) {
	if m.rdb == nil {
		return
	}

	if m.HasConnection(userId) {
		key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
		m.rdb.Expire(ctx, key, OnlineTTL)
	}
}
