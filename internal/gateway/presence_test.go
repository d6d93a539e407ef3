package gateway

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(userId, connId string) *Client {
	return &Client{UserId: userId, ConnId: connId}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	first := reg.Register(ctx, testClient("u1", "c1"))
	assert.True(t, first, "first connection should mark the user online")

	second := reg.Register(ctx, testClient("u1", "c2"))
	assert.False(t, second, "second connection should not re-mark online")

	clients := reg.Lookup("u1")
	assert.Len(t, clients, 2)
	assert.Equal(t, 1, reg.OnlineUserCount())
	assert.Equal(t, 2, reg.OnlineConnCount())
	assert.True(t, reg.HasConnection("u1"))
	assert.False(t, reg.HasConnection("u2"))
}

func TestRegistryDeregister(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	reg.Register(ctx, testClient("u1", "c1"))
	reg.Register(ctx, testClient("u1", "c2"))

	removed, offline := reg.Deregister(ctx, "c1")
	require.NotNil(t, removed)
	assert.Equal(t, "c1", removed.ConnId)
	assert.False(t, offline, "user still has another connection")

	removed, offline = reg.Deregister(ctx, "c2")
	require.NotNil(t, removed)
	assert.True(t, offline, "last connection should take the user offline")

	// no empty map entry may linger
	assert.Equal(t, 0, reg.OnlineUserCount())
	assert.Equal(t, 0, reg.OnlineConnCount())
	assert.Nil(t, reg.Lookup("u1"))
}

func TestRegistryDeregisterUnknownConn(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)
	reg.Register(ctx, testClient("u1", "c1"))

	removed, offline := reg.Deregister(ctx, "nope")
	assert.Nil(t, removed)
	assert.False(t, offline)
	assert.Equal(t, 1, reg.OnlineConnCount())
}

func TestRegistryIsOnlineWithoutRedis(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	assert.False(t, reg.IsOnline(ctx, "u1"))
	reg.Register(ctx, testClient("u1", "c1"))
	assert.True(t, reg.IsOnline(ctx, "u1"))
}

func TestRegistryConcurrentChurn(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userId := fmt.Sprintf("u%d", i%5)
			connId := fmt.Sprintf("c%d", i)
			reg.Register(ctx, testClient(userId, connId))
			reg.Lookup(userId)
			reg.Deregister(ctx, connId)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, reg.OnlineConnCount())
	assert.Equal(t, 0, reg.OnlineUserCount())
}
