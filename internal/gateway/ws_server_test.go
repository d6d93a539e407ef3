package gateway

import (
	"testing"
	"time"

	"github.com/qy-8/gamechat-app/internal/config"
	"github.com/qy-8/gamechat-app/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopConn satisfies ClientConn without a socket behind it
type nopConn struct{}

func (nopConn) ReadMessage() ([]byte, error)     { return nil, ErrConnClosed }
func (nopConn) WriteMessage([]byte) error        { return nil }
func (nopConn) Close() error                     { return nil }
func (nopConn) SetReadDeadline(time.Time) error  { return nil }
func (nopConn) SetWriteDeadline(time.Time) error { return nil }

func newTestServer(t *testing.T) *WsServer {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "handshake-secret"
	cfg.WebSocket.MaxConnNum = 100
	return NewWsServer(cfg, nil, nil)
}

func TestAuthenticateResolvesUser(t *testing.T) {
	s := newTestServer(t)

	token, err := jwt.GenerateToken("alice", 1, "handshake-secret", 1)
	require.NoError(t, err)

	claims, err := s.authenticate(token, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserId)
}

func TestAuthenticateRejectsMismatchedUser(t *testing.T) {
	s := newTestServer(t)

	token, err := jwt.GenerateToken("alice", 1, "handshake-secret", 1)
	require.NoError(t, err)

	_, err = s.authenticate(token, "bob")
	assert.Error(t, err)
}

func TestAuthenticateRejectsTokenWithoutUser(t *testing.T) {
	s := newTestServer(t)

	// a token that validates but names no user must never reach a client
	token, err := jwt.GenerateToken("", 1, "handshake-secret", 1)
	require.NoError(t, err)

	_, err = s.authenticate(token, "")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestKeepOnlineStopsWhenClientCloses(t *testing.T) {
	s := newTestServer(t)
	client := NewClient(&nopConn{}, "alice", 1, "tok", "c1", s)

	done := make(chan struct{})
	go func() {
		s.keepOnline(client, time.Millisecond)
		close(done)
	}()

	require.NoError(t, client.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keepOnline did not stop after the client closed")
	}
}
