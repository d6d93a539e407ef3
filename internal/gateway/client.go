package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/mbeoliero/kit/log"
)

// Client represents a connected WebSocket client
type Client struct {
	mu         sync.Mutex
	conn       ClientConn
	UserId     string
	PlatformId int
	Token      string
	ConnId     string
	server     *WsServer
	closed     atomic.Bool
	closedErr  error
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewClient creates a new client
func NewClient(conn ClientConn, userId string, platformId int, token, connId string, server *WsServer) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:       conn,
		UserId:     userId,
		PlatformId: platformId,
		Token:      token,
		ConnId:     connId,
		server:     server,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the client message handling
func (c *Client) Start() {
	go c.readLoop()
}

// readLoop continuously reads messages from the connection
func (c *Client) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			c.closedErr = ErrPanic
			log.CtxError(c.ctx, "client read loop panic: user_id=%s, error=%v", c.UserId, r)
		}
		c.close()
	}()

	for {
		message, err := c.conn.ReadMessage()
		if err != nil {
			log.CtxDebug(c.ctx, "read message error: user_id=%s, error=%v", c.UserId, err)
			c.closedErr = err
			return
		}

		if c.closed.Load() {
			c.closedErr = ErrConnClosed
			return
		}

		if err := c.handleMessage(message); err != nil {
			log.CtxWarn(c.ctx, "handle message error: user_id=%s, error=%v", c.UserId, err)
			c.closedErr = err
			return
		}
	}
}

// handleMessage handles a single incoming event frame
func (c *Client) handleMessage(message []byte) error {
	var event ClientEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return c.pushError(ErrInvalidProtocol)
	}

	log.CtxDebug(c.ctx, "received event: event=%s, user_id=%s", event.Event, c.UserId)

	switch event.Event {
	case EventJoinChannel:
		return c.handleJoinChannel(event.Data)
	case EventPing:
		return c.Push(EventPong, nil)
	default:
		return c.pushError(ErrInvalidProtocol)
	}
}

// handleJoinChannel subscribes this connection to a channel room. Access is
// checked against the store so a socket cannot listen in on a channel of a
// group it does not belong to.
func (c *Client) handleJoinChannel(data json.RawMessage) error {
	var join JoinChannelData
	if err := json.Unmarshal(data, &join); err != nil || join.ChannelId == "" {
		return c.pushError(ErrInvalidProtocol)
	}

	if err := c.server.JoinRoom(c.ctx, c, join.ChannelId); err != nil {
		log.CtxWarn(c.ctx, "join channel refused: user_id=%s, channel_id=%s, error=%v",
			c.UserId, join.ChannelId, err)
		return c.pushError(err)
	}
	return nil
}

// Push sends a server event to this client
func (c *Client) Push(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return ErrConnClosed
	}

	data, err := (&ServerEvent{Event: event, Data: payload}).Encode()
	if err != nil {
		return err
	}

	return c.conn.WriteMessage(data)
}

// pushError reports a protocol-level problem to the client without
// dropping the connection
func (c *Client) pushError(err error) error {
	pushErr := c.Push(EventError, map[string]string{"message": err.Error()})
	if pushErr == ErrConnClosed || pushErr == ErrWriteChannelFull {
		return pushErr
	}
	return nil
}

// Close closes the client connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil
	}

	c.closed.Store(true)
	c.cancel()
	return c.conn.Close()
}

// close handles cleanup when connection is closed
func (c *Client) close() {
	c.Close()
	c.server.UnregisterClient(c)
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
