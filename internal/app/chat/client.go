/*
Package chat contains the real-time message distribution core.

This file defines the Client struct, the WebSocket-backed Session. It owns the
connection: a buffered send queue drained by WritePump, and a read loop that
hands text frames to the Manager.
*/
package chat

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 30 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = 15 * time.Second

	// DefaultMaxMessageSize is the read limit when none is configured.
	DefaultMaxMessageSize = 64 << 10

	// DefaultSendBuffer is the outbound queue length when none is configured.
	DefaultSendBuffer = 256
)

// Client is one live WebSocket connection of one identity.
type Client struct {
	// id labels this connection in logs.
	id string

	// identity is resolved once at attach time and never changes.
	identity string

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	// mu guards closed and the closing of send.
	mu     sync.Mutex
	closed bool

	// stopping is set when the server, not the peer, is ending the connection.
	stopping atomic.Bool

	// writeDone is closed when WritePump has returned and the socket is closed.
	writeDone chan struct{}

	maxMessageSize int64

	// structured logger with connection context.
	logger zerolog.Logger
}

// newClient constructs a Client for an upgraded connection.
func newClient(conn *websocket.Conn, identity string, opts Options) *Client {
	id := randx.ConnectionID()

	return &Client{
		id:             id,
		identity:       identity,
		conn:           conn,
		send:           make(chan []byte, opts.SendBuffer),
		writeDone:      make(chan struct{}),
		maxMessageSize: opts.MaxMessageSize,
		logger: logx.Logger().With().
			Str("conn_id", id).
			Str("identity", identity).
			Logger(),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// Identity returns the identity the connection was registered under.
func (c *Client) Identity() string {
	return c.identity
}

// Send queues a frame without blocking.
func (c *Client) Send(frame []byte) SendResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return SendClosed
	}

	select {
	case c.send <- frame:
		return SendOK
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping frame")
		return SendQueueFull
	}
}

// closeSend stops accepting frames; WritePump flushes what is queued, sends a
// close frame and closes the socket. Safe to call more than once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads frames until the connection ends and passes text frames to handle,
// one at a time. It returns nil for a clean close and the read error otherwise.
func (c *Client) ReadPump(handle func(frame []byte)) error {
	c.conn.SetReadLimit(c.maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if c.isCleanClose(err) {
				return nil
			}
			return err
		}

		if msgType != websocket.TextMessage {
			c.logger.Debug().Int("frame_type", msgType).Msg("Ignoring non-text frame")
			continue
		}

		handle(frame)
	}
}

func (c *Client) isCleanClose(err error) bool {
	if c.stopping.Load() {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}

// WritePump writes queued frames to the connection and keeps it alive with pings.
// It closes the socket on exit, which also unblocks ReadPump.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
		close(c.writeDone)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame, or a close frame once the queue is closed.
// Returns true if WritePump should continue.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Info().Err(err).Msg("Error writing frame, closing connection")
		return false
	}

	return true
}

// writePing sends a keepalive Ping. Returns false if the write failed.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Info().Err(err).Msg("Error writing ping, closing connection")
		return false
	}

	return true
}

// stop ends the connection from the server side with a going-away close frame.
func (c *Client) stop(reason string) {
	c.stopping.Store(true)

	closeMessage := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send going-away close frame")
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error on stop")
	}
}
