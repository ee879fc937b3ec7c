package hub

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"go-relay-hub/internal/infrastructure/logger"
)

// WebSocketOptions tunes the transport side of a WebSocketConnection.
type WebSocketOptions struct {
	SendBuffer     int
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64 // 0 disables the read limit
}

// DefaultWebSocketOptions mirrors the relay's configuration defaults.
func DefaultWebSocketOptions() WebSocketOptions {
	return WebSocketOptions{
		SendBuffer:   256,
		WriteTimeout: 10 * time.Second,
		PongTimeout:  60 * time.Second,
	}
}

// WebSocketConnection implements the Connection interface for WebSocket connections
type WebSocketConnection struct {
	id   string
	conn *websocket.Conn
	sink EventSink

	ctx    context.Context
	cancel context.CancelFunc

	state   readyState
	started atomic.Bool

	logger logger.Logger

	send chan *Message

	writeTimeout time.Duration
	pongTimeout  time.Duration
	pingPeriod   time.Duration
}

var _ Connection = (*WebSocketConnection)(nil)

// NewWebSocketConnection wraps an upgraded connection. It stays in the
// connecting state until Start launches its pumps.
func NewWebSocketConnection(
	id string,
	conn *websocket.Conn,
	sink EventSink,
	opts WebSocketOptions,
	log logger.Logger,
) *WebSocketConnection {
	def := DefaultWebSocketOptions()
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = def.SendBuffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = def.PongTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	wsConn := &WebSocketConnection{
		id:           id,
		conn:         conn,
		sink:         sink,
		ctx:          ctx,
		cancel:       cancel,
		logger:       log.WithField("connection_id", id),
		send:         make(chan *Message, opts.SendBuffer),
		writeTimeout: opts.WriteTimeout,
		pongTimeout:  opts.PongTimeout,
		pingPeriod:   (opts.PongTimeout * 9) / 10,
	}

	if opts.MaxMessageSize > 0 {
		conn.SetReadLimit(opts.MaxMessageSize)
	}

	return wsConn
}

// ID returns unique connection identifier
func (c *WebSocketConnection) ID() string {
	return c.id
}

// Type returns the connection type
func (c *WebSocketConnection) Type() string {
	return "websocket"
}

// State returns the current readiness state.
func (c *WebSocketConnection) State() ReadyState {
	return c.state.load()
}

// Context is cancelled once the connection starts closing.
func (c *WebSocketConnection) Context() context.Context {
	return c.ctx
}

// Start moves the connection to open and launches its pumps. It is a no-op
// once the connection has started or begun closing.
func (c *WebSocketConnection) Start() {
	if !c.state.advance(StateOpen) {
		return
	}
	c.started.Store(true)

	c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	})

	go c.writePump()
	go c.readPump()
}

// Send queues message for the write pump without blocking.
func (c *WebSocketConnection) Send(ctx context.Context, message *Message) error {
	if c.State() != StateOpen {
		return ErrConnectionClosed
	}

	select {
	case c.send <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrSendBufferFull
	}
}

// Close starts the closing handshake. The write pump sends a normal-closure
// frame and tears down the socket; Close itself never blocks.
func (c *WebSocketConnection) Close() error {
	if !c.state.advance(StateClosing) {
		return nil
	}
	c.cancel()

	if !c.started.Load() {
		// no pumps to finish the job
		return c.finish()
	}
	return nil
}

// finish releases the socket and marks the connection closed.
func (c *WebSocketConnection) finish() error {
	c.state.advance(StateClosing)
	c.cancel()

	err := c.conn.Close()
	if c.state.advance(StateClosed) {
		c.logger.Info("WebSocket connection closed")
	}
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("closing websocket %s: %w", c.id, err)
	}
	return nil
}

// writePump is the only goroutine that writes to the socket.
func (c *WebSocketConnection) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.finish()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(message.Kind.frameType(), message.Data); err != nil {
				c.logger.Errorf("Failed to write message: %v", err)
				c.reportError(err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Errorf("Failed to send ping: %v", err)
				c.reportError(err)
				return
			}

		case <-c.ctx.Done():
			c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.writeTimeout),
			)
			return
		}
	}
}

// readPump publishes every data frame to the sink in arrival order.
func (c *WebSocketConnection) readPump() {
	var readErr error
	defer func() {
		_ = c.Close()
		c.reportRemoval(readErr)
	}()

	for {
		frameType, data, err := c.conn.ReadMessage()
		if err != nil {
			// a clean close from either side is a disconnect, anything else is
			// a transport error
			if !websocket.IsCloseError(
				err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) && c.ctx.Err() == nil {
				c.logger.Errorf("WebSocket error: %v", err)
				readErr = err
			}
			return
		}

		kind, ok := messageKindFromFrame(frameType)
		if !ok {
			continue
		}

		message := &Message{Kind: kind, Data: data}
		c.logger.Debugf("Received %s message (%d bytes)", kind, len(data))

		if err := c.sink.Publish(c.ctx, c, message); err != nil {
			if c.ctx.Err() == nil {
				c.logger.Warnf("Failed to publish message: %v", err)
			}
			return
		}
	}
}

func (c *WebSocketConnection) reportError(err error) {
	if sinkErr := c.sink.ReportError(c, err); sinkErr != nil {
		c.logger.Debugf("Could not report error to hub: %v", sinkErr)
	}
}

func (c *WebSocketConnection) reportRemoval(err error) {
	var sinkErr error
	if err != nil {
		sinkErr = c.sink.ReportError(c, err)
	} else {
		sinkErr = c.sink.UnregisterConnection(c)
	}
	if sinkErr != nil {
		c.logger.Debugf("Could not report disconnect to hub: %v", sinkErr)
	}
}
