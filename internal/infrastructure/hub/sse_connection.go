package hub

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"

	"go-relay-hub/internal/infrastructure/logger"
)

// SSEConnection is a receive-only observer of relay traffic over
// Server-Sent Events. It never publishes messages of its own.
type SSEConnection struct {
	id     string
	writer io.Writer

	ctx    context.Context
	cancel context.CancelFunc

	state readyState

	logger logger.Logger

	send      chan *Message
	keepAlive time.Duration
}

var _ Connection = (*SSEConnection)(nil)

// NewSSEConnection creates a new SSE connection bound to the request context;
// it closes when the client goes away.
func NewSSEConnection(
	ctx context.Context,
	id string,
	w http.ResponseWriter,
	sendBuffer int,
	log logger.Logger,
) *SSEConnection {
	if sendBuffer <= 0 {
		sendBuffer = DefaultWebSocketOptions().SendBuffer
	}
	rctx, cancel := context.WithCancel(ctx)

	conn := &SSEConnection{
		id:        id,
		writer:    w,
		ctx:       rctx,
		cancel:    cancel,
		logger:    log.WithField("connection_id", id),
		send:      make(chan *Message, sendBuffer),
		keepAlive: 30 * time.Second,
	}
	setupSSEHeaders(w)
	return conn
}

// ID returns unique connection identifier
func (c *SSEConnection) ID() string {
	return c.id
}

// Type returns the connection type
func (c *SSEConnection) Type() string {
	return "sse"
}

// State returns the current readiness state.
func (c *SSEConnection) State() ReadyState {
	return c.state.load()
}

// Context returns the connection's context (for cancellation)
func (c *SSEConnection) Context() context.Context {
	return c.ctx
}

// Send queues message for Serve without blocking.
func (c *SSEConnection) Send(ctx context.Context, message *Message) error {
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

// Close gracefully closes the connection
func (c *SSEConnection) Close() error {
	if c.state.advance(StateClosing) {
		c.cancel()
	}
	return nil
}

// Serve marks the connection open and streams queued messages until the
// connection closes or a write fails. It must run on the request goroutine.
func (c *SSEConnection) Serve() error {
	defer func() {
		c.Close()
		if c.state.advance(StateClosed) {
			c.logger.Info("SSE connection closed")
		}
	}()

	if !c.state.advance(StateOpen) {
		return ErrConnectionClosed
	}

	err := c.write(sse.Event{
		Event: "connected",
		Data: map[string]any{
			"connection_id": c.id,
			"timestamp":     time.Now().Format(time.RFC3339),
		},
	})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(c.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			if err := c.write(formatSSEMessage(message)); err != nil {
				return err
			}

		case <-ticker.C:
			err := c.write(sse.Event{
				Event: "keepalive",
				Data:  map[string]any{"timestamp": time.Now().Unix()},
			})
			if err != nil {
				return err
			}

		case <-c.ctx.Done():
			return nil
		}
	}
}

func (c *SSEConnection) write(event sse.Event) error {
	if err := sse.Encode(c.writer, event); err != nil {
		return fmt.Errorf("writing sse event: %w", err)
	}
	if flusher, ok := c.writer.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// setupSSEHeaders sets up the proper headers for SSE connection
func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // For nginx
}

// formatSSEMessage renders text payloads verbatim as "message" events and
// binary payloads base64-encoded as "binary" events.
func formatSSEMessage(message *Message) sse.Event {
	if message.Kind == MessageBinary {
		return sse.Event{
			Event: "binary",
			Data:  base64.StdEncoding.EncodeToString(message.Data),
		}
	}
	return sse.Event{
		Event: "message",
		Data:  string(message.Data),
	}
}
