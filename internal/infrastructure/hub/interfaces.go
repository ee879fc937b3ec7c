package hub

import (
	"context"
	"errors"
)

var (
	ErrHubNotRunning    = errors.New("hub is not running")
	ErrHubShuttingDown  = errors.New("hub is shutting down")
	ErrConnectionClosed = errors.New("connection is not open")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Connection represents one client session on any transport (WebSocket, SSE).
// Identity is the handle itself; ID is only used for lookups and logging.
type Connection interface {
	ID() string
	Type() string
	State() ReadyState
	// Send hands message to the transport without blocking. A non-nil error
	// means the message was not queued.
	Send(ctx context.Context, message *Message) error
	Close() error
	Context() context.Context
}

// EventSink receives transport-originated events. Hub implements it; the
// connection pumps only ever talk to the relay through it.
type EventSink interface {
	Publish(ctx context.Context, source Connection, message *Message) error
	UnregisterConnection(conn Connection) error
	ReportError(conn Connection, err error) error
}

// Observer is notified of relay activity from the relay goroutine.
type Observer interface {
	ConnectionOpened(conn Connection)
	ConnectionClosed(conn Connection)
	MessageRelayed(message *Message, report DeliveryReport)
	SendFailed(conn Connection, err error)
}

type nopObserver struct{}

func (nopObserver) ConnectionOpened(Connection)             {}
func (nopObserver) ConnectionClosed(Connection)             {}
func (nopObserver) MessageRelayed(*Message, DeliveryReport) {}
func (nopObserver) SendFailed(Connection, error)            {}
