package hub

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go-relay-hub/internal/infrastructure/logger"
)

const eventBuffer = 1024

type eventKind int

const (
	eventConnect eventKind = iota
	eventMessage
	eventDisconnect
	eventError
	eventSnapshot
)

// event is one unit of work for the run loop. All kinds share a single FIFO
// channel so the relay sees them in the order transports produced them.
type event struct {
	kind    eventKind
	conn    Connection
	message *Message
	err     error
	reply   chan []Connection
}

// Hub runs a Relay on a dedicated goroutine and feeds it events arriving
// concurrently from transports. The connection set is only ever touched by
// that goroutine.
type Hub struct {
	relay *Relay
	count atomic.Int64

	running   bool
	runningMu sync.RWMutex

	logger logger.Logger

	// replaced on every Start so a stopped loop's leftovers are never replayed
	events chan event

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

var _ EventSink = (*Hub)(nil)

// New creates a new Hub instance
func New(log logger.Logger, opts ...RelayOption) *Hub {
	hubLogger := log.WithField("component", "hub")
	return &Hub{
		relay:  NewRelay(hubLogger, opts...),
		logger: hubLogger,
	}
}

// Start starts the hub and begins processing connection events
func (h *Hub) Start(ctx context.Context) error {
	h.runningMu.Lock()
	defer h.runningMu.Unlock()

	if h.running {
		return fmt.Errorf("hub is already running")
	}

	h.ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})
	h.events = make(chan event, eventBuffer)
	h.running = true

	go h.run(h.ctx, h.events, h.done)

	h.logger.Info("Hub started successfully")
	return nil
}

// Stop ends the run loop, which closes every connection on its way out. It
// waits for the loop until ctx expires.
func (h *Hub) Stop(ctx context.Context) error {
	h.runningMu.Lock()
	defer h.runningMu.Unlock()

	if !h.running {
		return nil
	}

	h.cancel()
	h.running = false

	select {
	case <-h.done:
		h.logger.Info("Hub stopped successfully")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for hub to stop: %w", ctx.Err())
	}
}

// IsRunning returns true if the hub is currently running
func (h *Hub) IsRunning() bool {
	h.runningMu.RLock()
	defer h.runningMu.RUnlock()
	return h.running
}

// loopContext returns the run loop's context, or ErrHubNotRunning.
func (h *Hub) loopContext() (context.Context, error) {
	h.runningMu.RLock()
	defer h.runningMu.RUnlock()

	if !h.running {
		return nil, ErrHubNotRunning
	}
	return h.ctx, nil
}

// RegisterConnection queues conn for insertion into the connection set.
func (h *Hub) RegisterConnection(conn Connection) error {
	return h.enqueue(context.Background(), event{kind: eventConnect, conn: conn})
}

// UnregisterConnection queues conn for removal. Unknown or already removed
// connections are ignored by the run loop.
func (h *Hub) UnregisterConnection(conn Connection) error {
	return h.enqueue(context.Background(), event{kind: eventDisconnect, conn: conn})
}

// ReportError queues conn for removal after a transport error.
func (h *Hub) ReportError(conn Connection, err error) error {
	return h.enqueue(context.Background(), event{kind: eventError, conn: conn, err: err})
}

// Publish queues a message received from source. Messages published by one
// goroutine are relayed in the order they were published.
func (h *Hub) Publish(ctx context.Context, source Connection, message *Message) error {
	return h.enqueue(ctx, event{kind: eventMessage, conn: source, message: message})
}

// Broadcast relays a server-originated message to every open connection.
func (h *Hub) Broadcast(ctx context.Context, message *Message) error {
	return h.Publish(ctx, nil, message)
}

// ConnectionCount returns the number of connections in the set as of the
// last processed event.
func (h *Hub) ConnectionCount() int {
	return int(h.count.Load())
}

// GetConnections returns a snapshot of the connection set taken by the run
// loop.
func (h *Hub) GetConnections(ctx context.Context) ([]Connection, error) {
	loopCtx, err := h.loopContext()
	if err != nil {
		return nil, err
	}

	reply := make(chan []Connection, 1)
	if err := h.enqueue(ctx, event{kind: eventSnapshot, reply: reply}); err != nil {
		return nil, err
	}

	select {
	case conns := <-reply:
		return conns, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-loopCtx.Done():
		// the loop may have exited without seeing the request
		select {
		case conns := <-reply:
			return conns, nil
		default:
			return nil, ErrHubShuttingDown
		}
	}
}

// enqueue hands ev to the run loop. A cancelled ctx wins over a free buffer
// slot. The read lock is held through the send so Stop cannot cancel the loop
// while an event is in flight; everything accepted is either handled or
// drained.
func (h *Hub) enqueue(ctx context.Context, ev event) error {
	h.runningMu.RLock()
	defer h.runningMu.RUnlock()

	if !h.running {
		return ErrHubNotRunning
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	loopCtx := h.ctx

	select {
	case h.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-loopCtx.Done():
		return ErrHubShuttingDown
	}
}

// run is the main hub loop that processes connection events
func (h *Hub) run(ctx context.Context, events chan event, done chan struct{}) {
	defer close(done)

	for {
		select {
		case ev := <-events:
			h.handle(ctx, ev)
			h.count.Store(int64(h.relay.Len()))

		case <-ctx.Done():
			closed := h.relay.CloseAll() + h.drain(events)
			h.count.Store(0)
			h.logger.Infof("Hub run loop stopped, closed %d connections", closed)
			return
		}
	}
}

func (h *Hub) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case eventConnect:
		if !h.relay.HandleConnect(ev.conn) {
			// never inserted, so nothing else will close it
			_ = ev.conn.Close()
		}
	case eventMessage:
		h.relay.HandleMessage(ctx, ev.conn, ev.message)
	case eventDisconnect:
		h.relay.HandleDisconnect(ev.conn)
	case eventError:
		h.relay.HandleError(ev.conn, ev.err)
	case eventSnapshot:
		ev.reply <- h.relay.Connections()
	}
}

// drain discards events queued before shutdown. Pending registrations are
// closed and snapshot callers get an empty set.
func (h *Hub) drain(events chan event) int {
	closed := 0
	for {
		select {
		case ev := <-events:
			switch ev.kind {
			case eventConnect:
				_ = ev.conn.Close()
				closed++
			case eventSnapshot:
				ev.reply <- nil
			}
		default:
			return closed
		}
	}
}
