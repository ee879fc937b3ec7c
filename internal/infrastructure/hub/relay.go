package hub

import (
	"context"

	"go-relay-hub/internal/infrastructure/logger"
)

// DeliveryReport summarizes one relayed message.
type DeliveryReport struct {
	Delivered int // recipients the payload was queued to
	Skipped   int // members not in the open state
	Failed    int // members whose Send failed; they were removed
}

// Relay is the single-threaded core of the hub: it owns the connection set and
// applies connect, message, disconnect and error events to it. A Relay is not
// safe for concurrent use; Hub serializes events into it from one goroutine.
type Relay struct {
	connections  map[string]Connection
	echoToSender bool
	observer     Observer
	logger       logger.Logger
}

type RelayOption func(*Relay)

// WithEchoToSender makes the relay deliver a message back to its own source
// as well.
func WithEchoToSender(echo bool) RelayOption {
	return func(r *Relay) { r.echoToSender = echo }
}

// WithObserver attaches an Observer, typically a metrics recorder.
func WithObserver(o Observer) RelayOption {
	return func(r *Relay) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewRelay returns an empty relay.
func NewRelay(log logger.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		connections: make(map[string]Connection),
		observer:    nopObserver{},
		logger:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleConnect adds conn to the connection set. It reports false when conn is
// already closing or closed, or its ID is already taken. Removal always closes
// a connection, so a removed connection is never re-inserted.
func (r *Relay) HandleConnect(conn Connection) bool {
	if state := conn.State(); state >= StateClosing {
		r.logger.Warnf("Refusing %s connection %s", state, conn.ID())
		return false
	}
	if _, exists := r.connections[conn.ID()]; exists {
		r.logger.Warnf("Connection %s is already registered", conn.ID())
		return false
	}

	r.connections[conn.ID()] = conn
	r.observer.ConnectionOpened(conn)
	r.logger.Infof("Client connected: %s (type: %s, total: %d)", conn.ID(), conn.Type(), len(r.connections))
	return true
}

// HandleMessage forwards message unchanged to every member other than source
// that is open right now. A nil source means the message originates from the
// server and goes to everyone. Members in any other state are skipped without
// error. Members whose Send fails are removed. A source that is not a member
// is dropped: removal ends sending as well as receiving.
func (r *Relay) HandleMessage(ctx context.Context, source Connection, message *Message) DeliveryReport {
	var report DeliveryReport
	var failed []Connection

	if source != nil && !r.isMember(source) {
		r.logger.Debugf("Dropped %s message from non-member %s", message.Kind, source.ID())
		return report
	}

	for _, conn := range r.connections {
		if source != nil && conn == source && !r.echoToSender {
			continue
		}
		if conn.State() != StateOpen {
			report.Skipped++
			continue
		}
		if err := conn.Send(ctx, message); err != nil {
			r.logger.Errorf("Failed to relay message to connection %s: %v", conn.ID(), err)
			r.observer.SendFailed(conn, err)
			failed = append(failed, conn)
			continue
		}
		report.Delivered++
	}

	for _, conn := range failed {
		if r.remove(conn) {
			report.Failed++
		}
	}

	r.observer.MessageRelayed(message, report)
	if source != nil {
		r.logger.Debugf("Relayed %s message (%d bytes) from %s to %d connections", message.Kind, message.Len(), source.ID(), report.Delivered)
	} else {
		r.logger.Debugf("Relayed server %s message (%d bytes) to %d connections", message.Kind, message.Len(), report.Delivered)
	}
	return report
}

// HandleDisconnect removes conn. It is idempotent and reports whether conn was
// a member.
func (r *Relay) HandleDisconnect(conn Connection) bool {
	if !r.remove(conn) {
		return false
	}
	r.logger.Infof("Client disconnected: %s (total: %d)", conn.ID(), len(r.connections))
	return true
}

// HandleError treats a transport error as terminal for conn alone.
func (r *Relay) HandleError(conn Connection, err error) bool {
	if !r.remove(conn) {
		return false
	}
	r.logger.Errorf("Connection %s removed after transport error: %v", conn.ID(), err)
	return true
}

// Len returns the size of the connection set.
func (r *Relay) Len() int {
	return len(r.connections)
}

// Connections returns a snapshot of the connection set in no particular order.
func (r *Relay) Connections() []Connection {
	out := make([]Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		out = append(out, conn)
	}
	return out
}

// CloseAll removes and closes every member.
func (r *Relay) CloseAll() int {
	n := 0
	for _, conn := range r.Connections() {
		if r.remove(conn) {
			n++
		}
	}
	return n
}

func (r *Relay) isMember(conn Connection) bool {
	existing, ok := r.connections[conn.ID()]
	return ok && existing == conn
}

// remove deletes conn if this exact handle is a member, then closes it.
func (r *Relay) remove(conn Connection) bool {
	if !r.isMember(conn) {
		return false
	}
	delete(r.connections, conn.ID())
	r.observer.ConnectionClosed(conn)

	if err := conn.Close(); err != nil {
		r.logger.Warnf("Failed to close connection %s: %v", conn.ID(), err)
	}
	return true
}
