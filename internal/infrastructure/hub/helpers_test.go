package hub

import (
	"context"
	"io"
	"sync"

	"go-relay-hub/internal/infrastructure/logger"
)

type mockLogger struct{}

func (m *mockLogger) Debug(msg string)                              {}
func (m *mockLogger) Debugf(format string, args ...any)             {}
func (m *mockLogger) Info(msg string)                               {}
func (m *mockLogger) Infof(format string, args ...any)              {}
func (m *mockLogger) Warn(msg string)                               {}
func (m *mockLogger) Warnf(format string, args ...any)              {}
func (m *mockLogger) Error(msg string)                              {}
func (m *mockLogger) Errorf(format string, args ...any)             {}
func (m *mockLogger) Fatal(msg string)                              {}
func (m *mockLogger) Fatalf(format string, args ...any)             {}
func (m *mockLogger) WithField(key string, value any) logger.Logger { return m }
func (m *mockLogger) WithFields(fields logger.Fields) logger.Logger { return m }
func (m *mockLogger) WithContext(ctx context.Context) logger.Logger { return m }
func (m *mockLogger) SetLevel(level logger.Level)                   {}
func (m *mockLogger) SetOutput(output io.Writer)                    {}

// mockConnection records what it is sent. It starts open.
type mockConnection struct {
	id      string
	mu      sync.Mutex
	state   ReadyState
	sendErr error
	closes  int
	inbox   []*Message
}

func newMockConnection(id string) *mockConnection {
	return &mockConnection{id: id, state: StateOpen}
}

func (m *mockConnection) ID() string   { return m.id }
func (m *mockConnection) Type() string { return "mock" }

func (m *mockConnection) State() ReadyState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockConnection) setState(s ReadyState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *mockConnection) Send(ctx context.Context, message *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.inbox = append(m.inbox, message)
	return nil
}

func (m *mockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	m.state = StateClosed
	return nil
}

func (m *mockConnection) Context() context.Context { return context.Background() }

func (m *mockConnection) received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.inbox))
	for i, msg := range m.inbox {
		out[i] = string(msg.Data)
	}
	return out
}

func (m *mockConnection) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// countingObserver tallies relay notifications.
type countingObserver struct {
	mu          sync.Mutex
	opened      int
	closed      int
	relayed     int
	delivered   int
	skipped     int
	sendFailure int
}

func (o *countingObserver) ConnectionOpened(Connection) {
	o.mu.Lock()
	o.opened++
	o.mu.Unlock()
}

func (o *countingObserver) ConnectionClosed(Connection) {
	o.mu.Lock()
	o.closed++
	o.mu.Unlock()
}

func (o *countingObserver) MessageRelayed(_ *Message, report DeliveryReport) {
	o.mu.Lock()
	o.relayed++
	o.delivered += report.Delivered
	o.skipped += report.Skipped
	o.mu.Unlock()
}

func (o *countingObserver) SendFailed(Connection, error) {
	o.mu.Lock()
	o.sendFailure++
	o.mu.Unlock()
}
