package sse

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-relay-hub/internal/infrastructure/hub"
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

func newRouter(h *hub.Hub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	InitSSERouter(&mockLogger{}, h, router.Group(""), 16)
	return router
}

// readUntil consumes lines until one contains want.
func readUntil(t *testing.T, lines *bufio.Scanner, want string) {
	t.Helper()
	for lines.Scan() {
		if strings.Contains(lines.Text(), want) {
			return
		}
	}
	t.Fatalf("stream ended before %q: %v", want, lines.Err())
}

func TestConnect_StreamsRelayedMessages(t *testing.T) {
	h := hub.New(&mockLogger{})
	require.NoError(t, h.Start(context.Background()))
	defer h.Stop(context.Background())

	srv := httptest.NewServer(newRouter(h))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readUntil(t, lines, "event:connected")

	require.Eventually(t, func() bool {
		conns, err := h.GetConnections(ctx)
		return err == nil && len(conns) == 1 && conns[0].State() == hub.StateOpen
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, h.Broadcast(ctx, hub.TextMessage("hello observers")))
	readUntil(t, lines, "event:message")
	readUntil(t, lines, "data:hello observers")

	cancel()
	require.Eventually(t, func() bool { return h.ConnectionCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestConnect_HubNotRunning(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(hub.New(&mockLogger{})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
