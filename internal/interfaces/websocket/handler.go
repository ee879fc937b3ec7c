package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"go-relay-hub/internal/infrastructure/hub"
	"go-relay-hub/internal/infrastructure/logger"
)

// WebSocketHandler upgrades requests and hands the resulting connections to
// the relay hub.
type WebSocketHandler struct {
	hub      *hub.Hub
	logger   logger.Logger
	upgrader websocket.Upgrader
	options  hub.WebSocketOptions
}

// NewWebSocketHandler creates a new WebSocket handler instance. An empty
// origin list or one containing "*" accepts every origin.
func NewWebSocketHandler(
	hubInstance *hub.Hub,
	logger logger.Logger,
	allowedOrigins []string,
	options hub.WebSocketOptions,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hubInstance,
		logger: logger.WithField("handler", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		options: options,
	}
}

// Connect handles WebSocket connection upgrade requests
func (h *WebSocketHandler) Connect(c *gin.Context) {
	if !h.hub.IsRunning() {
		h.logger.Error("Hub is not running")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service temporarily unavailable",
		})
		return
	}

	// Upgrade writes its own error response
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Failed to upgrade connection: %v", err)
		return
	}

	wsConn := hub.NewWebSocketConnection("ws-"+uuid.NewString(), conn, h.hub, h.options, h.logger)

	// registration is queued before the read pump can publish, so the hub
	// never sees a message from a connection it has not inserted yet
	if err := h.hub.RegisterConnection(wsConn); err != nil {
		h.logger.Errorf("Failed to register WebSocket connection: %v", err)
		wsConn.Close()
		return
	}
	wsConn.Start()

	h.logger.Infof("WebSocket connection %s from %s registered", wsConn.ID(), c.ClientIP())

	<-wsConn.Context().Done()
	h.logger.Debugf("WebSocket connection %s finished", wsConn.ID())
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// non-browser clients send no Origin
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
