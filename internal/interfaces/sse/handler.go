package sse

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-relay-hub/internal/infrastructure/hub"
	"go-relay-hub/internal/infrastructure/logger"
)

// ServerSentEventHandler streams relay traffic to read-only observers.
type ServerSentEventHandler struct {
	hub        *hub.Hub
	logger     logger.Logger
	sendBuffer int
}

func NewServerSentEventHandler(hubInstance *hub.Hub, logger logger.Logger, sendBuffer int) *ServerSentEventHandler {
	return &ServerSentEventHandler{
		hub:        hubInstance,
		logger:     logger.WithField("handler", "sse"),
		sendBuffer: sendBuffer,
	}
}

// Connect handles SSE connection requests. It blocks until the client goes
// away or the hub closes the stream.
func (h *ServerSentEventHandler) Connect(c *gin.Context) {
	if !h.hub.IsRunning() {
		h.logger.Error("Hub is not running")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Service temporarily unavailable",
		})
		return
	}

	conn := hub.NewSSEConnection(c.Request.Context(), "sse-"+uuid.NewString(), c.Writer, h.sendBuffer, h.logger)

	if err := h.hub.RegisterConnection(conn); err != nil {
		h.logger.Errorf("Failed to register connection: %v", err)
		_ = conn.Close()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Failed to register connection",
		})
		return
	}
	h.logger.Infof("SSE connection %s from %s registered", conn.ID(), c.ClientIP())

	var sinkErr error
	if err := conn.Serve(); err != nil {
		h.logger.Warnf("SSE connection %s failed: %v", conn.ID(), err)
		sinkErr = h.hub.ReportError(conn, err)
	} else {
		sinkErr = h.hub.UnregisterConnection(conn)
	}
	if sinkErr != nil {
		h.logger.Debugf("Could not report disconnect to hub: %v", sinkErr)
	}
}
