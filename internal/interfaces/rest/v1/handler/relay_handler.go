package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"go-relay-hub/internal/infrastructure/hub"
	"go-relay-hub/internal/infrastructure/logger"
)

// RelayHandler exposes hub status and lets operators inject server messages.
type RelayHandler struct {
	hub    *hub.Hub
	logger logger.Logger
}

type ConnectionResponse struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	State string `json:"state"`
}

func NewRelayHandler(hubInstance *hub.Hub, logger logger.Logger) *RelayHandler {
	return &RelayHandler{
		hub:    hubInstance,
		logger: logger.WithField("handler", "relay"),
	}
}

// Health reports process liveness only.
func (h *RelayHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *RelayHandler) Status(c *gin.Context) {
	isRunning := h.hub.IsRunning()
	status := "healthy"
	code := http.StatusOK
	if !isRunning {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":      status,
		"hub_running": isRunning,
		"connections": h.hub.ConnectionCount(),
	})
}

// Connections lists the hub's current members ordered by ID.
func (h *RelayHandler) Connections(c *gin.Context) {
	conns, err := h.hub.GetConnections(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to list connections: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	out := make([]ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		out = append(out, ConnectionResponse{
			ID:    conn.ID(),
			Type:  conn.Type(),
			State: conn.State().String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	c.JSON(http.StatusOK, gin.H{
		"total_connections": len(out),
		"connections":       out,
	})
}

// PublishMessage relays the raw request body to every open connection. An
// application/octet-stream body goes out as a binary frame, anything else as
// text.
func (h *RelayHandler) PublishMessage(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	message := hub.TextMessage(string(body))
	if c.ContentType() == "application/octet-stream" {
		message = hub.BinaryMessage(body)
	}

	if err := h.hub.Broadcast(c.Request.Context(), message); err != nil {
		h.logger.Errorf("Failed to broadcast message: %v", err)
		c.JSON(statusFor(err), gin.H{"error": "Failed to send message"})
		return
	}

	h.logger.Infof("Server %s message (%d bytes) queued for %d connections", message.Kind, message.Len(), h.hub.ConnectionCount())
	c.JSON(http.StatusAccepted, gin.H{
		"status":      "queued",
		"kind":        message.Kind.String(),
		"bytes":       message.Len(),
		"connections": h.hub.ConnectionCount(),
	})
}

func statusFor(err error) int {
	if errors.Is(err, hub.ErrHubNotRunning) || errors.Is(err, hub.ErrHubShuttingDown) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
