package websocket

import (
	"go-relay-hub/internal/infrastructure/hub"
	"go-relay-hub/internal/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// InitWebSocketRouter mounts the upgrade endpoint on "/" and "/ws".
func InitWebSocketRouter(
	logger logger.Logger,
	hubInstance *hub.Hub,
	rg *gin.RouterGroup,
	allowedOrigins []string,
	options hub.WebSocketOptions,
) {
	wsHandler := NewWebSocketHandler(hubInstance, logger, allowedOrigins, options)

	rg.GET("/", wsHandler.Connect)
	rg.GET("/ws", wsHandler.Connect)
}
