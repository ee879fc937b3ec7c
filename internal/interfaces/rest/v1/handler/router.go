package handler

import (
	"github.com/gin-gonic/gin"

	"go-relay-hub/internal/infrastructure/hub"
	"go-relay-hub/internal/infrastructure/logger"
)

func InitRelayRouter(logger logger.Logger, hubInstance *hub.Hub, rg *gin.RouterGroup) {
	relayHandler := NewRelayHandler(hubInstance, logger)

	rg.GET("/healthz", relayHandler.Health)
	rg.GET("/hub/status", relayHandler.Status)

	apiGroup := rg.Group("/api/v1")
	{
		apiGroup.GET("/connections", relayHandler.Connections)
		apiGroup.POST("/messages", relayHandler.PublishMessage)
	}
}
