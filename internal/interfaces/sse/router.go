package sse

import (
	"github.com/gin-gonic/gin"

	"go-relay-hub/internal/infrastructure/hub"
	"go-relay-hub/internal/infrastructure/logger"
)

func InitSSERouter(logger logger.Logger, hubInstance *hub.Hub, rg *gin.RouterGroup, sendBuffer int) {
	sseHandler := NewServerSentEventHandler(hubInstance, logger, sendBuffer)

	rg.GET("/sse", sseHandler.Connect)
}
