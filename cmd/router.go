package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-relay-hub/internal/infrastructure/config"
	"go-relay-hub/internal/infrastructure/hub"
	"go-relay-hub/internal/infrastructure/logger"
	"go-relay-hub/internal/interfaces/rest/v1/handler"
	"go-relay-hub/internal/interfaces/sse"
	"go-relay-hub/internal/interfaces/websocket"
)

// InitRouter mounts every relay route. metricsHandler may be nil.
func InitRouter(cfg *config.Config, hubInstance *hub.Hub, log logger.Logger, metricsHandler http.Handler) http.Handler {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	rootGroup := router.Group("")

	if metricsHandler != nil {
		rootGroup.GET("/metrics", gin.WrapH(metricsHandler))
	}

	handler.InitRelayRouter(log, hubInstance, rootGroup)
	sse.InitSSERouter(log, hubInstance, rootGroup, cfg.SendBuffer)
	websocket.InitWebSocketRouter(log, hubInstance, rootGroup, cfg.AllowedOrigins, hub.WebSocketOptions{
		SendBuffer:     cfg.SendBuffer,
		WriteTimeout:   cfg.WriteTimeout,
		PongTimeout:    cfg.PongTimeout,
		MaxMessageSize: cfg.MaxMessageSize,
	})

	return router
}

// corsMiddleware answers preflights and sets CORS headers for allowed
// origins. An empty list or "*" allows every origin.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "":
			c.Header("Vary", "Origin")
			if _, ok := allowed[strings.ToLower(origin)]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
