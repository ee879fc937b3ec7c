package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-relay-hub/internal/infrastructure/config"
	"go-relay-hub/internal/infrastructure/hub"
)

func newTestRouter(t *testing.T, cfg *config.Config, metricsHandler http.Handler) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := newTestLogger()

	h := hub.New(log)
	require.NoError(t, h.Start(context.Background()))
	t.Cleanup(func() { _ = h.Stop(context.Background()) })

	return InitRouter(cfg, h, log, metricsHandler)
}

func TestInitRouter_MountsRoutes(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("relay_connections 0\n"))
	})
	router := newTestRouter(t, config.Default(), metricsHandler)

	for _, path := range []string{"/healthz", "/hub/status", "/api/v1/connections", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "relay_connections")
}

func TestInitRouter_NoMetricsRoute(t *testing.T) {
	router := newTestRouter(t, config.Default(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS_AllowAll(t *testing.T) {
	router := newTestRouter(t, config.Default(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/messages", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	cfg := config.Default()
	cfg.AllowedOrigins = []string{"http://app.example"}
	router := newTestRouter(t, cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://app.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
