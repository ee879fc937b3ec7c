package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.AllowsAnyOrigin())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("RELAY_ADDR", ":9000")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "http://a.example, http://b.example ,")
	t.Setenv("RELAY_ECHO_TO_SENDER", "true")
	t.Setenv("RELAY_SEND_BUFFER", "16")
	t.Setenv("RELAY_MAX_MESSAGE_SIZE", "1048576")
	t.Setenv("RELAY_WRITE_TIMEOUT", "2s")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.AllowsAnyOrigin())
	assert.True(t, cfg.EchoToSender)
	assert.Equal(t, 16, cfg.SendBuffer)
	assert.Equal(t, int64(1048576), cfg.MaxMessageSize)
	assert.Equal(t, 2*time.Second, cfg.WriteTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.env")
	require.NoError(t, os.WriteFile(path, []byte("RELAY_ADDR=:7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RELAY_ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"RELAY_ECHO_TO_SENDER":   "sometimes",
		"RELAY_SEND_BUFFER":      "lots",
		"RELAY_MAX_MESSAGE_SIZE": "1MB",
		"RELAY_PONG_TIMEOUT":     "forever",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.SendBuffer = 0
	cfg.MaxMessageSize = -1
	cfg.LogLevel = "verbose"
	cfg.LogOutput = "file"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RELAY_SEND_BUFFER")
	assert.Contains(t, err.Error(), "RELAY_MAX_MESSAGE_SIZE")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
	assert.Contains(t, err.Error(), "LOG_FILE_PATH")
}
