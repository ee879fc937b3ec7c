package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig("debug", "json", "file", "/tmp/relay.log")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "file", cfg.Output)
	assert.Equal(t, "/tmp/relay.log", cfg.FilePath)
	assert.Equal(t, "relay-hub", cfg.Fields["service"])

	_, err = NewConfig("loud", "", "", "")
	assert.Error(t, err)
}

func TestStaticFields(t *testing.T) {
	t.Setenv("APP_NAME", "relay-eu-1")
	t.Setenv("KUBERNETES_POD_NAME", "")

	fields := StaticFields()
	assert.Equal(t, "relay-hub", fields["service"])
	assert.Equal(t, "relay-eu-1", fields["app_name"])
	assert.NotEmpty(t, fields["pid"])
	assert.NotContains(t, fields, "k8s_pod")
}

func TestNewOutput(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "relay.log")

	w, ok := newOutput(cfg).(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, cfg.FilePath, w.Filename)
	assert.Equal(t, 100, w.MaxSize)

	cfg.FilePath = ""
	assert.Equal(t, os.Stdout, newOutput(cfg))
}

func TestLogrusLogger_ChildSharesLevelAndOutput(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Fields = map[string]string{}

	root := NewLogrusLogger(cfg)
	child := root.WithField("component", "hub")

	var buf bytes.Buffer
	child.SetOutput(&buf)
	child.SetLevel(LevelWarn)

	child.Info("dropped")
	assert.Zero(t, buf.Len())

	child.Warn("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "hub", line["component"])
	assert.Equal(t, "warning", line["level"])
}
