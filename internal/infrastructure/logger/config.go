package logger

import (
	"os"
	"runtime"
	"strconv"
)

type Config struct {
	Level      Level             `json:"level"       yaml:"level"`
	Format     string            `json:"format"      yaml:"format"` // console, json, text
	Output     string            `json:"output"      yaml:"output"` // stdout, stderr, file
	FilePath   string            `json:"file_path"   yaml:"file_path"`
	MaxSize    int               `json:"max_size"    yaml:"max_size"` // MB
	MaxBackups int               `json:"max_backups" yaml:"max_backups"`
	MaxAge     int               `json:"max_age"     yaml:"max_age"` // days
	Compress   bool              `json:"compress"    yaml:"compress"`
	Fields     map[string]string `json:"fields"      yaml:"fields"` // attached to every entry
}

// deploymentFieldEnv maps log field names onto the environment variables
// orchestrators commonly inject.
var deploymentFieldEnv = map[string]string{
	"k8s_namespace": "KUBERNETES_NAMESPACE",
	"k8s_pod":       "KUBERNETES_POD_NAME",
	"k8s_node":      "KUBERNETES_NODE_NAME",
	"container_id":  "HOSTNAME",
	"docker_image":  "DOCKER_IMAGE",
	"app_name":      "APP_NAME", // also the relay ID in metrics
	"app_version":   "APP_VERSION",
	"environment":   "APP_ENV",
}

// StaticFields returns the process and deployment fields stamped on every log
// entry of the relay.
func StaticFields() map[string]string {
	hostname, _ := os.Hostname()

	fields := map[string]string{
		"service":    "relay-hub",
		"hostname":   hostname,
		"pid":        strconv.Itoa(os.Getpid()),
		"go_version": runtime.Version(),
	}
	for field, env := range deploymentFieldEnv {
		if v := os.Getenv(env); v != "" {
			fields[field] = v
		}
	}
	return fields
}

// NewConfig builds a logger config from the relay's textual settings on top
// of NewDefaultConfig.
func NewConfig(level, format, output, filePath string) (*Config, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	config := NewDefaultConfig()
	config.Level = lvl
	if format != "" {
		config.Format = format
	}
	if output != "" {
		config.Output = output
	}
	config.FilePath = filePath

	return config, nil
}

func NewDefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     "console",
		Output:     "stdout",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
		Fields:     StaticFields(),
	}
}
