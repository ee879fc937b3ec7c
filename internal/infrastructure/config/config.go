package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Relay
	Addr            string        `env:"RELAY_ADDR" default:":8080"`
	AllowedOrigins  []string      `env:"RELAY_ALLOWED_ORIGINS" default:"*"`
	EchoToSender    bool          `env:"RELAY_ECHO_TO_SENDER" default:"false"`
	SendBuffer      int           `env:"RELAY_SEND_BUFFER" default:"256"`
	MaxMessageSize  int64         `env:"RELAY_MAX_MESSAGE_SIZE" default:"0"`
	WriteTimeout    time.Duration `env:"RELAY_WRITE_TIMEOUT" default:"10s"`
	PongTimeout     time.Duration `env:"RELAY_PONG_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"RELAY_SHUTDOWN_TIMEOUT" default:"5s"`

	// Logging
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"console"`
	LogOutput   string `env:"LOG_OUTPUT" default:"stdout"`
	LogFilePath string `env:"LOG_FILE_PATH"`

	// Metrics
	MetricsEnabled bool   `env:"METRICS_ENABLED" default:"true"`
	MetricsPrefix  string `env:"METRICS_PREFIX" default:"relay"`
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		AllowedOrigins:  []string{"*"},
		SendBuffer:      256,
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
		LogOutput:       "stdout",
		MetricsEnabled:  true,
		MetricsPrefix:   "relay",
	}
}

// Load reads the optional env files (".env" when none are given) and then the
// process environment. A missing env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	def := Default()
	cfg := &Config{}

	loadEnvString(&cfg.Addr, "RELAY_ADDR", def.Addr)
	loadEnvStringSlice(&cfg.AllowedOrigins, "RELAY_ALLOWED_ORIGINS", def.AllowedOrigins)
	if err := loadEnvBool(&cfg.EchoToSender, "RELAY_ECHO_TO_SENDER", def.EchoToSender); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&cfg.SendBuffer, "RELAY_SEND_BUFFER", def.SendBuffer); err != nil {
		return nil, err
	}
	if err := loadEnvInt64(&cfg.MaxMessageSize, "RELAY_MAX_MESSAGE_SIZE", def.MaxMessageSize); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&cfg.WriteTimeout, "RELAY_WRITE_TIMEOUT", def.WriteTimeout); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&cfg.PongTimeout, "RELAY_PONG_TIMEOUT", def.PongTimeout); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&cfg.ShutdownTimeout, "RELAY_SHUTDOWN_TIMEOUT", def.ShutdownTimeout); err != nil {
		return nil, err
	}

	loadEnvString(&cfg.LogLevel, "LOG_LEVEL", def.LogLevel)
	loadEnvString(&cfg.LogFormat, "LOG_FORMAT", def.LogFormat)
	loadEnvString(&cfg.LogOutput, "LOG_OUTPUT", def.LogOutput)
	loadEnvString(&cfg.LogFilePath, "LOG_FILE_PATH", def.LogFilePath)

	if err := loadEnvBool(&cfg.MetricsEnabled, "METRICS_ENABLED", def.MetricsEnabled); err != nil {
		return nil, err
	}
	loadEnvString(&cfg.MetricsPrefix, "METRICS_PREFIX", def.MetricsPrefix)

	return cfg, nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "RELAY_ADDR must not be empty")
	}
	if c.SendBuffer <= 0 {
		problems = append(problems, "RELAY_SEND_BUFFER must be positive")
	}
	if c.MaxMessageSize < 0 {
		problems = append(problems, "RELAY_MAX_MESSAGE_SIZE must not be negative")
	}
	if c.WriteTimeout <= 0 {
		problems = append(problems, "RELAY_WRITE_TIMEOUT must be positive")
	}
	if c.PongTimeout <= 0 {
		problems = append(problems, "RELAY_PONG_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "RELAY_SHUTDOWN_TIMEOUT must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLogLevels, c.LogLevel) {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}
	validLogFormats := []string{"console", "text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}
	validLogOutputs := []string{"stdout", "stderr", "file"}
	if !contains(validLogOutputs, c.LogOutput) {
		problems = append(problems, fmt.Sprintf("LOG_OUTPUT must be one of: %s", strings.Join(validLogOutputs, ", ")))
	}
	if c.LogOutput == "file" && c.LogFilePath == "" {
		problems = append(problems, "LOG_FILE_PATH is required when LOG_OUTPUT is file")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// AllowsAnyOrigin reports whether the origin list contains the "*" wildcard.
func (c *Config) AllowsAnyOrigin() bool {
	return contains(c.AllowedOrigins, "*")
}

func loadEnvString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt64(target *int64, key string, defaultValue int64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %w", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) {
	value := os.Getenv(key)
	if value == "" {
		*target = append([]string(nil), defaultValue...)
		return
	}

	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	*target = out
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
