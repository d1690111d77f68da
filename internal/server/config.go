package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/samber/lo"
)

// Default values applied by Sanitize when the environment leaves a setting
// unset or out of range.
const (
	DefaultAddr              = ":8080"
	DefaultAllowedOrigins    = "http://localhost:8080"
	DefaultMaxMessageBytes   = 4096
	DefaultConnectsPerMinute = 5
	DefaultMessagesPerMinute = 20
	DefaultHistoryLimit      = 100
	DefaultSendBuffer        = 256
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultLogLevel          = "info"
)

// Config holds the runtime settings for the chat server.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string `env:"CHATWIRE_ADDR,default=:8080"`
	// AllowedOrigins is a comma-separated allow-list for the WebSocket
	// Origin check. "*" admits every origin.
	AllowedOrigins string `env:"CHATWIRE_ALLOWED_ORIGINS,default=http://localhost:8080"`
	// MaxMessageBytes caps the size of a single inbound WebSocket frame.
	MaxMessageBytes int64 `env:"CHATWIRE_MAX_MESSAGE_BYTES,default=4096"`
	// ConnectsPerMinute caps connection attempts per origin per minute.
	ConnectsPerMinute int `env:"CHATWIRE_CONNECTS_PER_MINUTE,default=5"`
	// MessagesPerMinute caps accepted messages per user per minute.
	MessagesPerMinute int `env:"CHATWIRE_MESSAGES_PER_MINUTE,default=20"`
	// HistoryLimit is how many broadcast messages are retained for the
	// recent-messages endpoint.
	HistoryLimit int `env:"CHATWIRE_HISTORY_LIMIT,default=100"`
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int `env:"CHATWIRE_SEND_BUFFER,default=256"`
	// ShutdownTimeout bounds the graceful shutdown of the HTTP server and
	// the hub.
	ShutdownTimeout time.Duration `env:"CHATWIRE_SHUTDOWN_TIMEOUT,default=10s"`
	// LogLevel selects the slog level: debug, info, warn or error.
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads the server configuration from the environment and applies
// bounds to every value.
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing server environment: %w", err)
	}
	return cfg.Sanitize(), nil
}

// Sanitize replaces unset or out-of-range values with their defaults so a
// partial environment cannot disable the admission limits.
func (c Config) Sanitize() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.AllowedOrigins == "" {
		c.AllowedOrigins = DefaultAllowedOrigins
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if c.ConnectsPerMinute <= 0 {
		c.ConnectsPerMinute = DefaultConnectsPerMinute
	}
	if c.MessagesPerMinute <= 0 {
		c.MessagesPerMinute = DefaultMessagesPerMinute
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = DefaultSendBuffer
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}

// Origins returns the configured allow-list as individual origin values.
func (c Config) Origins() []string {
	return lo.FilterMap(strings.Split(c.AllowedOrigins, ","), func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
}
