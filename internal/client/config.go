package client

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Defaults applied by sanitize when a Config field is unset.
const (
	DefaultServerURL        = "ws://localhost:8080"
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultBackoffBase      = time.Second
	DefaultMaxAttempts      = 5
	DefaultConfirmWindow    = 15 * time.Second
	DefaultEventBuffer      = 16
)

// Config carries every knob the client core needs. The zero value is usable:
// sanitize fills in defaults for anything unset. The env tags let command
// line frontends load it straight from the environment.
type Config struct {
	// ServerURL is the base URL of the chat server, e.g.
	// "ws://localhost:8080". http and https schemes are accepted and
	// translated to their websocket counterparts.
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080"`

	// HandshakeTimeout bounds a single dial attempt.
	HandshakeTimeout time.Duration `env:"CHAT_HANDSHAKE_TIMEOUT,default=5s"`

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration `env:"CHAT_WRITE_TIMEOUT,default=10s"`

	// BackoffBase is the first reconnect delay; each further attempt
	// doubles it.
	BackoffBase time.Duration `env:"CHAT_BACKOFF_BASE,default=1s"`

	// MaxAttempts caps consecutive reconnect attempts before the link
	// gives up.
	MaxAttempts int `env:"CHAT_MAX_ATTEMPTS,default=5"`

	// ConfirmWindow is how far a server echo's timestamp may sit from the
	// local send time and still confirm a pending message.
	ConfirmWindow time.Duration `env:"CHAT_CONFIRM_WINDOW,default=15s"`

	// Dialer overrides socket construction, for callers that need proxy or
	// TLS control. Nil uses a plain gorilla dialer.
	Dialer Dialer `env:"-"`
}

// sanitize normalizes the server URL and fills defaults. It fails only when
// the URL is unusable.
func (c Config) sanitize() (Config, error) {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}

	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return c, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return c, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return c, fmt.Errorf("server url %q has no host", c.ServerURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	c.ServerURL = u.String()

	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.ConfirmWindow <= 0 {
		c.ConfirmWindow = DefaultConfirmWindow
	}
	return c, nil
}

// wsEndpoint returns the websocket URL for one user's session.
func (c Config) wsEndpoint(userID string) string {
	return fmt.Sprintf("%s/ws/%s", c.ServerURL, url.PathEscape(userID))
}

// httpBase returns the companion HTTP base URL for the read endpoints.
func (c Config) httpBase() string {
	base := c.ServerURL
	switch {
	case strings.HasPrefix(base, "wss://"):
		return "https://" + strings.TrimPrefix(base, "wss://")
	case strings.HasPrefix(base, "ws://"):
		return "http://" + strings.TrimPrefix(base, "ws://")
	}
	return base
}
