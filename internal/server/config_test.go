package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSanitizeAppliesDefaults verifies the zero config sanitizes to the
// documented defaults.
func TestSanitizeAppliesDefaults(t *testing.T) {
	cfg := Config{}.Sanitize()

	require.Equal(t, DefaultAddr, cfg.Addr)
	require.Equal(t, DefaultAllowedOrigins, cfg.AllowedOrigins)
	require.Equal(t, int64(DefaultMaxMessageBytes), cfg.MaxMessageBytes)
	require.Equal(t, DefaultConnectsPerMinute, cfg.ConnectsPerMinute)
	require.Equal(t, DefaultMessagesPerMinute, cfg.MessagesPerMinute)
	require.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	require.Equal(t, DefaultSendBuffer, cfg.SendBuffer)
	require.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

// TestSanitizeRejectsNonPositiveLimits verifies hostile or broken values
// fall back to defaults instead of disabling admission.
func TestSanitizeRejectsNonPositiveLimits(t *testing.T) {
	cfg := Config{
		ConnectsPerMinute: -1,
		MessagesPerMinute: 0,
		MaxMessageBytes:   -4096,
	}.Sanitize()

	require.Equal(t, DefaultConnectsPerMinute, cfg.ConnectsPerMinute)
	require.Equal(t, DefaultMessagesPerMinute, cfg.MessagesPerMinute)
	require.Equal(t, int64(DefaultMaxMessageBytes), cfg.MaxMessageBytes)
}

// TestOriginsParsing verifies the comma-separated allow-list splits with
// whitespace tolerance and drops empty entries.
func TestOriginsParsing(t *testing.T) {
	cfg := Config{AllowedOrigins: " http://a.example , ,http://b.example "}
	require.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Origins())
}

// TestLoadReadsEnvironment verifies Load picks up CHATWIRE_ variables and
// sanitizes the rest.
func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CHATWIRE_ADDR", ":9090")
	t.Setenv("CHATWIRE_MESSAGES_PER_MINUTE", "7")
	t.Setenv("CHATWIRE_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, 7, cfg.MessagesPerMinute)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, DefaultConnectsPerMinute, cfg.ConnectsPerMinute)
}
