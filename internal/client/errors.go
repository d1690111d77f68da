package client

import "fmt"

// Sentinel errors returned by the client core.
var (
	// ErrNotOpen rejects a send attempted while the link is not Open. The
	// core never queues frames for later delivery.
	ErrNotOpen = fmt.Errorf("link is not open")
	// ErrSessionActive rejects a connect while a previous sequence is still
	// running.
	ErrSessionActive = fmt.Errorf("connection sequence already active")
	// ErrInvalidUserID rejects a session whose user id fails the shared rule.
	ErrInvalidUserID = fmt.Errorf("user id must be 1-100 characters of letters, digits, underscore or hyphen")
)

// ValidationError marks input rejected locally before anything was sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
