package wire

// WebSocket close codes assigned by the connection manager. Codes in the
// 4xxx range are terminal rejections: the client surfaces them instead of
// scheduling a reconnect, since retrying cannot change the outcome.
const (
	// CloseNormal ends a session deliberately. No reconnect follows it.
	CloseNormal = 1000
	// CloseInvalidUserID rejects a connect whose user id fails validation.
	CloseInvalidUserID = 4000
	// CloseSessionReplaced tells a connection it was superseded by a newer
	// connect carrying the same user id.
	CloseSessionReplaced = 4001
	// CloseRateLimited rejects a connect that exceeded the per-origin
	// admission rate.
	CloseRateLimited = 4029
)

// TerminalCloseCode reports whether a close code ends the session without
// any reconnect attempt.
func TerminalCloseCode(code int) bool {
	switch code {
	case CloseNormal, CloseInvalidUserID, CloseSessionReplaced, CloseRateLimited:
		return true
	}
	return false
}

// Error codes carried by in-band error frames.
const (
	// ErrCodeRateLimited marks a message dropped by per-user admission.
	ErrCodeRateLimited = "rate_limited"
	// ErrCodeInvalidFrame marks a frame the server could not parse.
	ErrCodeInvalidFrame = "invalid_frame"
	// ErrCodeInvalidText marks a message whose text failed validation.
	ErrCodeInvalidText = "invalid_text"
)
