package wire

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits shared by client and server. The client rejects bad
// input locally before spending a frame; the server enforces the same rules
// authoritatively on ingest.
const (
	MaxUserIDLen = 100
	MaxTextRunes = 1000
)

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidUserID reports whether id is acceptable as a chat user id: 1-100
// characters drawn from letters, digits, underscore and hyphen.
func ValidUserID(id string) bool {
	return id != "" && len(id) <= MaxUserIDLen && userIDPattern.MatchString(id)
}

// ValidateText normalizes message text and enforces the shared length rule.
// It returns the trimmed text; input that is empty after trimming or longer
// than MaxTextRunes fails.
func ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("message text must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxTextRunes {
		return "", fmt.Errorf("message text exceeds %d characters", MaxTextRunes)
	}
	return trimmed, nil
}
