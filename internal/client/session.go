package client

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nightingale-hq/chatwire/internal/wire"
)

var validate = validator.New()

// Session is the immutable identity a client presents for one connection
// sequence. Build it with NewSession so every session in the process has
// passed the same validation as the server applies on connect.
type Session struct {
	UserID     string `validate:"required,max=100"`
	UserName   string `validate:"required,max=200"`
	Department string `validate:"max=200"`
	Bio        string `validate:"max=1000"`
}

// NewSession validates and normalizes an identity. An empty user name falls
// back to the user id and an empty department becomes "Unknown", matching
// what the server would fill in on its side.
func NewSession(userID, userName, department, bio string) (Session, error) {
	if userName == "" {
		userName = userID
	}
	if department == "" {
		department = "Unknown"
	}

	s := Session{
		UserID:     userID,
		UserName:   userName,
		Department: department,
		Bio:        bio,
	}
	if !wire.ValidUserID(s.UserID) {
		return Session{}, ErrInvalidUserID
	}
	if err := validate.Struct(s); err != nil {
		return Session{}, fmt.Errorf("invalid session: %w", err)
	}
	return s, nil
}
