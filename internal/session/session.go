package session

import (
	"context"
	"errors"
)

var ErrEmptyUsername = errors.New("session: username is required")

// Manager issues and resolves session tokens. CurrentUsername reads the token
// attached to ctx and returns "" when it is missing, expired or unknown.
type Manager interface {
	Issue(ctx context.Context, username string) (string, error)
	CurrentUsername(ctx context.Context) (string, error)
	Revoke(ctx context.Context, token string) error
}
