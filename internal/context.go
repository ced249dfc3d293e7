package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextUsernameKey     ctxKey = "username"
	ContextSessionTokenKey ctxKey = "sessionToken"
)

// UsernameFromContext returns the username the caller claims to act as.
func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if username, ok := ctx.Value(ContextUsernameKey).(string); ok {
		return username
	}
	return ""
}

func ContextWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ContextUsernameKey, username)
}

// SessionTokenFromContext returns the raw session token attached to the request.
func SessionTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if token, ok := ctx.Value(ContextSessionTokenKey).(string); ok {
		return token
	}
	return ""
}

func ContextWithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ContextSessionTokenKey, token)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
