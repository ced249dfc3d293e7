package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenProvider keeps sessions in signed HS256 tokens. It holds no server side
// state, so Revoke cannot end a session before the token expires.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewTokenProvider(secret string, ttl time.Duration, lg *slog.Logger) *TokenProvider {
	return &TokenProvider{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.OrDefault(lg).With("session", "jwt"),
	}
}

var _ Manager = (*TokenProvider)(nil)

func (p *TokenProvider) Issue(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", ErrEmptyUsername
	}

	now := p.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates tokenString and returns its claims.
func (p *TokenProvider) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, internal.ErrInvalidSession.WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" || claims.Subject != claims.Username {
		return nil, internal.ErrInvalidSession
	}
	return claims, nil
}

func (p *TokenProvider) CurrentUsername(ctx context.Context) (string, error) {
	raw := internal.SessionTokenFromContext(ctx)
	if raw == "" {
		return "", nil
	}
	claims, err := p.Parse(raw)
	if err != nil {
		p.logger.InfoContext(ctx, "rejecting session token", "expired", errors.Is(err, jwt.ErrTokenExpired))
		return "", nil
	}
	return claims.Username, nil
}

func (p *TokenProvider) Revoke(ctx context.Context, token string) error {
	return nil
}
