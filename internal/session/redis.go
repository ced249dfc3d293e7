package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps an opaque session id per login, mapped to the username with
// a TTL. Revoke deletes the key, ending the session immediately.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, lg *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.OrDefault(lg).With("session", "redis"),
	}
}

var _ Manager = (*RedisStore)(nil)

func (s *RedisStore) Issue(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", ErrEmptyUsername
	}
	id := uuid.NewString()
	if err := s.client.Set(ctx, s.key(id), username, s.ttl).Err(); err != nil {
		return "", internal.NewStoreUnavailableError("failed to store session", err)
	}
	return id, nil
}

func (s *RedisStore) CurrentUsername(ctx context.Context) (string, error) {
	id := internal.SessionTokenFromContext(ctx)
	if id == "" {
		return "", nil
	}
	if _, err := uuid.Parse(id); err != nil {
		s.logger.InfoContext(ctx, "rejecting malformed session id")
		return "", nil
	}

	username, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", internal.NewStoreUnavailableError("failed to load session", err)
	}
	return username, nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return internal.NewStoreUnavailableError("failed to destroy session", err)
	}
	return nil
}

// TTL exposes the configured session lifetime.
func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

func (s *RedisStore) key(id string) string {
	return keyPrefix + id
}
