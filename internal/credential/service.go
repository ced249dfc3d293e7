package credential

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/user"
	"github.com/frahmantamala/access-control/pkg/logger"
)

// placeholderSecret feeds the dummy hash compared when no credential exists.
const placeholderSecret = "credential-placeholder-secret"

type Service struct {
	store     Store
	hasher    Hasher
	logger    *slog.Logger
	dummyHash string
}

func NewService(store Store, hasher Hasher, lg *slog.Logger) *Service {
	dummy, err := hasher.Hash(placeholderSecret)
	if err != nil {
		dummy = ""
	}
	return &Service{
		store:     store,
		hasher:    hasher,
		logger:    logger.OrDefault(lg).With("service", "credential"),
		dummyHash: dummy,
	}
}

// CreateCredential hashes and persists a new credential for u.
func (s *Service) CreateCredential(ctx context.Context, u user.User, plaintext string) (Credential, error) {
	c, err := New(u, plaintext, s.hasher)
	if err != nil {
		return Credential{}, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed).WithCause(err)
	}

	created, err := s.store.Create(ctx, c)
	if err != nil {
		return Credential{}, err
	}
	if !created {
		return Credential{}, internal.NewValidationError("credential rejected", internal.ErrCodeValidationFailed)
	}
	return c, nil
}

// Verify reports whether supplied is u's password. Both the password hash and
// the user id hash must match. A missing user and a wrong password look the
// same to the caller.
func (s *Service) Verify(ctx context.Context, u user.User, supplied string) (bool, error) {
	c, err := s.store.Read(ctx, u.Name())
	if err != nil {
		return false, err
	}

	// Every path runs two compares so a missing user and a wrong password
	// take the same time.
	if c.IsEmpty() || u.ID() == "" {
		if s.dummyHash != "" {
			s.hasher.Compare(s.dummyHash, supplied)
			s.hasher.Compare(s.dummyHash, u.ID())
		}
		s.logger.InfoContext(ctx, "credential verification failed", "user", u.Name())
		return false, nil
	}

	passwordOK := s.hasher.Compare(c.PasswordHash(), supplied)
	identityOK := s.hasher.Compare(c.UserIDHash(), u.ID())
	if !passwordOK || !identityOK {
		s.logger.InfoContext(ctx, "credential verification failed", "user", u.Name())
		return false, nil
	}
	return true, nil
}

// Replace swaps u's credential for a new one built from plaintext. When u has
// no credential yet one is created.
func (s *Service) Replace(ctx context.Context, u user.User, plaintext string) (Credential, error) {
	c, err := New(u, plaintext, s.hasher)
	if err != nil {
		return Credential{}, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed).WithCause(err)
	}

	replaced, err := s.store.Update(ctx, u.Name(), c)
	if err != nil {
		return Credential{}, err
	}
	if replaced {
		return c, nil
	}

	created, err := s.store.Create(ctx, c)
	if err != nil {
		return Credential{}, fmt.Errorf("create replacement credential: %w", err)
	}
	if !created {
		return Credential{}, internal.NewValidationError("credential rejected", internal.ErrCodeValidationFailed)
	}
	return c, nil
}

// Remove discards the credential owned by username.
func (s *Service) Remove(ctx context.Context, username string) (bool, error) {
	return s.store.Delete(ctx, username)
}
