package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/core/common/validation"
	"github.com/frahmantamala/access-control/internal/core/events"
	"github.com/frahmantamala/access-control/internal/credential"
	"github.com/frahmantamala/access-control/internal/privilege"
	"github.com/frahmantamala/access-control/internal/user"
	"github.com/frahmantamala/access-control/pkg/logger"
)

type CredentialService interface {
	CreateCredential(ctx context.Context, u user.User, plaintext string) (credential.Credential, error)
	Verify(ctx context.Context, u user.User, supplied string) (bool, error)
	Replace(ctx context.Context, u user.User, plaintext string) (credential.Credential, error)
	Remove(ctx context.Context, username string) (bool, error)
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

// Service runs the user lifecycle: registration, role grants, password
// changes and removal. Every mutation goes through the stores; nothing is
// cached between calls.
type Service struct {
	users       user.Store
	roles       privilege.RoleReader
	credentials CredentialService
	publisher   Publisher
	logger      *slog.Logger
}

func NewService(users user.Store, roles privilege.RoleReader, credentials CredentialService, publisher Publisher, lg *slog.Logger) *Service {
	return &Service{
		users:       users,
		roles:       roles,
		credentials: credentials,
		publisher:   publisher,
		logger:      logger.OrDefault(lg).With("service", "account"),
	}
}

// Register creates a user without roles and its credential. The user row is
// removed again when the credential cannot be stored.
func (s *Service) Register(ctx context.Context, name, password string, publicMeta, privateMeta map[string]string) (user.User, error) {
	if appErr := validation.ValidateName("user.name", name); appErr != nil {
		return user.User{}, appErr
	}
	if password == "" {
		return user.User{}, internal.NewValidationFieldError("password", "password is required", internal.ErrCodeValidationFailed)
	}

	u := user.New(name, publicMeta, privateMeta)
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	if !created {
		return user.User{}, internal.NewValidationError("user rejected", internal.ErrCodeValidationFailed)
	}

	if _, err := s.credentials.CreateCredential(ctx, u, password); err != nil {
		if _, delErr := s.users.Delete(ctx, name); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back user after credential failure", "user", name, "error", delErr)
		}
		return user.User{}, err
	}

	s.publish(ctx, events.NewAccountEvent(events.EventTypeUserRegistered, name, ""))
	return u, nil
}

// Authenticate returns the user when password matches. An unknown user and a
// wrong password both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := s.users.Read(ctx, username)
	if err != nil {
		return user.User{}, err
	}

	ok, err := s.credentials.Verify(ctx, u, password)
	if err != nil {
		return user.User{}, err
	}
	if !ok || u.IsEmpty() {
		return user.User{}, internal.ErrInvalidCredentials
	}
	return u, nil
}

// GrantRole adds roleName to the user's role set. It reports false when the
// user or the role does not exist.
func (s *Service) GrantRole(ctx context.Context, username, roleName string) (bool, error) {
	u, err := s.users.Read(ctx, username)
	if err != nil {
		return false, err
	}
	if u.IsEmpty() {
		s.logger.WarnContext(ctx, "grant rejected: unknown user", "user", username, "role", roleName)
		return false, nil
	}
	if u.HasRole(roleName) {
		return true, nil
	}

	role, err := s.roles.Read(ctx, roleName)
	if err != nil {
		return false, err
	}
	if role.IsEmpty() {
		s.logger.WarnContext(ctx, "grant rejected: unknown role", "user", username, "role", roleName,
			"code", internal.ErrCodeUnknownRole)
		return false, nil
	}

	updated, err := s.users.Update(ctx, username, u.WithRoles(append(u.Roles().Members(), role)...))
	if err != nil || !updated {
		return updated, err
	}
	s.publish(ctx, events.NewAccountEvent(events.EventTypeRoleGranted, username, roleName))
	return true, nil
}

// RevokeRole removes roleName from the user's role set. Revoking a role the
// user does not hold is a no-op that reports true.
func (s *Service) RevokeRole(ctx context.Context, username, roleName string) (bool, error) {
	u, err := s.users.Read(ctx, username)
	if err != nil {
		return false, err
	}
	if u.IsEmpty() {
		s.logger.WarnContext(ctx, "revoke rejected: unknown user", "user", username, "role", roleName)
		return false, nil
	}
	if !u.HasRole(roleName) {
		return true, nil
	}

	kept := make([]privilege.Role, 0, u.Roles().Len())
	for _, r := range u.Roles().Members() {
		if r.Name() != roleName {
			kept = append(kept, r)
		}
	}

	updated, err := s.users.Update(ctx, username, u.WithRoles(kept...))
	if err != nil || !updated {
		return updated, err
	}
	s.publish(ctx, events.NewAccountEvent(events.EventTypeRoleRevoked, username, roleName))
	return true, nil
}

// ChangePassword replaces the user's credential with one for newPassword.
func (s *Service) ChangePassword(ctx context.Context, username, newPassword string) error {
	u, err := s.users.Read(ctx, username)
	if err != nil {
		return err
	}
	if u.IsEmpty() {
		return fmt.Errorf("user %q: %w", username, internal.ErrNotFound)
	}

	if _, err := s.credentials.Replace(ctx, u, newPassword); err != nil {
		return err
	}
	s.publish(ctx, events.NewAccountEvent(events.EventTypePasswordChanged, username, ""))
	return nil
}

// Remove deletes the user's credential and then the user.
func (s *Service) Remove(ctx context.Context, username string) (bool, error) {
	if _, err := s.credentials.Remove(ctx, username); err != nil {
		return false, err
	}
	removed, err := s.users.Delete(ctx, username)
	if err != nil || !removed {
		return removed, err
	}
	s.publish(ctx, events.NewAccountEvent(events.EventTypeUserRemoved, username, ""))
	return true, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account event",
			"event_type", event.EventType(), "error", err)
	}
}

// IsAlreadyRegistered reports whether err came from registering a taken name.
func IsAlreadyRegistered(err error) bool {
	return errors.Is(err, internal.ErrAlreadyExists)
}
