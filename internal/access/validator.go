package access

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/user"
	"github.com/frahmantamala/access-control/pkg/logger"
)

// SessionProvider reports who is logged in. An empty name with a nil error
// means there is no session; an error means the session backend failed.
type SessionProvider interface {
	CurrentUsername(ctx context.Context) (string, error)
}

type UserReader interface {
	Read(ctx context.Context, name string) (user.User, error)
}

// Validator decides whether the logged-in user may reach a resource guarded by
// a set of role names. Nothing is cached: every call reads the session and the
// user afresh so a revoked role takes effect on the next check.
type Validator struct {
	session SessionProvider
	users   UserReader
	logger  *slog.Logger
}

func NewValidator(session SessionProvider, users UserReader, lg *slog.Logger) *Validator {
	return &Validator{
		session: session,
		users:   users,
		logger:  logger.OrDefault(lg).With("component", "access_validator"),
	}
}

// Validate reports whether username is the session's user and holds every role
// in required. An empty required set is a deny. Errors are returned only when
// the session backend or the user store fails.
func (v *Validator) Validate(ctx context.Context, username string, required []string) (bool, error) {
	current, err := v.session.CurrentUsername(ctx)
	if err != nil {
		return false, err
	}
	if !sameIdentity(current, username) {
		v.deny(ctx, username, "identity mismatch")
		return false, nil
	}

	if len(required) == 0 {
		v.deny(ctx, username, "no required roles declared")
		return false, nil
	}

	u, err := v.users.Read(ctx, username)
	if err != nil {
		return false, err
	}
	if u.IsEmpty() || u.Name() != username {
		v.deny(ctx, username, "user not found")
		return false, nil
	}

	if missing, ok := HoldsAll(u, required); !ok {
		v.deny(ctx, username, "missing role", "role", missing)
		return false, nil
	}
	return true, nil
}

// Authorize is Validate shaped for handlers: a deny becomes ErrAccessDenied.
func (v *Validator) Authorize(ctx context.Context, username string, required []string) error {
	ok, err := v.Validate(ctx, username, required)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrAccessDenied
	}
	return nil
}

// HoldsAll checks u's own role snapshot against required. It returns the first
// missing name when the check fails. An empty required set never passes.
func HoldsAll(u user.User, required []string) (string, bool) {
	if len(required) == 0 {
		return "", false
	}
	roles := u.Roles()
	for _, name := range required {
		if name == "" || !roles.Contains(name) {
			return name, false
		}
	}
	return "", true
}

func sameIdentity(current, claimed string) bool {
	if current == "" || claimed == "" {
		return false
	}
	return strings.TrimSpace(claimed) == claimed && current == claimed
}

func (v *Validator) deny(ctx context.Context, username, reason string, attrs ...any) {
	args := append([]any{"user", username, "reason", reason}, attrs...)
	v.logger.WarnContext(ctx, "access denied", args...)
}
