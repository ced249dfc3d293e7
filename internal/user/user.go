package user

import (
	"context"
	"maps"
	"strings"

	"github.com/frahmantamala/access-control/internal/privilege"
	"github.com/google/uuid"
)

// User is an identity holding metadata and a set of roles. Roles are read
// only; granting or revoking produces a new User with the same id.
type User struct {
	name        string
	id          string
	publicMeta  map[string]string
	privateMeta map[string]string
	roles       privilege.Set[privilege.Role]
}

// New creates a user with a freshly generated id.
func New(name string, publicMeta, privateMeta map[string]string, roles ...privilege.Role) User {
	return restore(name, uuid.NewString(), publicMeta, privateMeta, roles...)
}

func restore(name, id string, publicMeta, privateMeta map[string]string, roles ...privilege.Role) User {
	return User{
		name:        strings.TrimSpace(name),
		id:          id,
		publicMeta:  cloneMeta(publicMeta),
		privateMeta: cloneMeta(privateMeta),
		roles:       privilege.NewSet(roles...),
	}
}

func (u User) Name() string                         { return u.name }
func (u User) ID() string                           { return u.id }
func (u User) PublicMeta() map[string]string        { return cloneMeta(u.publicMeta) }
func (u User) PrivateMeta() map[string]string       { return cloneMeta(u.privateMeta) }
func (u User) Roles() privilege.Set[privilege.Role] { return u.roles }

// IsEmpty reports whether u is the default-deny value returned for missing users.
func (u User) IsEmpty() bool {
	return u.name == "" && u.id == "" && u.roles.Len() == 0
}

// HasRole reports whether the user carries a role with that name.
func (u User) HasRole(name string) bool {
	return u.roles.Contains(name)
}

// WithRoles returns a copy of u holding exactly roles.
func (u User) WithRoles(roles ...privilege.Role) User {
	return restore(u.name, u.id, u.publicMeta, u.privateMeta, roles...)
}

// WithMeta returns a copy of u with replaced metadata.
func (u User) WithMeta(publicMeta, privateMeta map[string]string) User {
	return restore(u.name, u.id, publicMeta, privateMeta, u.roles.Members()...)
}

// Equal compares name, id, metadata and role names.
func (u User) Equal(other User) bool {
	return u.name == other.name &&
		u.id == other.id &&
		maps.Equal(u.publicMeta, other.publicMeta) &&
		maps.Equal(u.privateMeta, other.privateMeta) &&
		u.roles.SameNames(other.roles)
}

func cloneMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store persists users. Reading a missing user yields the empty User.
type Store interface {
	EnsureTableExists(ctx context.Context) (bool, error)
	Create(ctx context.Context, u User) (bool, error)
	Read(ctx context.Context, name string) (User, error)
	ReadAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, name string, u User) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
}
