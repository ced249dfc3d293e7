package privilege

import "context"

// Every store follows the same contract:
//   - Read never reports a missing entity as an error; it returns the empty
//     value of the entity type so a forgotten existence check yields no privilege.
//   - Create rejects duplicate names with internal.ErrAlreadyExists.
//   - Validation failures are logged and reported as false with a nil error.
//   - Only store failures are returned as errors.

type ActionStore interface {
	EnsureTableExists(ctx context.Context) (bool, error)
	Create(ctx context.Context, action Action) (bool, error)
	Read(ctx context.Context, name string) (Action, error)
	ReadAll(ctx context.Context) ([]Action, error)
	Update(ctx context.Context, name string, action Action) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
}

type PermissionStore interface {
	EnsureTableExists(ctx context.Context) (bool, error)
	Create(ctx context.Context, permission Permission) (bool, error)
	Read(ctx context.Context, name string) (Permission, error)
	ReadAll(ctx context.Context) ([]Permission, error)
	Update(ctx context.Context, name string, permission Permission) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
}

type RoleStore interface {
	EnsureTableExists(ctx context.Context) (bool, error)
	Create(ctx context.Context, role Role) (bool, error)
	Read(ctx context.Context, name string) (Role, error)
	ReadAll(ctx context.Context) ([]Role, error)
	Update(ctx context.Context, name string, role Role) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
}

// ActionReader is the slice of ActionStore a permission store hydrates with.
type ActionReader interface {
	Read(ctx context.Context, name string) (Action, error)
}

// PermissionReader is the slice of PermissionStore a role store hydrates with.
type PermissionReader interface {
	Read(ctx context.Context, name string) (Permission, error)
}

// RoleReader is the slice of RoleStore a user store hydrates with.
type RoleReader interface {
	Read(ctx context.Context, name string) (Role, error)
}
