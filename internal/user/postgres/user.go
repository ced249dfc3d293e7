package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/user"
	"github.com/frahmantamala/access-control/internal/core/persistence"
	"github.com/frahmantamala/access-control/internal/privilege"
	"github.com/frahmantamala/access-control/internal/user"
	"github.com/frahmantamala/access-control/pkg/logger"
	"gorm.io/gorm"
)

var userRoles = persistence.LinkTable{
	Model:     &userDatamodel.UserRole{},
	OwnerCol:  "user_name",
	MemberCol: "role_name",
	NewLink: func(owner, member string, position int) any {
		return &userDatamodel.UserRole{UserName: owner, RoleName: member, Position: position}
	},
}

type UserStore struct {
	db     *gorm.DB
	roles  privilege.RoleReader
	logger *slog.Logger
	opts   persistence.Options
}

func NewUserStore(db *gorm.DB, roles privilege.RoleReader, lg *slog.Logger, opts ...persistence.Option) *UserStore {
	return &UserStore{
		db:     db,
		roles:  roles,
		logger: logger.OrDefault(lg).With("store", "user"),
		opts:   persistence.Apply(user.Columns, opts...),
	}
}

var _ user.Store = (*UserStore)(nil)

func (s *UserStore) EnsureTableExists(ctx context.Context) (bool, error) {
	ok, err := persistence.EnsureTables(ctx, s.db, &userDatamodel.User{}, &userDatamodel.UserRole{})
	if err != nil {
		return false, persistence.Unavailable("create users tables", err)
	}
	return ok, nil
}

func (s *UserStore) Create(ctx context.Context, u user.User) (bool, error) {
	if !s.valid(ctx, u) {
		return false, nil
	}
	row, err := toDataModel(u)
	if err != nil {
		s.logger.WarnContext(ctx, "user rejected: metadata not encodable", "name", u.Name(), "error", err)
		return false, nil
	}

	var created bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := persistence.Exists(ctx, tx, &userDatamodel.User{}, "name", u.Name())
		if err != nil {
			return persistence.Unavailable("check user existence", err)
		}
		if exists {
			return fmt.Errorf("user %q: %w", u.Name(), internal.ErrAlreadyExists)
		}
		if err := tx.Create(row).Error; err != nil {
			return persistence.Unavailable("create user", err)
		}
		if err := userRoles.Replace(tx, u.Name(), u.Roles().Names()); err != nil {
			return persistence.Unavailable("link user roles", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *UserStore) Read(ctx context.Context, name string) (user.User, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &userDatamodel.User{}, "", "name = ?", name)
	if err != nil {
		return user.User{}, persistence.Unavailable("read user", err)
	}
	if len(rows) == 0 {
		s.logger.InfoContext(ctx, "user not found", "name", name)
		return user.User{}, nil
	}

	header := s.hydrate(ctx, rows[0])
	if header.Name() == "" || header.ID() == "" {
		s.logger.WarnContext(ctx, "user row hydrated without name or id", "name", name)
		return user.User{}, nil
	}
	return s.assemble(ctx, header)
}

func (s *UserStore) ReadAll(ctx context.Context) ([]user.User, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &userDatamodel.User{}, "name ASC", nil)
	if err != nil {
		return nil, persistence.Unavailable("read users", err)
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		header := s.hydrate(ctx, row)
		if header.Name() == "" || header.ID() == "" {
			s.logger.WarnContext(ctx, "skipping malformed user row", "row_name", row["name"])
			continue
		}
		u, err := s.assemble(ctx, header)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Update rewrites metadata and role links. The stored id is never touched.
func (s *UserStore) Update(ctx context.Context, name string, u user.User) (bool, error) {
	if u.Name() != name {
		s.logger.WarnContext(ctx, "user update rejected: name mismatch", "name", name, "new_name", u.Name(),
			"code", internal.ErrCodeNameMismatch)
		return false, nil
	}
	if appErr := validation.ValidateNames("user.roles", u.Roles().Names()); appErr != nil {
		s.logger.WarnContext(ctx, "user update rejected", "name", name, "reason", appErr.GetDetailedMessage())
		return false, nil
	}
	row, err := toDataModel(u)
	if err != nil {
		s.logger.WarnContext(ctx, "user update rejected: metadata not encodable", "name", name, "error", err)
		return false, nil
	}

	var updated bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&userDatamodel.User{}).
			Where("name = ?", name).
			Updates(map[string]any{
				"public_meta":  row.PublicMeta,
				"private_meta": row.PrivateMeta,
			})
		if result.Error != nil {
			return persistence.Unavailable("update user", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := userRoles.Replace(tx, name, u.Roles().Names()); err != nil {
			return persistence.Unavailable("link user roles", err)
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func (s *UserStore) Delete(ctx context.Context, name string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userRoles.Clear(tx, name); err != nil {
			return persistence.Unavailable("unlink user roles", err)
		}
		result := tx.Where("name = ?", name).Delete(&userDatamodel.User{})
		if result.Error != nil {
			return persistence.Unavailable("delete user", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (s *UserStore) hydrate(ctx context.Context, row privilege.Row) user.User {
	cols := s.opts.ConstructorColumns
	if dropped := user.Hydrator.Discarded(row, cols...); len(dropped) > 0 {
		s.logger.DebugContext(ctx, "discarding undeclared user columns", "columns", dropped)
	}
	return user.Hydrator.Hydrate(row, cols...)
}

func (s *UserStore) assemble(ctx context.Context, header user.User) (user.User, error) {
	names, err := userRoles.MemberNames(ctx, s.db, header.Name())
	if err != nil {
		return user.User{}, persistence.Unavailable("read user roles", err)
	}

	roles := make([]privilege.Role, 0, len(names))
	for _, roleName := range names {
		role, err := s.roles.Read(ctx, roleName)
		if err != nil {
			return user.User{}, err
		}
		if role.IsEmpty() {
			s.logger.WarnContext(ctx, "dropping unresolved role from user",
				"user", header.Name(),
				"role", roleName)
			continue
		}
		roles = append(roles, role)
	}
	return user.FromRows(header, roles), nil
}

func (s *UserStore) valid(ctx context.Context, u user.User) bool {
	if appErr := validation.ValidateName("user.name", u.Name()); appErr != nil {
		s.logger.WarnContext(ctx, "user rejected", "name", u.Name(), "reason", appErr.GetDetailedMessage())
		return false
	}
	if u.ID() == "" {
		s.logger.WarnContext(ctx, "user rejected: missing id", "name", u.Name())
		return false
	}
	if appErr := validation.ValidateNames("user.roles", u.Roles().Names()); appErr != nil {
		s.logger.WarnContext(ctx, "user rejected", "name", u.Name(), "reason", appErr.GetDetailedMessage())
		return false
	}
	return true
}

func toDataModel(u user.User) (*userDatamodel.User, error) {
	public, err := user.EncodeMeta(u.PublicMeta())
	if err != nil {
		return nil, err
	}
	private, err := user.EncodeMeta(u.PrivateMeta())
	if err != nil {
		return nil, err
	}
	return &userDatamodel.User{
		Name:        u.Name(),
		ID:          u.ID(),
		PublicMeta:  public,
		PrivateMeta: private,
	}, nil
}
