package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/core/common/validation"
	privilegeDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/privilege"
	"github.com/frahmantamala/access-control/internal/core/persistence"
	"github.com/frahmantamala/access-control/internal/privilege"
	"github.com/frahmantamala/access-control/pkg/logger"
	"gorm.io/gorm"
)

var rolePermissions = persistence.LinkTable{
	Model:     &privilegeDatamodel.RolePermission{},
	OwnerCol:  "role_name",
	MemberCol: "permission_name",
	NewLink: func(owner, member string, position int) any {
		return &privilegeDatamodel.RolePermission{RoleName: owner, PermissionName: member, Position: position}
	},
}

type RoleStore struct {
	db          *gorm.DB
	permissions privilege.PermissionReader
	logger      *slog.Logger
	opts        persistence.Options
}

func NewRoleStore(db *gorm.DB, permissions privilege.PermissionReader, lg *slog.Logger, opts ...persistence.Option) *RoleStore {
	return &RoleStore{
		db:          db,
		permissions: permissions,
		logger:      logger.OrDefault(lg).With("store", "role"),
		opts:        persistence.Apply(privilege.RoleColumns, opts...),
	}
}

var _ privilege.RoleStore = (*RoleStore)(nil)

func (s *RoleStore) EnsureTableExists(ctx context.Context) (bool, error) {
	ok, err := persistence.EnsureTables(ctx, s.db, &privilegeDatamodel.Role{}, &privilegeDatamodel.RolePermission{})
	if err != nil {
		return false, persistence.Unavailable("create roles tables", err)
	}
	return ok, nil
}

func (s *RoleStore) Create(ctx context.Context, role privilege.Role) (bool, error) {
	if !s.valid(ctx, role) {
		return false, nil
	}

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := persistence.Exists(ctx, tx, &privilegeDatamodel.Role{}, "name", role.Name())
		if err != nil {
			return persistence.Unavailable("check role existence", err)
		}
		if exists {
			return fmt.Errorf("role %q: %w", role.Name(), internal.ErrAlreadyExists)
		}
		if err := tx.Create(&privilegeDatamodel.Role{Name: role.Name()}).Error; err != nil {
			return persistence.Unavailable("create role", err)
		}
		if err := rolePermissions.Replace(tx, role.Name(), role.Permissions().Names()); err != nil {
			return persistence.Unavailable("link role permissions", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *RoleStore) Read(ctx context.Context, name string) (privilege.Role, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &privilegeDatamodel.Role{}, "", "name = ?", name)
	if err != nil {
		return privilege.Role{}, persistence.Unavailable("read role", err)
	}
	if len(rows) == 0 {
		s.logger.InfoContext(ctx, "role not found", "name", name)
		return privilege.Role{}, nil
	}

	header := privilege.RoleHydrator.Hydrate(rows[0], s.opts.ConstructorColumns...)
	if header.Name() == "" {
		s.logger.WarnContext(ctx, "role row hydrated without a name", "name", name)
		return privilege.Role{}, nil
	}
	return s.assemble(ctx, header)
}

func (s *RoleStore) ReadAll(ctx context.Context) ([]privilege.Role, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &privilegeDatamodel.Role{}, "name ASC", nil)
	if err != nil {
		return nil, persistence.Unavailable("read roles", err)
	}

	roles := make([]privilege.Role, 0, len(rows))
	for _, row := range rows {
		header := privilege.RoleHydrator.Hydrate(row, s.opts.ConstructorColumns...)
		if header.Name() == "" {
			s.logger.WarnContext(ctx, "skipping malformed role row", "row_name", row["name"])
			continue
		}
		role, err := s.assemble(ctx, header)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func (s *RoleStore) Update(ctx context.Context, name string, role privilege.Role) (bool, error) {
	if role.Name() != name {
		s.logger.WarnContext(ctx, "role update rejected: name mismatch", "name", name, "new_name", role.Name(),
			"code", internal.ErrCodeNameMismatch)
		return false, nil
	}
	if !s.valid(ctx, role) {
		return false, nil
	}

	var updated bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&privilegeDatamodel.Role{}).Where("name = ?", name).Update("name", name)
		if result.Error != nil {
			return persistence.Unavailable("update role", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := rolePermissions.Replace(tx, name, role.Permissions().Names()); err != nil {
			return persistence.Unavailable("link role permissions", err)
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func (s *RoleStore) Delete(ctx context.Context, name string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rolePermissions.Clear(tx, name); err != nil {
			return persistence.Unavailable("unlink role permissions", err)
		}
		result := tx.Where("name = ?", name).Delete(&privilegeDatamodel.Role{})
		if result.Error != nil {
			return persistence.Unavailable("delete role", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// TODO: unresolved permission names shrink the role silently; product owners
// still have to decide whether a dangling reference should fail the read.
func (s *RoleStore) assemble(ctx context.Context, header privilege.Role) (privilege.Role, error) {
	names, err := rolePermissions.MemberNames(ctx, s.db, header.Name())
	if err != nil {
		return privilege.Role{}, persistence.Unavailable("read role permissions", err)
	}

	permissions := make([]privilege.Permission, 0, len(names))
	for _, permissionName := range names {
		permission, err := s.permissions.Read(ctx, permissionName)
		if err != nil {
			return privilege.Role{}, err
		}
		if permission.IsEmpty() {
			s.logger.WarnContext(ctx, "dropping unresolved permission from role",
				"role", header.Name(),
				"permission", permissionName)
			continue
		}
		permissions = append(permissions, permission)
	}
	return privilege.RoleFromRows(header, permissions), nil
}

func (s *RoleStore) valid(ctx context.Context, role privilege.Role) bool {
	if appErr := validation.ValidateName("role.name", role.Name()); appErr != nil {
		s.logger.WarnContext(ctx, "role rejected", "name", role.Name(), "reason", appErr.GetDetailedMessage())
		return false
	}
	if appErr := validation.ValidateNames("role.permissions", role.Permissions().Names()); appErr != nil {
		s.logger.WarnContext(ctx, "role rejected", "name", role.Name(), "reason", appErr.GetDetailedMessage())
		return false
	}
	return true
}
