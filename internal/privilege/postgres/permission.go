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

var permissionActions = persistence.LinkTable{
	Model:     &privilegeDatamodel.PermissionAction{},
	OwnerCol:  "permission_name",
	MemberCol: "action_name",
	NewLink: func(owner, member string, position int) any {
		return &privilegeDatamodel.PermissionAction{PermissionName: owner, ActionName: member, Position: position}
	},
}

type PermissionStore struct {
	db      *gorm.DB
	actions privilege.ActionReader
	logger  *slog.Logger
	opts    persistence.Options
}

func NewPermissionStore(db *gorm.DB, actions privilege.ActionReader, lg *slog.Logger, opts ...persistence.Option) *PermissionStore {
	return &PermissionStore{
		db:      db,
		actions: actions,
		logger:  logger.OrDefault(lg).With("store", "permission"),
		opts:    persistence.Apply(privilege.PermissionColumns, opts...),
	}
}

var _ privilege.PermissionStore = (*PermissionStore)(nil)

func (s *PermissionStore) EnsureTableExists(ctx context.Context) (bool, error) {
	ok, err := persistence.EnsureTables(ctx, s.db, &privilegeDatamodel.Permission{}, &privilegeDatamodel.PermissionAction{})
	if err != nil {
		return false, persistence.Unavailable("create permissions tables", err)
	}
	return ok, nil
}

func (s *PermissionStore) Create(ctx context.Context, permission privilege.Permission) (bool, error) {
	if !s.valid(ctx, permission) {
		return false, nil
	}

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := persistence.Exists(ctx, tx, &privilegeDatamodel.Permission{}, "name", permission.Name())
		if err != nil {
			return persistence.Unavailable("check permission existence", err)
		}
		if exists {
			return fmt.Errorf("permission %q: %w", permission.Name(), internal.ErrAlreadyExists)
		}
		if err := tx.Create(&privilegeDatamodel.Permission{Name: permission.Name()}).Error; err != nil {
			return persistence.Unavailable("create permission", err)
		}
		if err := permissionActions.Replace(tx, permission.Name(), permission.Actions().Names()); err != nil {
			return persistence.Unavailable("link permission actions", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *PermissionStore) Read(ctx context.Context, name string) (privilege.Permission, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &privilegeDatamodel.Permission{}, "", "name = ?", name)
	if err != nil {
		return privilege.Permission{}, persistence.Unavailable("read permission", err)
	}
	if len(rows) == 0 {
		s.logger.InfoContext(ctx, "permission not found", "name", name)
		return privilege.Permission{}, nil
	}

	header := privilege.PermissionHydrator.Hydrate(rows[0], s.opts.ConstructorColumns...)
	if header.Name() == "" {
		s.logger.WarnContext(ctx, "permission row hydrated without a name", "name", name)
		return privilege.Permission{}, nil
	}
	return s.assemble(ctx, header)
}

func (s *PermissionStore) ReadAll(ctx context.Context) ([]privilege.Permission, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &privilegeDatamodel.Permission{}, "name ASC", nil)
	if err != nil {
		return nil, persistence.Unavailable("read permissions", err)
	}

	permissions := make([]privilege.Permission, 0, len(rows))
	for _, row := range rows {
		header := privilege.PermissionHydrator.Hydrate(row, s.opts.ConstructorColumns...)
		if header.Name() == "" {
			s.logger.WarnContext(ctx, "skipping malformed permission row", "row_name", row["name"])
			continue
		}
		permission, err := s.assemble(ctx, header)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, permission)
	}
	return permissions, nil
}

func (s *PermissionStore) Update(ctx context.Context, name string, permission privilege.Permission) (bool, error) {
	if permission.Name() != name {
		s.logger.WarnContext(ctx, "permission update rejected: name mismatch", "name", name, "new_name", permission.Name(),
			"code", internal.ErrCodeNameMismatch)
		return false, nil
	}
	if !s.valid(ctx, permission) {
		return false, nil
	}

	var updated bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&privilegeDatamodel.Permission{}).Where("name = ?", name).Update("name", name)
		if result.Error != nil {
			return persistence.Unavailable("update permission", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := permissionActions.Replace(tx, name, permission.Actions().Names()); err != nil {
			return persistence.Unavailable("link permission actions", err)
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func (s *PermissionStore) Delete(ctx context.Context, name string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := permissionActions.Clear(tx, name); err != nil {
			return persistence.Unavailable("unlink permission actions", err)
		}
		result := tx.Where("name = ?", name).Delete(&privilegeDatamodel.Permission{})
		if result.Error != nil {
			return persistence.Unavailable("delete permission", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// assemble resolves every linked action. Names that no longer resolve are
// dropped and the permission is returned with the remaining actions.
func (s *PermissionStore) assemble(ctx context.Context, header privilege.Permission) (privilege.Permission, error) {
	names, err := permissionActions.MemberNames(ctx, s.db, header.Name())
	if err != nil {
		return privilege.Permission{}, persistence.Unavailable("read permission actions", err)
	}

	actions := make([]privilege.Action, 0, len(names))
	for _, actionName := range names {
		action, err := s.actions.Read(ctx, actionName)
		if err != nil {
			return privilege.Permission{}, err
		}
		if action.IsEmpty() {
			s.logger.WarnContext(ctx, "dropping unresolved action from permission",
				"permission", header.Name(),
				"action", actionName)
			continue
		}
		actions = append(actions, action)
	}
	return privilege.PermissionFromRows(header, actions), nil
}

func (s *PermissionStore) valid(ctx context.Context, permission privilege.Permission) bool {
	if appErr := validation.ValidateName("permission.name", permission.Name()); appErr != nil {
		s.logger.WarnContext(ctx, "permission rejected", "name", permission.Name(), "reason", appErr.GetDetailedMessage())
		return false
	}
	if appErr := validation.ValidateNames("permission.actions", permission.Actions().Names()); appErr != nil {
		s.logger.WarnContext(ctx, "permission rejected", "name", permission.Name(), "reason", appErr.GetDetailedMessage())
		return false
	}
	return true
}
