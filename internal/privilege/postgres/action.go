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

type ActionStore struct {
	db     *gorm.DB
	logger *slog.Logger
	opts   persistence.Options
}

func NewActionStore(db *gorm.DB, lg *slog.Logger, opts ...persistence.Option) *ActionStore {
	return &ActionStore{
		db:     db,
		logger: logger.OrDefault(lg).With("store", "action"),
		opts:   persistence.Apply(privilege.ActionColumns, opts...),
	}
}

var _ privilege.ActionStore = (*ActionStore)(nil)

func (s *ActionStore) EnsureTableExists(ctx context.Context) (bool, error) {
	ok, err := persistence.EnsureTables(ctx, s.db, &privilegeDatamodel.Action{})
	if err != nil {
		return false, persistence.Unavailable("create actions table", err)
	}
	return ok, nil
}

func (s *ActionStore) Create(ctx context.Context, action privilege.Action) (bool, error) {
	if appErr := validation.ValidateName("action.name", action.Name()); appErr != nil {
		s.logger.WarnContext(ctx, "action rejected", "name", action.Name(), "reason", appErr.GetDetailedMessage())
		return false, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := persistence.Exists(ctx, tx, &privilegeDatamodel.Action{}, "name", action.Name())
		if err != nil {
			return persistence.Unavailable("check action existence", err)
		}
		if exists {
			return fmt.Errorf("action %q: %w", action.Name(), internal.ErrAlreadyExists)
		}

		row := &privilegeDatamodel.Action{
			Name:        action.Name(),
			Description: action.Description(),
		}
		if err := tx.Create(row).Error; err != nil {
			return persistence.Unavailable("create action", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *ActionStore) Read(ctx context.Context, name string) (privilege.Action, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &privilegeDatamodel.Action{}, "", "name = ?", name)
	if err != nil {
		return privilege.Action{}, persistence.Unavailable("read action", err)
	}
	if len(rows) == 0 {
		s.logger.InfoContext(ctx, "action not found", "name", name)
		return privilege.Action{}, nil
	}
	return s.hydrate(ctx, rows[0]), nil
}

func (s *ActionStore) ReadAll(ctx context.Context) ([]privilege.Action, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &privilegeDatamodel.Action{}, "name ASC", nil)
	if err != nil {
		return nil, persistence.Unavailable("read actions", err)
	}

	actions := make([]privilege.Action, 0, len(rows))
	for _, row := range rows {
		action := s.hydrate(ctx, row)
		if action.IsEmpty() {
			s.logger.WarnContext(ctx, "skipping malformed action row", "row_name", row["name"])
			continue
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func (s *ActionStore) Update(ctx context.Context, name string, action privilege.Action) (bool, error) {
	if action.Name() != name {
		s.logger.WarnContext(ctx, "action update rejected: name mismatch", "name", name, "new_name", action.Name(),
			"code", internal.ErrCodeNameMismatch)
		return false, nil
	}

	result := s.db.WithContext(ctx).
		Model(&privilegeDatamodel.Action{}).
		Where("name = ?", name).
		Updates(map[string]any{"description": action.Description()})
	if result.Error != nil {
		return false, persistence.Unavailable("update action", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the action row. Permissions still naming it drop it on their
// next read.
func (s *ActionStore) Delete(ctx context.Context, name string) (bool, error) {
	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&privilegeDatamodel.Action{})
	if result.Error != nil {
		return false, persistence.Unavailable("delete action", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *ActionStore) hydrate(ctx context.Context, row privilege.Row) privilege.Action {
	cols := s.opts.ConstructorColumns
	if dropped := privilege.ActionHydrator.Discarded(row, cols...); len(dropped) > 0 {
		s.logger.DebugContext(ctx, "discarding undeclared action columns", "columns", dropped)
	}
	return privilege.ActionHydrator.Hydrate(row, cols...)
}
