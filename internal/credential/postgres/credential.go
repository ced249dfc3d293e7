package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/core/common/validation"
	credentialDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/credential"
	"github.com/frahmantamala/access-control/internal/core/persistence"
	"github.com/frahmantamala/access-control/internal/credential"
	"github.com/frahmantamala/access-control/internal/privilege"
	"github.com/frahmantamala/access-control/pkg/logger"
	"gorm.io/gorm"
)

type CredentialStore struct {
	db     *gorm.DB
	logger *slog.Logger
	opts   persistence.Options
}

func NewCredentialStore(db *gorm.DB, lg *slog.Logger, opts ...persistence.Option) *CredentialStore {
	return &CredentialStore{
		db:     db,
		logger: logger.OrDefault(lg).With("store", "credential"),
		opts:   persistence.Apply(credential.Columns, opts...),
	}
}

var _ credential.Store = (*CredentialStore)(nil)

func (s *CredentialStore) EnsureTableExists(ctx context.Context) (bool, error) {
	ok, err := persistence.EnsureTables(ctx, s.db, &credentialDatamodel.Credential{})
	if err != nil {
		return false, persistence.Unavailable("create credentials table", err)
	}
	return ok, nil
}

func (s *CredentialStore) Create(ctx context.Context, c credential.Credential) (bool, error) {
	if !s.valid(ctx, c) {
		return false, nil
	}

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := persistence.Exists(ctx, tx, &credentialDatamodel.Credential{}, "owner_user_name", c.OwnerUserName())
		if err != nil {
			return persistence.Unavailable("check credential existence", err)
		}
		if exists {
			return fmt.Errorf("credential for %q: %w", c.OwnerUserName(), internal.ErrAlreadyExists)
		}
		if err := tx.Create(toDataModel(c)).Error; err != nil {
			return persistence.Unavailable("create credential", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *CredentialStore) Read(ctx context.Context, ownerUserName string) (credential.Credential, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &credentialDatamodel.Credential{}, "", "owner_user_name = ?", ownerUserName)
	if err != nil {
		return credential.Credential{}, persistence.Unavailable("read credential", err)
	}
	if len(rows) == 0 {
		s.logger.InfoContext(ctx, "credential not found", "owner", ownerUserName)
		return credential.Credential{}, nil
	}
	return s.hydrate(ctx, rows[0]), nil
}

func (s *CredentialStore) ReadAll(ctx context.Context) ([]credential.Credential, error) {
	rows, err := persistence.ReadRows(ctx, s.db, &credentialDatamodel.Credential{}, "owner_user_name ASC", nil)
	if err != nil {
		return nil, persistence.Unavailable("read credentials", err)
	}

	out := make([]credential.Credential, 0, len(rows))
	for _, row := range rows {
		c := s.hydrate(ctx, row)
		if c.IsEmpty() {
			s.logger.WarnContext(ctx, "skipping malformed credential row", "owner", row["owner_user_name"])
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Update replaces the stored row for ownerUserName with c inside one
// transaction.
func (s *CredentialStore) Update(ctx context.Context, ownerUserName string, c credential.Credential) (bool, error) {
	if c.OwnerUserName() != ownerUserName {
		s.logger.WarnContext(ctx, "credential update rejected: owner mismatch", "owner", ownerUserName, "new_owner", c.OwnerUserName(),
			"code", internal.ErrCodeNameMismatch)
		return false, nil
	}
	if !s.valid(ctx, c) {
		return false, nil
	}

	var replaced bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("owner_user_name = ?", ownerUserName).Delete(&credentialDatamodel.Credential{})
		if result.Error != nil {
			return persistence.Unavailable("discard credential", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(toDataModel(c)).Error; err != nil {
			return persistence.Unavailable("create credential", err)
		}
		replaced = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return replaced, nil
}

func (s *CredentialStore) Delete(ctx context.Context, ownerUserName string) (bool, error) {
	result := s.db.WithContext(ctx).Where("owner_user_name = ?", ownerUserName).Delete(&credentialDatamodel.Credential{})
	if result.Error != nil {
		return false, persistence.Unavailable("delete credential", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *CredentialStore) hydrate(ctx context.Context, row privilege.Row) credential.Credential {
	cols := s.opts.ConstructorColumns
	if dropped := credential.Hydrator.Discarded(row, cols...); len(dropped) > 0 {
		s.logger.DebugContext(ctx, "discarding undeclared credential columns", "columns", dropped)
	}
	return credential.Hydrator.Hydrate(row, cols...)
}

func (s *CredentialStore) valid(ctx context.Context, c credential.Credential) bool {
	if appErr := validation.ValidateName("credential.owner_user_name", c.OwnerUserName()); appErr != nil {
		s.logger.WarnContext(ctx, "credential rejected", "owner", c.OwnerUserName(), "reason", appErr.GetDetailedMessage())
		return false
	}
	if c.IsEmpty() {
		s.logger.WarnContext(ctx, "credential rejected: missing hash", "owner", c.OwnerUserName())
		return false
	}
	return true
}

func toDataModel(c credential.Credential) *credentialDatamodel.Credential {
	return &credentialDatamodel.Credential{
		OwnerUserName: c.OwnerUserName(),
		PasswordHash:  c.PasswordHash(),
		UserIDHash:    c.UserIDHash(),
	}
}
