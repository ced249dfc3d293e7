// Package persistence holds the gorm plumbing shared by every entity store:
// raw row reads for hydration, existence checks, member link tables and table
// bootstrap.
package persistence

import (
	"context"
	"fmt"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/privilege"
	"gorm.io/gorm"
)

// Options configures how a store hydrates rows.
type Options struct {
	ConstructorColumns []string
}

type Option func(*Options)

// WithConstructorColumns selects constructor-first hydration using the given
// columns. Passing no columns selects properties-first hydration.
func WithConstructorColumns(cols ...string) Option {
	return func(o *Options) {
		o.ConstructorColumns = append([]string(nil), cols...)
	}
}

// Apply resolves opts on top of the store's declared constructor columns.
func Apply(defaults []string, opts ...Option) Options {
	o := Options{ConstructorColumns: append([]string(nil), defaults...)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Unavailable wraps a driver failure as a store-unavailable AppError.
func Unavailable(op string, err error) error {
	return internal.NewStoreUnavailableError(fmt.Sprintf("failed to %s", op), err)
}

// ReadRows runs a filtered select on model's table and returns raw rows.
func ReadRows(ctx context.Context, db *gorm.DB, model any, order string, query any, args ...any) ([]privilege.Row, error) {
	var raw []map[string]any
	q := db.WithContext(ctx).Model(model)
	if query != nil {
		q = q.Where(query, args...)
	}
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&raw).Error; err != nil {
		return nil, err
	}

	rows := make([]privilege.Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, privilege.Row(r))
	}
	return rows, nil
}

// Exists reports whether a row with column = value exists.
func Exists(ctx context.Context, db *gorm.DB, model any, column, value string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(model).Where(column+" = ?", value).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureTables creates the tables for models that are missing. Existing
// tables are left alone.
func EnsureTables(ctx context.Context, db *gorm.DB, models ...any) (bool, error) {
	migrator := db.WithContext(ctx).Migrator()
	for _, model := range models {
		if migrator.HasTable(model) {
			continue
		}
		if err := migrator.CreateTable(model); err != nil {
			return false, err
		}
	}
	return true, nil
}

// LinkTable describes an owner -> member name reference table.
type LinkTable struct {
	Model     any
	OwnerCol  string
	MemberCol string
	NewLink   func(owner, member string, position int) any
}

// MemberNames returns the member names stored for owner in insertion order.
func (l LinkTable) MemberNames(ctx context.Context, db *gorm.DB, owner string) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).
		Model(l.Model).
		Where(l.OwnerCol+" = ?", owner).
		Order("position ASC").
		Pluck(l.MemberCol, &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Replace drops every link of owner and writes members in order.
func (l LinkTable) Replace(tx *gorm.DB, owner string, members []string) error {
	if err := l.Clear(tx, owner); err != nil {
		return err
	}
	for i, member := range members {
		if err := tx.Create(l.NewLink(owner, member, i)).Error; err != nil {
			return err
		}
	}
	return nil
}

func (l LinkTable) Clear(tx *gorm.DB, owner string) error {
	return tx.Where(l.OwnerCol+" = ?", owner).Delete(l.Model).Error
}
