// Package repository provides a thin generic store over gorm for the
// simple read/write paths that do not need hand-written SQL.
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository wraps common gorm operations for one model type.
type Repository[T any] struct {
	db *gorm.DB
}

// ProvideStore constructs a Repository bound to the given connection.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return Repository[T]{db: db}
}

// WithTx returns a Repository bound to an open transaction.
func (r Repository[T]) WithTx(tx *gorm.DB) Repository[T] {
	return Repository[T]{db: tx}
}

// Create inserts one record.
func (r Repository[T]) Create(ctx context.Context, record *T) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// First loads the first record matching the conditions into dest.
// Returns gorm.ErrRecordNotFound when nothing matches.
func (r Repository[T]) First(ctx context.Context, dest *T, query string, args ...any) error {
	return r.db.WithContext(ctx).Where(query, args...).First(dest).Error
}

// Find loads every record matching the conditions.
func (r Repository[T]) Find(ctx context.Context, query string, args ...any) ([]T, error) {
	var records []T
	if err := r.db.WithContext(ctx).Where(query, args...).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Updates applies a column map to records matching the conditions.
func (r Repository[T]) Updates(ctx context.Context, values map[string]any, query string, args ...any) (int64, error) {
	var model T
	result := r.db.WithContext(ctx).Model(&model).Where(query, args...).Updates(values)
	return result.RowsAffected, result.Error
}
