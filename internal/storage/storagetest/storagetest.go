// Package storagetest opens throwaway in-memory stores for tests.
package storagetest

import (
	"context"

	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"gorm.io/gorm"
)

// NewMemory returns a migrated, empty in-memory SQLite store.
func NewMemory(ctx context.Context) (*gorm.DB, error) {
	db, err := storage.Open(ctx, internal.DatabaseConfig{Driver: internal.DriverSQLite, Source: ":memory:"})
	if err != nil {
		return nil, err
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		_ = storage.Close(db)
		return nil, err
	}
	return db, nil
}

// NewSeeded returns an in-memory store holding the demonstration data.
func NewSeeded(ctx context.Context) (*gorm.DB, error) {
	db, err := NewMemory(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := storage.SeedIfEmpty(ctx, db); err != nil {
		_ = storage.Close(db)
		return nil, err
	}
	return db, nil
}
