package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"gorm.io/gorm"
)

// openStore connects to the configured store and, when asked to, migrates and
// seeds it. The caller closes the returned handle.
func openStore(ctx context.Context, cfg internal.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	db, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := storage.EnsureSchema(ctx, db); err != nil {
			_ = storage.Close(db)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	if cfg.SeedOnStart {
		seeded, err := storage.SeedIfEmpty(ctx, db)
		if err != nil {
			_ = storage.Close(db)
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
		if seeded {
			logger.Info("seeded empty store with demonstration data")
		}
	}

	return db, nil
}
