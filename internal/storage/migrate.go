package storage

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/pkg/logger"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	migrationDir   = "migrations"
	migrationTable = "schema_migrations"
)

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// EnsureSchema applies every pending embedded migration. Running it against an
// up-to-date store is a no-op.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	return withGoose(ctx, db, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return goose.UpContext(ctx, sqlDB, migrationDir)
	})
}

// Rollback reverts the most recently applied migration.
func Rollback(ctx context.Context, db *gorm.DB) error {
	return withGoose(ctx, db, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return goose.DownContext(ctx, sqlDB, migrationDir)
	})
}

// SchemaVersion reports the latest applied migration version.
func SchemaVersion(ctx context.Context, db *gorm.DB) (int64, error) {
	var version int64
	err := withGoose(ctx, db, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		version, err = goose.GetDBVersionContext(ctx, sqlDB)
		return err
	})
	return version, err
}

func withGoose(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFS)
	goose.SetTableName(migrationTable)
	goose.SetLogger(gooseLogger{l: logger.From(ctx).With("component", "migrations")})

	dialect := "sqlite3"
	if Dialect(db) == internal.DriverPostgres {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return internal.NewStorageError("unsupported migration dialect", err)
	}

	if err := fn(ctx); err != nil {
		return internal.NewStorageError("schema migration failed", err)
	}
	return nil
}

type gooseLogger struct {
	l *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}
