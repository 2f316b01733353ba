// Package storage owns the single connection to the relational store: opening
// it, bootstrapping the schema, seeding demonstration rows and translating
// driver failures into application errors.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured store and verifies the connection.
// SQLite is always limited to one open connection with foreign keys enforced.
func Open(ctx context.Context, cfg internal.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, internal.NewStorageError("failed to open database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, internal.NewStorageError("failed to access database handle", err)
	}

	if cfg.Driver == internal.DriverPostgres {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		// in-memory databases vanish with their connection, so it must never be recycled
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, internal.NewStorageError("failed to ping database", err)
	}

	return db, nil
}

func dialectorFor(cfg internal.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case internal.DriverPostgres:
		if _, err := pgx.ParseConfig(cfg.Source); err != nil {
			return nil, internal.NewStorageError("invalid postgres connection string", err)
		}
		return postgres.Open(cfg.Source), nil
	case internal.DriverSQLite, "":
		if strings.TrimSpace(cfg.Source) == "" {
			return nil, internal.NewStorageError("sqlite source path is empty", nil)
		}
		return sqlite.Open(sqliteDSN(cfg.Source)), nil
	default:
		return nil, internal.NewStorageError(fmt.Sprintf("unsupported database driver %q", cfg.Driver), nil)
	}
}

func sqliteDSN(source string) string {
	if strings.Contains(source, "_foreign_keys=") || strings.Contains(source, "_fk=") {
		return source
	}
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	return source + sep + "_foreign_keys=on"
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dialect names the goose/sqlx dialect of an open handle.
func Dialect(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return internal.DriverPostgres
	}
	return internal.DriverSQLite
}

// TranslateError maps gorm and driver errors onto the application taxonomy.
// Errors that already are *internal.AppError pass through untouched.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return internal.NewConflictError("a record with the same key already exists", internal.ErrCodeDuplicateKey).WithCause(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return internal.NewReferentialIntegrityError("the operation would break a reference between records", internal.ErrCodeReferenceViolated).WithCause(err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated), isCheckViolation(err):
		return internal.NewValidationError("the record violates a storage constraint", internal.ErrCodeValidationFailed).WithCause(err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"):
		return internal.NewConflictError("a record with the same key already exists", internal.ErrCodeDuplicateKey).WithCause(err)
	case strings.Contains(msg, "foreign key constraint failed"):
		return internal.NewReferentialIntegrityError("the operation would break a reference between records", internal.ErrCodeReferenceViolated).WithCause(err)
	}

	return internal.NewStorageError("storage operation failed", err)
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint failed")
}

// SQLX wraps the gorm connection pool for hand-written read queries. Both
// handles share the same underlying connection.
func SQLX(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, internal.NewStorageError("failed to access database handle", err)
	}
	driverName := "sqlite3"
	if Dialect(db) == internal.DriverPostgres {
		driverName = "pgx"
	}
	return sqlx.NewDb(sqlDB, driverName), nil
}
