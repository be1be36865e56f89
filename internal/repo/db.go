// Package repo implements the SQL-backed persistence used when the record
// store runs on a table backend: database bootstrapping for SQLite and
// Postgres, the collection document table, and the idempotency ledger.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/dealership-backend/internal/domain"
)

// ErrNotFound is returned when a lookup matches no live row.
var ErrNotFound = gorm.ErrRecordNotFound

// Options controls Open.
type Options struct {
	Driver  string // "sqlite" or "postgres"
	DSN     string // file path for sqlite, connection URL for postgres
	Tracing bool   // register the OpenTelemetry gorm plugin
}

// Open connects to the configured database, optionally instruments it, and
// migrates the schema.
func Open(o Options) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch o.Driver {
	case "sqlite":
		db, err = OpenSQLite(o.DSN)
	case "postgres":
		db, err = OpenPostgres(o.DSN)
	default:
		return nil, errors.New("repo: unsupported driver " + o.Driver)
	}
	if err != nil {
		return nil, err
	}
	if o.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if the parent directory is missing; sqlite reports it as "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// OpenPostgres connects with the pgx-based gorm driver.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// AutoMigrate creates the collection and idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Document{},
		&domain.Idempotency{},
	)
}
