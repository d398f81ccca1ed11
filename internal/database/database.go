package database

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"gar-go/internal/database/migrations"
	"gar-go/internal/gar"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "github.com/mattn/go-sqlite3"    // sqlite driver
)

// Vendor selects the SQL dialect details that differ between engines.
type Vendor string

const (
	VendorSQLite   Vendor = "sqlite"
	VendorPostgres Vendor = "postgres"
)

// Database implements gar.Store on top of sqlx. One SQL text serves both
// engines; placeholders are rebound per driver.
type Database struct {
	db     *sqlx.DB
	vendor Vendor
	log    gar.Logger
}

var _ gar.Store = (*Database)(nil)

// DatabaseConfig selects and locates the store.
type DatabaseConfig struct {
	// Type is sqlite, postgres or memory.
	Type string
	// DataDir holds the sqlite file.
	DataDir string
	// DSN is the postgres connection string.
	DSN string
}

// New opens the configured store and brings its schema up to date.
func New(cfg DatabaseConfig, log gar.Logger) (*Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLite(filepath.Join(cfg.DataDir, "gar.db"), log)
	case "memory":
		return NewSQLite(":memory:", log)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres database")
		}
		return NewPostgres(cfg.DSN, log)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// NewSQLite opens a sqlite store. path can be ":memory:".
func NewSQLite(path string, log gar.Logger) (*Database, error) {
	db, err := OpenSQLiteConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db.DB, "sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite schema: %w", err)
	}
	return &Database{db: db, vendor: VendorSQLite, log: log}, nil
}

// NewPostgres opens a postgres store via the pgx stdlib driver.
func NewPostgres(dsn string, log gar.Logger) (*Database, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if err := migrations.MigrateUp(db.DB, "pgx"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating postgres schema: %w", err)
	}
	return &Database{db: db, vendor: VendorPostgres, log: log}, nil
}

// OpenSQLiteConnection opens and configures a sqlite connection with the
// PRAGMAs bulk loading needs. Exported for tests that want a bare connection.
func OpenSQLiteConnection(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	// An in-memory database exists per connection; keep the pool at one.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// DB exposes the underlying handle for ad-hoc queries in tests.
func (d *Database) DB() *sqlx.DB { return d.db }

// rebind converts ? placeholders to the driver's notation.
func (d *Database) rebind(query string) string {
	return d.db.Rebind(query)
}

func (d *Database) exec(ctx context.Context, query string, args ...any) error {
	_, err := d.db.ExecContext(ctx, d.rebind(query), args...)
	return err
}
