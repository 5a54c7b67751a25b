// Package sqldb implements the repository interfaces with sqlx on SQLite or PostgreSQL.
package sqldb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"biscuits/internal/repository"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB wraps sqlx.DB. Queries are written with ? placeholders and rebound per driver.
type DB struct {
	*sqlx.DB
}

// Open connects to the database. For sqlite, source is a file path or
// ":memory:"; for postgres it is a connection string.
func Open(ctx context.Context, driver, source string) (*DB, error) {
	var dsn string
	switch driver {
	case DriverSQLite:
		path, err := sqlitePath(source)
		if err != nil {
			return nil, err
		}
		// WAL for concurrent reads, busy_timeout for lock contention
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	case DriverPostgres:
		dsn = source
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// A single connection keeps :memory: databases shared and writes serialized
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	return &DB{db}, nil
}

func sqlitePath(source string) (string, error) {
	if source == ":memory:" {
		return source, nil
	}
	cleanPath := filepath.Clean(source)
	if !filepath.IsLocal(cleanPath) && !filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("invalid database path: potential path traversal detected")
	}
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return cleanPath, nil
}

// Migrate creates the schema. Statements are portable across both drivers.
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS configurations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			config_data TEXT NOT NULL DEFAULT '{}',
			selected_services TEXT NOT NULL DEFAULT '[]',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS banners (
			id TEXT PRIMARY KEY,
			config_id TEXT NOT NULL REFERENCES configurations(id) ON DELETE CASCADE,
			image_url TEXT NOT NULL,
			link_url TEXT NOT NULL,
			position TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			display_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS platform_ads (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			image_url TEXT NOT NULL,
			link_url TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			display_order INTEGER NOT NULL DEFAULT 0,
			views BIGINT NOT NULL DEFAULT 0 CHECK (views >= 0),
			clicks BIGINT NOT NULL DEFAULT 0 CHECK (clicks >= 0),
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_configurations_user ON configurations(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_banners_config ON banners(config_id, display_order)`,
		`CREATE INDEX IF NOT EXISTS idx_platform_ads_active ON platform_ads(is_active, display_order)`,
	}

	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	return nil
}

// Repositories builds the repository bundle over this database.
func (db *DB) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Users:          NewUserRepo(db),
		Configurations: NewConfigurationRepo(db),
		Banners:        NewBannerRepo(db),
		Ads:            NewAdRepo(db),
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// exec runs a write and maps zero affected rows to repository.ErrNotFound.
func (db *DB) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
