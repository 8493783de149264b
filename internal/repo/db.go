// Package repo is the persistence layer: free functions over *gorm.DB for
// parts, requests, the match ledger, rate-limit windows and the security
// audit log. SQLite via the pure-Go driver keeps the service a single
// static binary.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/LewisZett/tech-part-finder/internal/domain"
)

// startupPragmas are applied once per connection pool. WAL plus a busy
// timeout lets the sweep write matches while handlers read.
var startupPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// OpenSQLite opens (or creates) the database at path and tunes the pool.
func OpenSQLite(path string) (*gorm.DB, error) {
	// The driver reports a cryptic "out of memory (14)" when the parent
	// directory is missing; check it up front instead.
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	for _, p := range startupPragmas {
		db.Exec(p)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// AutoMigrate creates or updates the schema for all marketplace tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Profile{},
		&domain.Part{},
		&domain.PartRequest{},
		&domain.Match{},
		&domain.RateLimit{},
		&domain.SecurityEvent{},
	)
}
