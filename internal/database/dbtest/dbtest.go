// Package dbtest opens throwaway SQLite databases with the application
// schema for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospital-management-backend/internal/database"
)

// New creates a migrated database in a temp file that is removed when the
// test completes. A file is used instead of :memory: so every pooled
// connection sees the same data.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), logger.Discard)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}
