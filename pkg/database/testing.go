package database

import (
	"path/filepath"
	"testing"

	"eyecare_backend/internal/config"

	"gorm.io/gorm"
)

// OpenTestDB returns a migrated sqlite database in a temp dir that is removed
// when the test ends.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DBName: filepath.Join(t.TempDir(), "eyecare_test.db"),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
