// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"wordy/wordy/config"
	"wordy/wordy/sources/db"
	"wordy/wordy/sources/db/models"

	"gorm.io/gorm"
)

// Open returns a migrated SQLite database living in t's temp dir.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := config.Config{
		DBDriver: config.DBDriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "wordy_test.db"),
	}
	database, err := db.NewDatabase(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(database.Close)
	return database.DB
}

// SeedUser inserts a user and returns its id.
func SeedUser(t testing.TB, gdb *gorm.DB, username string) int {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com"}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u.ID
}
