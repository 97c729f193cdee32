// Package dbtest opens migrated, seeded SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"healcheck-back/internal/database"
	"healcheck-back/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a fresh database in t.TempDir() with the schema and catalog in place.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(path)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to open sqlite database")

	require.NoError(t, database.MigrateDB(db), "failed to migrate")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user and returns it.
func CreateUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{Username: username, Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}
