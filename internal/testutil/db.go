// Package testutil provides shared helpers for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/deppfellow/crud-demo/internal/database"
	"github.com/deppfellow/crud-demo/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a gorm session on a fresh sqlite database in t.TempDir(),
// with the model schema applied. It is closed when the test ends.
//
// Foreign keys and case-sensitive LIKE are switched on so relation
// constraints and suffix filters behave as they do on Postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=case_sensitive_like(1)"
	db, err := database.OpenORM(sqlite.Open(dsn), zerolog.Nop(), 0)
	require.NoError(t, err, "failed to open sqlite database")

	err = db.AutoMigrate(&model.User{}, &model.Post{}, &model.Profile{})
	require.NoError(t, err, "failed to migrate sqlite schema")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
