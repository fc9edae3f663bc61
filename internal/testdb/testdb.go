// Package testdb opens throwaway SQLite databases carrying the production
// schema, for repository, service and handler tests.
package testdb

import (
	"fmt"
	"testing"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/model"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated in-memory database private to t. The pool holds a
// single connection, so transactions from concurrent goroutines queue up
// behind each other the way row locks serialize them on PostgreSQL.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return db
}

// Category inserts a category named name.
func Category(t testing.TB, db *gorm.DB, name string) model.Category {
	t.Helper()
	category := model.Category{Name: name}
	require.NoError(t, db.Create(&category).Error)
	return category
}
