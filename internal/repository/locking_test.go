package repository_test

import (
	"testing"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRunPostgres builds statements with the PostgreSQL dialect without
// connecting, and hands back the SQL of the last query.
func dryRunPostgres(t *testing.T) (*gorm.DB, func() string) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=tuckshop dbname=tuckshop sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var last string
	err = db.Callback().Query().After("gorm:query").Register("test:capture_sql", func(tx *gorm.DB) {
		last = tx.Statement.SQL.String()
	})
	require.NoError(t, err)
	return db, func() string { return last }
}

func TestLedgerRepo_GetCurrentStockLocking(t *testing.T) {
	db, lastSQL := dryRunPostgres(t)
	ledger := repository.NewLedgerRepo(db)

	_, err := ledger.GetCurrentStock(db, 7, true)
	require.NoError(t, err)
	assert.Contains(t, lastSQL(), `FROM "products"`)
	assert.Contains(t, lastSQL(), "FOR UPDATE")

	_, err = ledger.GetCurrentStock(db, 7, false)
	require.NoError(t, err)
	assert.NotContains(t, lastSQL(), "FOR UPDATE")
}

func TestProductRepo_FindByIDLocking(t *testing.T) {
	db, lastSQL := dryRunPostgres(t)
	products := repository.NewProductRepo(db)

	_, err := products.FindByID(db, 7, true)
	require.NoError(t, err)
	assert.Contains(t, lastSQL(), "FOR UPDATE")

	_, err = products.FindByID(db, 7, false)
	require.NoError(t, err)
	assert.NotContains(t, lastSQL(), "FOR UPDATE")
}
