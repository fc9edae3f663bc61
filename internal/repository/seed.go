package repository

import (
	"context"
	"fmt"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Migrate creates or updates the catalog and ledger tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Category{}, &model.Product{}, &model.StockMovement{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// DefaultCategories are present in every deployment.
var DefaultCategories = []string{"Snacks", "Beverages", "School Supplies", "Confectionery", "Misc"}

type seedProduct struct {
	name, description, price, category string
	threshold, receipt                 int
}

var starterProducts = []seedProduct{
	{"Lays Salted Chips", "Classic salted potato chips, 125g", "15.00", "Snacks", 10, 50},
	{"Coke Zero 500ml", "Sugar-free cola soft drink", "12.00", "Beverages", 24, 100},
	{"Blue Ballpoint Pen", "Standard blue biro pen", "5.00", "School Supplies", 50, 200},
	{"Bar One", "Choc bar with caramel and nougat", "11.00", "Confectionery", 20, 48},
}

// SeedCatalog ensures the default categories exist and, on an empty product
// table, stocks the starter products through the ledger so their stock
// levels match their opening receipts. It returns the number of products created.
func SeedCatalog(ctx context.Context, db *gorm.DB) (int, error) {
	categories := NewCategoryRepo(db)
	products := NewProductRepo(db)
	ledger := NewLedgerRepo(db)

	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byName := make(map[string]uint, len(DefaultCategories))
		for _, name := range DefaultCategories {
			category, err := categories.FirstOrCreate(tx, name)
			if err != nil {
				return fmt.Errorf("seed category %q: %w", name, err)
			}
			byName[name] = category.ID
		}

		var count int64
		if err := tx.Model(&model.Product{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, sp := range starterProducts {
			product := &model.Product{
				Name:              sp.name,
				Description:       sp.description,
				Price:             decimal.RequireFromString(sp.price),
				CategoryID:        byName[sp.category],
				LowStockThreshold: sp.threshold,
				IsActive:          true,
			}
			if err := products.Create(tx, product); err != nil {
				return fmt.Errorf("seed product %q: %w", sp.name, err)
			}
			if _, _, err := ledger.RecordMovement(tx, product.ID, model.MovementReceipt, sp.receipt); err != nil {
				return fmt.Errorf("seed stock for %q: %w", sp.name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
