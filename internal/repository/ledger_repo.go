package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/model"
	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository is the append-only stock movement log together with the
// products.stock_level aggregate derived from it.
type LedgerRepository interface {
	// GetCurrentStock reads the aggregate of an active product. forUpdate
	// takes the row lock that serializes concurrent sales.
	GetCurrentStock(tx *gorm.DB, productID uint, forUpdate bool) (int, error)
	// RecordMovement appends one movement and moves the aggregate by the same
	// delta inside tx, returning the movement and the new stock level.
	RecordMovement(tx *gorm.DB, productID uint, movementType model.MovementType, quantityChange int) (*model.StockMovement, int, error)

	SumMovements(ctx context.Context, productID uint) (int, error)
	FindByProduct(ctx context.Context, productID uint, limit int) ([]model.StockMovement, error)
	Reconcile(ctx context.Context) ([]Discrepancy, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
}

// StockMovementData is one day of the stock movement chart.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// Discrepancy is a product whose stored stock level differs from its ledger.
type Discrepancy struct {
	ProductID   uint   `json:"product_id"`
	Name        string `json:"name"`
	StockLevel  int    `json:"stock_level"`
	LedgerTotal int    `json:"ledger_total"`
	Drift       int    `json:"drift"`
}

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

func (r *ledgerRepo) GetCurrentStock(tx *gorm.DB, productID uint, forUpdate bool) (int, error) {
	var product model.Product
	q := tx.Select("id", "stock_level")
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("id = ? AND is_active = ?", productID, true).Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	return product.StockLevel, nil
}

func (r *ledgerRepo) RecordMovement(tx *gorm.DB, productID uint, movementType model.MovementType, quantityChange int) (*model.StockMovement, int, error) {
	movement := &model.StockMovement{
		ProductID:      productID,
		MovementType:   movementType,
		QuantityChange: quantityChange,
	}
	if err := tx.Omit(clause.Associations).Create(movement).Error; err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, 0, ErrProductNotFound
		}
		return nil, 0, err
	}

	// Single statement, so readers outside tx never see a half-applied delta
	res := tx.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock_level", gorm.Expr("stock_level + ?", quantityChange))
	if res.Error != nil {
		return nil, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, 0, ErrProductNotFound
	}

	var stockLevel int
	if err := tx.Model(&model.Product{}).Select("stock_level").Where("id = ?", productID).Row().Scan(&stockLevel); err != nil {
		return nil, 0, err
	}
	return movement, stockLevel, nil
}

func (r *ledgerRepo) SumMovements(ctx context.Context, productID uint) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&model.StockMovement{}).
		Select("COALESCE(SUM(quantity_change), 0)").
		Where("product_id = ?", productID).
		Row().Scan(&total)
	return total, err
}

func (r *ledgerRepo) FindByProduct(ctx context.Context, productID uint, limit int) ([]model.StockMovement, error) {
	movements := []model.StockMovement{}
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}

func (r *ledgerRepo) Reconcile(ctx context.Context) ([]Discrepancy, error) {
	discrepancies := []Discrepancy{}
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS product_id, p.name, p.stock_level,
		       COALESCE(SUM(m.quantity_change), 0) AS ledger_total
		FROM products p
		LEFT JOIN stock_movements m ON m.product_id = p.id
		GROUP BY p.id, p.name, p.stock_level
		HAVING p.stock_level <> COALESCE(SUM(m.quantity_change), 0)
		ORDER BY p.id
	`).Scan(&discrepancies).Error
	if err != nil {
		return nil, err
	}
	for i := range discrepancies {
		discrepancies[i].Drift = discrepancies[i].StockLevel - discrepancies[i].LedgerTotal
	}
	return discrepancies, nil
}

func (r *ledgerRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	results := []StockMovementData{}

	// Aggregate movements per day; sales are stored negative
	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN movement_type <> 'SALE' THEN quantity_change ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN movement_type = 'SALE' THEN -quantity_change ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		// PostgreSQL hands DATE back as a timestamp
		if len(data.Date) > len("2006-01-02") {
			data.Date = data.Date[:len("2006-01-02")]
		}
		results = append(results, data)
	}

	return results, rows.Err()
}
