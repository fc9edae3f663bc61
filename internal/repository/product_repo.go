package repository

import (
	"context"
	"errors"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductView is a product joined with its category name.
type ProductView struct {
	ID                uint            `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	StockLevel        int             `json:"stock_level"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	IsActive          bool            `json:"is_active"`
	CategoryID        uint            `json:"category_id"`
	CategoryName      string          `json:"category_name"`
}

// DashboardStats is the overview over active products.
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalUnits     int64           `json:"total_units"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type ProductRepository interface {
	// Create and the tx-taking methods run on the caller's transaction.
	Create(tx *gorm.DB, product *model.Product) error
	FindByID(tx *gorm.DB, id uint, forUpdate bool) (*model.Product, error)
	Update(tx *gorm.DB, id uint, fields map[string]interface{}) error

	FindActiveByID(ctx context.Context, id uint) (*ProductView, error)
	FindAllActive(ctx context.Context) ([]ProductView, error)
	FindLowStock(ctx context.Context) ([]ProductView, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

const productViewColumns = `p.id, p.name, p.description, p.price, p.stock_level,
	p.low_stock_threshold, p.is_active, p.category_id, c.name AS category_name`

func (r *productRepo) activeViews(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products AS p").
		Select(productViewColumns).
		Joins("JOIN categories c ON c.id = p.category_id").
		Where("p.is_active = ?", true)
}

func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return tx.Omit(clause.Associations).Create(product).Error
}

func (r *productRepo) FindByID(tx *gorm.DB, id uint, forUpdate bool) (*model.Product, error) {
	var product model.Product
	q := tx
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update writes only the given columns. stock_level is never accepted here;
// it moves through the ledger alone.
func (r *productRepo) Update(tx *gorm.DB, id uint, fields map[string]interface{}) error {
	delete(fields, "stock_level")
	res := tx.Model(&model.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepo) FindActiveByID(ctx context.Context, id uint) (*ProductView, error) {
	var views []ProductView
	if err := r.activeViews(ctx).Where("p.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrProductNotFound
	}
	return &views[0], nil
}

func (r *productRepo) FindAllActive(ctx context.Context) ([]ProductView, error) {
	views := []ProductView{}
	err := r.activeViews(ctx).Order("p.name ASC").Scan(&views).Error
	return views, err
}

func (r *productRepo) FindLowStock(ctx context.Context) ([]ProductView, error) {
	views := []ProductView{}
	err := r.activeViews(ctx).
		Where("p.stock_level <= p.low_stock_threshold").
		Order("p.stock_level ASC, p.name ASC").
		Scan(&views).Error
	return views, err
}

func (r *productRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)
	active := func() *gorm.DB { return db.Model(&model.Product{}).Where("is_active = ?", true) }

	if err := active().Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := active().Where("stock_level <= low_stock_threshold").Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := active().Select("COALESCE(SUM(stock_level), 0)").Row().Scan(&stats.TotalUnits); err != nil {
		return nil, err
	}
	if err := active().Select("COALESCE(SUM(stock_level * price), 0)").Row().Scan(&stats.TotalValuation); err != nil {
		return nil, err
	}
	return &stats, nil
}
