package model

import "github.com/shopspring/decimal"

// DefaultLowStockThreshold is applied when a product is created without one.
const DefaultLowStockThreshold = 5

type Product struct {
	BaseModel
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	CategoryID        uint            `gorm:"not null;index" json:"category_id"`
	Category          Category        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	StockLevel        int             `gorm:"not null;default:0" json:"stock_level"`
	LowStockThreshold int             `gorm:"not null;default:5" json:"low_stock_threshold"`
	IsActive          bool            `gorm:"not null;default:true" json:"is_active"`
}

// IsLowStock reports whether the product is at or below its reorder level.
func (p *Product) IsLowStock() bool {
	return p.StockLevel <= p.LowStockThreshold
}
