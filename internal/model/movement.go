package model

import "time"

type MovementType string

const (
	MovementReceipt    MovementType = "RECEIPT"
	MovementSale       MovementType = "SALE"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Valid reports whether t is one of the known movement types.
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceipt, MovementSale, MovementAdjustment:
		return true
	}
	return false
}

// Signed converts an absolute quantity into the ledger delta for t.
// Only sales decrement stock.
func (t MovementType) Signed(quantity int) int {
	if t == MovementSale {
		return -quantity
	}
	return quantity
}

// StockMovement is one append-only ledger entry. Rows are never updated or
// deleted; a product's StockLevel is always the sum of its QuantityChange.
type StockMovement struct {
	ID             uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID      uint         `gorm:"not null;index" json:"product_id"`
	Product        Product      `gorm:"constraint:OnDelete:RESTRICT;" json:"-"`
	MovementType   MovementType `gorm:"type:varchar(20);not null" json:"movement_type"`
	QuantityChange int          `gorm:"not null" json:"quantity_change"`
	CreatedAt      time.Time    `gorm:"index" json:"timestamp"`
}
