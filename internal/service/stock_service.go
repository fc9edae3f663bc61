package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/event"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/model"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/repository"
	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/validator"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// StockService records stock movements. It is the only writer of the ledger
// and guarantees a sale never drives a product's stock below zero.
type StockService interface {
	RecordMovement(ctx context.Context, in RecordMovementInput) (*MovementResult, error)
	// ApplyMovement runs the same check-and-append inside the caller's
	// transaction. Nothing is published; the caller owns the commit.
	ApplyMovement(tx *gorm.DB, in RecordMovementInput) (*MovementResult, error)
	ListMovements(ctx context.Context, productID uint, limit int) ([]model.StockMovement, error)
	Reconcile(ctx context.Context) (*ReconciliationReport, error)
}

type RecordMovementInput struct {
	ProductID    uint               `json:"product_id" validate:"required,gt=0"`
	MovementType model.MovementType `json:"movement_type" validate:"required,movement_type"`
	Quantity     int                `json:"quantity" validate:"required,gt=0"`
}

type MovementResult struct {
	MovementID     uint               `json:"movement_id"`
	ProductID      uint               `json:"product_id"`
	MovementType   model.MovementType `json:"movement_type"`
	QuantityChange int                `json:"quantity_change"`
	Timestamp      time.Time          `json:"timestamp"`
	NewStockLevel  int                `json:"new_stock_level"`
}

type ReconciliationReport struct {
	Consistent    bool                     `json:"consistent"`
	CheckedAt     time.Time                `json:"checked_at"`
	Discrepancies []repository.Discrepancy `json:"discrepancies"`
}

type stockService struct {
	db          *gorm.DB
	ledgerRepo  repository.LedgerRepository
	productRepo repository.ProductRepository
	publisher   event.Publisher
	log         *zap.Logger
}

func NewStockService(db *gorm.DB, lRepo repository.LedgerRepository, pRepo repository.ProductRepository, publisher event.Publisher, log *zap.Logger) StockService {
	if publisher == nil {
		publisher = event.Discard{}
	}
	return &stockService{
		db:          db,
		ledgerRepo:  lRepo,
		productRepo: pRepo,
		publisher:   publisher,
		log:         log.Named("stock"),
	}
}

func validateMovement(in RecordMovementInput) error {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return validationError("%s", validator.Message(errs))
	}
	return nil
}

func (s *stockService) RecordMovement(ctx context.Context, in RecordMovementInput) (*MovementResult, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}

	var result *MovementResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.apply(tx, in)
		return err
	})
	if err != nil {
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) {
			s.log.Info("sale rejected",
				zap.Uint("product_id", in.ProductID),
				zap.Int("current_stock", insufficient.Current),
				zap.Int("requested", insufficient.Requested),
			)
			return nil, err
		}
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, productNotFound(in.ProductID)
		}
		err = classify("record movement", err)
		if errors.Is(err, ErrStorage) {
			s.log.Error("failed to record movement", zap.Uint("product_id", in.ProductID), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("movement recorded",
		zap.Uint("movement_id", result.MovementID),
		zap.Uint("product_id", result.ProductID),
		zap.String("type", string(result.MovementType)),
		zap.Int("quantity_change", result.QuantityChange),
		zap.Int("stock_level", result.NewStockLevel),
	)
	s.publishMovement(ctx, result)
	return result, nil
}

func (s *stockService) ApplyMovement(tx *gorm.DB, in RecordMovementInput) (*MovementResult, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	return s.apply(tx, in)
}

// apply is the check-and-append unit. For a sale the product row stays
// locked from the stock read until tx ends, so no other movement for the
// product can land between the check and the append.
func (s *stockService) apply(tx *gorm.DB, in RecordMovementInput) (*MovementResult, error) {
	quantityChange := in.MovementType.Signed(in.Quantity)

	if in.MovementType == model.MovementSale {
		current, err := s.ledgerRepo.GetCurrentStock(tx, in.ProductID, true)
		if err != nil {
			return nil, err
		}
		if current+quantityChange < 0 {
			return nil, &InsufficientStockError{ProductID: in.ProductID, Current: current, Requested: in.Quantity}
		}
	} else if _, err := s.ledgerRepo.GetCurrentStock(tx, in.ProductID, false); err != nil {
		return nil, err
	}

	movement, stockLevel, err := s.ledgerRepo.RecordMovement(tx, in.ProductID, in.MovementType, quantityChange)
	if err != nil {
		return nil, err
	}

	return &MovementResult{
		MovementID:     movement.ID,
		ProductID:      movement.ProductID,
		MovementType:   movement.MovementType,
		QuantityChange: movement.QuantityChange,
		Timestamp:      movement.CreatedAt,
		NewStockLevel:  stockLevel,
	}, nil
}

func (s *stockService) publishMovement(ctx context.Context, result *MovementResult) {
	e := event.Event{
		Type:           event.StockMovementRecorded,
		ProductID:      result.ProductID,
		MovementID:     result.MovementID,
		MovementType:   string(result.MovementType),
		QuantityChange: result.QuantityChange,
		StockLevel:     result.NewStockLevel,
		OccurredAt:     result.Timestamp,
		Message:        fmt.Sprintf("%s of %d recorded, stock now %d", result.MovementType, abs(result.QuantityChange), result.NewStockLevel),
	}
	if product, err := s.productRepo.FindActiveByID(ctx, result.ProductID); err == nil {
		e.ProductName = product.Name
		e.LowStock = product.StockLevel <= product.LowStockThreshold
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish stock event", zap.Uint("movement_id", result.MovementID), zap.Error(err))
	}
}

func (s *stockService) ListMovements(ctx context.Context, productID uint, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	if _, err := s.productRepo.FindByID(s.db.WithContext(ctx), productID, false); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, productNotFound(productID)
		}
		return nil, classify("find product", err)
	}

	movements, err := s.ledgerRepo.FindByProduct(ctx, productID, limit)
	if err != nil {
		return nil, classify("list movements", err)
	}
	return movements, nil
}

func (s *stockService) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	discrepancies, err := s.ledgerRepo.Reconcile(ctx)
	if err != nil {
		return nil, classify("reconcile ledger", err)
	}
	for _, d := range discrepancies {
		s.log.Warn("stock level drifted from ledger",
			zap.Uint("product_id", d.ProductID),
			zap.Int("stock_level", d.StockLevel),
			zap.Int("ledger_total", d.LedgerTotal),
		)
	}
	return &ReconciliationReport{
		Consistent:    len(discrepancies) == 0,
		CheckedAt:     time.Now().UTC(),
		Discrepancies: discrepancies,
	}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
