package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/event"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/model"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/repository"
	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService manages products and categories. Stock only enters the
// picture at creation, where the opening stock is booked as a RECEIPT.
type CatalogService interface {
	CreateProduct(ctx context.Context, in CreateProductInput) (*ProductSummary, error)
	UpdateProduct(ctx context.Context, id uint, in UpdateProductInput) (*ProductSummary, error)
	RetireProduct(ctx context.Context, id uint) (*ProductSummary, error)
	GetProduct(ctx context.Context, id uint) (*repository.ProductView, error)
	ListActiveProducts(ctx context.Context) ([]repository.ProductView, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type CreateProductInput struct {
	Name              string           `json:"name" validate:"required,max=255"`
	Description       string           `json:"description"`
	Price             *decimal.Decimal `json:"price" validate:"omitnil,gte=0,lt=100000000"`
	CategoryID        uint             `json:"category_id" validate:"required,gt=0"`
	InitialStock      int              `json:"initial_stock" validate:"gte=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" validate:"omitnil,gt=0"`
}

// UpdateProductInput is a sparse patch: nil fields are left untouched.
// Stock level is deliberately absent.
type UpdateProductInput struct {
	Name              *string          `json:"name" validate:"omitnil,min=1,max=255"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price" validate:"omitnil,gte=0,lt=100000000"`
	CategoryID        *uint            `json:"category_id" validate:"omitnil,gt=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" validate:"omitnil,gt=0"`
	IsActive          *bool            `json:"is_active"`
}

// Fields returns the column values present in the patch.
func (in UpdateProductInput) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.CategoryID != nil {
		fields["category_id"] = *in.CategoryID
	}
	if in.LowStockThreshold != nil {
		fields["low_stock_threshold"] = *in.LowStockThreshold
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	return fields
}

type ProductSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	StockLevel int    `json:"stock_level"`
}

type catalogService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	stock        StockService
	publisher    event.Publisher
	log          *zap.Logger
}

func NewCatalogService(db *gorm.DB, pRepo repository.ProductRepository, cRepo repository.CategoryRepository, stock StockService, publisher event.Publisher, log *zap.Logger) CatalogService {
	if publisher == nil {
		publisher = event.Discard{}
	}
	return &catalogService{
		db:           db,
		productRepo:  pRepo,
		categoryRepo: cRepo,
		stock:        stock,
		publisher:    publisher,
		log:          log.Named("catalog"),
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*ProductSummary, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Price = roundPrice(in.Price)
	errs := validator.ValidateStruct(in)
	if in.Price == nil {
		errs = append(errs, &validator.ErrorResponse{FailedField: "price", Tag: "required"})
	}
	if len(errs) > 0 {
		return nil, validationError("%s", validator.Message(errs))
	}

	threshold := model.DefaultLowStockThreshold
	if in.LowStockThreshold != nil {
		threshold = *in.LowStockThreshold
	}

	product := &model.Product{
		Name:              in.Name,
		Description:       in.Description,
		Price:             *in.Price,
		CategoryID:        in.CategoryID,
		LowStockThreshold: threshold,
		IsActive:          true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.categoryRepo.FindByID(tx, in.CategoryID); err != nil {
			return err
		}
		if err := s.productRepo.Create(tx, product); err != nil {
			return err
		}
		if in.InitialStock > 0 {
			receipt, err := s.stock.ApplyMovement(tx, RecordMovementInput{
				ProductID:    product.ID,
				MovementType: model.MovementReceipt,
				Quantity:     in.InitialStock,
			})
			if err != nil {
				return err
			}
			product.StockLevel = receipt.NewStockLevel
		}
		return nil
	})
	if err != nil {
		err = classify("create product", err)
		if errors.Is(err, ErrStorage) {
			s.log.Error("failed to create product", zap.String("name", in.Name), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("stock_level", product.StockLevel),
	)
	s.publish(ctx, event.ProductCreated, product, fmt.Sprintf("Product '%s' created", product.Name))

	return &ProductSummary{ID: product.ID, Name: product.Name, StockLevel: product.StockLevel}, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uint, in UpdateProductInput) (*ProductSummary, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	in.Price = roundPrice(in.Price)
	fields := in.Fields()
	if len(fields) == 0 {
		return nil, validationError("no fields supplied for update")
	}
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return nil, validationError("%s", validator.Message(errs))
	}

	var updated *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Retired products stay editable
		if _, err := s.productRepo.FindByID(tx, id, true); err != nil {
			return err
		}
		if in.CategoryID != nil {
			if _, err := s.categoryRepo.FindByID(tx, *in.CategoryID); err != nil {
				return err
			}
		}
		if err := s.productRepo.Update(tx, id, fields); err != nil {
			return err
		}

		var err error
		updated, err = s.productRepo.FindByID(tx, id, false)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, productNotFound(id)
		}
		err = classify("update product", err)
		if errors.Is(err, ErrStorage) {
			s.log.Error("failed to update product", zap.Uint("product_id", id), zap.Error(err))
		}
		return nil, err
	}

	eventType, message := event.ProductUpdated, fmt.Sprintf("Product '%s' updated", updated.Name)
	if in.IsActive != nil && !*in.IsActive {
		eventType, message = event.ProductRetired, fmt.Sprintf("Product '%s' retired", updated.Name)
	}
	s.log.Info("product updated", zap.Uint("product_id", id), zap.Int("fields", len(fields)))
	s.publish(ctx, eventType, updated, message)

	return &ProductSummary{ID: updated.ID, Name: updated.Name, StockLevel: updated.StockLevel}, nil
}

func (s *catalogService) RetireProduct(ctx context.Context, id uint) (*ProductSummary, error) {
	inactive := false
	return s.UpdateProduct(ctx, id, UpdateProductInput{IsActive: &inactive})
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*repository.ProductView, error) {
	product, err := s.productRepo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, productNotFound(id)
		}
		return nil, classify("get product", err)
	}
	return product, nil
}

func (s *catalogService) ListActiveProducts(ctx context.Context) ([]repository.ProductView, error) {
	products, err := s.productRepo.FindAllActive(ctx)
	if err != nil {
		return nil, classify("list products", err)
	}
	return products, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, classify("list categories", err)
	}
	return categories, nil
}

// roundPrice rounds to the stored scale so the range check sees the value
// that will be written.
func roundPrice(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	rounded := p.Round(2)
	return &rounded
}

func (s *catalogService) publish(ctx context.Context, t event.Type, p *model.Product, message string) {
	e := event.Event{
		Type:        t,
		ProductID:   p.ID,
		ProductName: p.Name,
		StockLevel:  p.StockLevel,
		LowStock:    p.IsLowStock(),
		Message:     message,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish catalog event", zap.Uint("product_id", p.ID), zap.Error(err))
	}
}
