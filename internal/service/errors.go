package service

import (
	"errors"
	"fmt"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/repository"
	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/database"
)

// Error definitions. Every error returned by the services wraps exactly one
// of these so callers can map it to a status with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrStorage           = errors.New("storage failure")
)

// InsufficientStockError rejects a sale that would drive stock negative.
type InsufficientStockError struct {
	ProductID uint
	Current   int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: current stock %d, cannot sell %d", e.Current, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func productNotFound(id uint) error {
	return fmt.Errorf("%w: product %d", ErrNotFound, id)
}

// classify turns repository and driver errors into the service taxonomy.
// Errors already classified pass through untouched.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, repository.ErrProductNotFound):
		return fmt.Errorf("%w: %s: %v", ErrNotFound, op, err)
	case errors.Is(err, repository.ErrCategoryNotFound), database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: category does not exist", ErrInvalidCategory)
	default:
		return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
	}
}
