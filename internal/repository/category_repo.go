package repository

import (
	"context"
	"errors"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	FindAll(ctx context.Context) ([]model.Category, error)
	// FindByID runs on db so it can join the caller's transaction.
	FindByID(db *gorm.DB, id uint) (*model.Category, error)
	FirstOrCreate(db *gorm.DB, name string) (*model.Category, error)
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) FindByID(db *gorm.DB, id uint) (*model.Category, error) {
	var category model.Category
	err := db.First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FirstOrCreate inserts name unless it exists. The insert skips conflicts
// instead of failing, so it is safe inside a caller's transaction.
func (r *categoryRepo) FirstOrCreate(db *gorm.DB, name string) (*model.Category, error) {
	category := model.Category{Name: name}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		if err := db.Where("name = ?", name).First(&category).Error; err != nil {
			return nil, err
		}
	}
	return &category, nil
}
