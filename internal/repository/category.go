package repository

import (
	"context"
	"errors"

	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	Create(ctx context.Context, e *entity.Category) error
	GetList(ctx context.Context) ([]entity.Category, error)
	GetByKey(ctx context.Context, key string) (*entity.Category, error)
	UpdateByKey(ctx context.Context, key string, data *entity.Category) error
	DeleteByKey(ctx context.Context, key string) error
	GetLastPosition(ctx context.Context) (int, error)
}

type categoryRepository struct{}

func NewCategoryRepository() *categoryRepository {
	return &categoryRepository{}
}

func (r *categoryRepository) Create(ctx context.Context, e *entity.Category) error {
	if err := xcontext.DB(ctx).Create(e).Error; err != nil {
		return err
	}
	return nil
}

func (r *categoryRepository) GetList(ctx context.Context) ([]entity.Category, error) {
	var result []entity.Category
	err := xcontext.DB(ctx).Model(&entity.Category{}).
		Order("position ASC").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *categoryRepository) GetByKey(ctx context.Context, key string) (*entity.Category, error) {
	var result entity.Category
	if err := xcontext.DB(ctx).Where(map[string]any{"key": key}).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *categoryRepository) UpdateByKey(ctx context.Context, key string, data *entity.Category) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Category{}).
		Where(map[string]any{"key": key}).
		Updates(data)
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DeleteByKey soft-deletes the category. Its options must be reassigned by the caller.
func (r *categoryRepository) DeleteByKey(ctx context.Context, key string) error {
	tx := xcontext.DB(ctx).Where(map[string]any{"key": key}).Delete(&entity.Category{})
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *categoryRepository) GetLastPosition(ctx context.Context) (int, error) {
	var result int
	err := xcontext.DB(ctx).Model(&entity.Category{}).Select("position").
		Not(map[string]any{"key": entity.CategoryOther}).
		Order("position DESC").
		Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		return 0, err
	}

	return result, nil
}
