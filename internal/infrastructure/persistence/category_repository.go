package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/catalog"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindAllForShop returns every category mirrored for a shop
func (r *GormCategoryRepository) FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]catalog.Category, error) {
	var categories []catalog.Category
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// MapByPancakeID bulk-loads categories for the given remote ids
func (r *GormCategoryRepository) MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*catalog.Category, error) {
	result := make(map[string]*catalog.Category, len(pancakeIDs))
	if len(pancakeIDs) == 0 {
		return result, nil
	}

	var categories []catalog.Category
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND pancake_id IN ?", shopID, pancakeIDs).
		Find(&categories).Error; err != nil {
		return nil, err
	}
	for i := range categories {
		result[categories[i].PancakeID] = &categories[i]
	}
	return result, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// DeleteWherePancakeIDNotIn sweeps categories absent from the remote
// listing. Children of a removed parent are included in the sweep because
// the keep list is the flattened remote tree.
func (r *GormCategoryRepository) DeleteWherePancakeIDNotIn(ctx context.Context, shopID uuid.UUID, keep []string) (int64, error) {
	q := r.db.WithContext(ctx).Where("shop_id = ?", shopID)
	if len(keep) > 0 {
		q = q.Where("pancake_id NOT IN ?", keep)
	}
	result := q.Delete(&catalog.Category{})
	return result.RowsAffected, result.Error
}

// Ensure GormCategoryRepository implements CategoryRepository
var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
