package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/catalog"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// MapByPancakeID bulk-loads products for the given remote ids
func (r *GormProductRepository) MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*catalog.Product, error) {
	result := make(map[string]*catalog.Product, len(pancakeIDs))
	if len(pancakeIDs) == 0 {
		return result, nil
	}

	var products []catalog.Product
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND pancake_id IN ?", shopID, pancakeIDs).
		Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		result[products[i].PancakeID] = &products[i]
	}
	return result, nil
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
