package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/catalog"
)

// GormPageRepository implements PageRepository using GORM
type GormPageRepository struct {
	db *gorm.DB
}

// NewGormPageRepository creates a new GormPageRepository
func NewGormPageRepository(db *gorm.DB) *GormPageRepository {
	return &GormPageRepository{db: db}
}

// MapByPancakeID bulk-loads pages for the given remote ids
func (r *GormPageRepository) MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*catalog.Page, error) {
	result := make(map[string]*catalog.Page, len(pancakeIDs))
	if len(pancakeIDs) == 0 {
		return result, nil
	}

	var pages []catalog.Page
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND pancake_id IN ?", shopID, pancakeIDs).
		Find(&pages).Error; err != nil {
		return nil, err
	}
	for i := range pages {
		result[pages[i].PancakeID] = &pages[i]
	}
	return result, nil
}

// Ensure GormPageRepository implements PageRepository
var _ catalog.PageRepository = (*GormPageRepository)(nil)
