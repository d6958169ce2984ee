package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/catalog"
)

// GormVariationRepository implements VariationRepository using GORM
type GormVariationRepository struct {
	db *gorm.DB
}

// NewGormVariationRepository creates a new GormVariationRepository
func NewGormVariationRepository(db *gorm.DB) *GormVariationRepository {
	return &GormVariationRepository{db: db}
}

// MapByPancakeID bulk-loads variations for the given remote ids
func (r *GormVariationRepository) MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*catalog.Variation, error) {
	result := make(map[string]*catalog.Variation, len(pancakeIDs))
	if len(pancakeIDs) == 0 {
		return result, nil
	}

	var variations []catalog.Variation
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND pancake_id IN ?", shopID, pancakeIDs).
		Find(&variations).Error; err != nil {
		return nil, err
	}
	for i := range variations {
		result[variations[i].PancakeID] = &variations[i]
	}
	return result, nil
}

// MapFieldsByPancakeID bulk-loads variation fields for the given remote ids
func (r *GormVariationRepository) MapFieldsByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*catalog.VariationField, error) {
	result := make(map[string]*catalog.VariationField, len(pancakeIDs))
	if len(pancakeIDs) == 0 {
		return result, nil
	}

	var fields []catalog.VariationField
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND pancake_id IN ?", shopID, pancakeIDs).
		Find(&fields).Error; err != nil {
		return nil, err
	}
	for i := range fields {
		result[fields[i].PancakeID] = &fields[i]
	}
	return result, nil
}

// ReplaceFields replaces the variation's field association set wholesale.
// The desired set is a pure assignment, so no incremental diff is needed.
func (r *GormVariationRepository) ReplaceFields(ctx context.Context, variation *catalog.Variation, fields []catalog.VariationField) error {
	return r.db.WithContext(ctx).
		Model(variation).
		Association("Fields").
		Replace(&fields)
}

// Ensure GormVariationRepository implements VariationRepository
var _ catalog.VariationRepository = (*GormVariationRepository)(nil)
