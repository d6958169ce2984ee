package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/trade"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// MapByPancakeID bulk-loads orders for the given remote ids
func (r *GormOrderRepository) MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*trade.Order, error) {
	result := make(map[string]*trade.Order, len(pancakeIDs))
	if len(pancakeIDs) == 0 {
		return result, nil
	}

	var orders []trade.Order
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND pancake_id IN ?", shopID, pancakeIDs).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	for i := range orders {
		result[orders[i].PancakeID] = &orders[i]
	}
	return result, nil
}

// FindAnnotatedForCustomer returns the orders of a shop attached to the
// sentinel customer that carry a recovery marker in their note
func (r *GormOrderRepository) FindAnnotatedForCustomer(ctx context.Context, shopID, sentinelID uuid.UUID) ([]trade.Order, error) {
	var orders []trade.Order
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND customer_id = ? AND note LIKE ?",
			shopID, sentinelID, "%[MISSING_CUSTOMER_ID:%").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save persists customer reassignment and note cleanup for one order
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).
		Model(order).
		Select("customer_id", "note", "updated_at").
		Updates(order).Error
}

// Ensure GormOrderRepository implements OrderRepository
var _ trade.OrderRepository = (*GormOrderRepository)(nil)
