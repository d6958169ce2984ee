package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/crm"
)

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// MapByPancakeID bulk-loads users for the given remote ids. Users are
// tenant-agnostic so the lookup is global.
func (r *GormUserRepository) MapByPancakeID(ctx context.Context, pancakeIDs []string) (map[string]*crm.User, error) {
	result := make(map[string]*crm.User, len(pancakeIDs))
	if len(pancakeIDs) == 0 {
		return result, nil
	}

	var users []crm.User
	if err := r.db.WithContext(ctx).
		Where("pancake_id IN ?", pancakeIDs).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].PancakeID] = &users[i]
	}
	return result, nil
}

// Ensure GormUserRepository implements UserRepository
var _ crm.UserRepository = (*GormUserRepository)(nil)
