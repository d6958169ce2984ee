package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pancake-sync/backend/internal/domain/crm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// MapByPancakeID bulk-loads customers for the given remote ids
func (r *GormCustomerRepository) MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*crm.Customer, error) {
	result := make(map[string]*crm.Customer, len(pancakeIDs))
	if len(pancakeIDs) == 0 {
		return result, nil
	}

	var customers []crm.Customer
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND pancake_id IN ?", shopID, pancakeIDs).
		Find(&customers).Error; err != nil {
		return nil, err
	}
	for i := range customers {
		result[customers[i].PancakeID] = &customers[i]
	}
	return result, nil
}

// GetOrCreateAnonymous returns the shop's sentinel customer, creating it
// lazily on first use. The conflict clause makes concurrent creation a
// no-op followed by a re-read.
func (r *GormCustomerRepository) GetOrCreateAnonymous(ctx context.Context, shopID uuid.UUID) (*crm.Customer, error) {
	var existing crm.Customer
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND pancake_id = ?", shopID, crm.AnonymousPancakeID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sentinel := crm.NewAnonymousCustomer(shopID)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_id"}, {Name: "pancake_id"}},
			DoNothing: true,
		}).
		Create(sentinel).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND pancake_id = ?", shopID, crm.AnonymousPancakeID).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *crm.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ crm.CustomerRepository = (*GormCustomerRepository)(nil)
