package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
)

// GormChoiceValueRepository implements ChoiceValueRepository using GORM
type GormChoiceValueRepository struct {
	db *gorm.DB
}

// NewGormChoiceValueRepository creates a new GormChoiceValueRepository
func NewGormChoiceValueRepository(db *gorm.DB) *GormChoiceValueRepository {
	return &GormChoiceValueRepository{db: db}
}

// EnsureKnown inserts the (domain, code) pair if it is not yet present and
// returns the stored mapping. An existing label is never overwritten.
func (r *GormChoiceValueRepository) EnsureKnown(ctx context.Context, domain string, code int, label string) (*syncdomain.ChoiceValue, error) {
	var existing syncdomain.ChoiceValue
	err := r.db.WithContext(ctx).
		Where("domain = ? AND code = ?", domain, code).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	value := syncdomain.NewChoiceValue(domain, code, label)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "domain"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(value).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("domain = ? AND code = ?", domain, code).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// MapByDomain loads every known code for a domain
func (r *GormChoiceValueRepository) MapByDomain(ctx context.Context, domain string) (map[int]*syncdomain.ChoiceValue, error) {
	var values []syncdomain.ChoiceValue
	if err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		Find(&values).Error; err != nil {
		return nil, err
	}
	result := make(map[int]*syncdomain.ChoiceValue, len(values))
	for i := range values {
		result[values[i].Code] = &values[i]
	}
	return result, nil
}

// Ensure GormChoiceValueRepository implements ChoiceValueRepository
var _ syncdomain.ChoiceValueRepository = (*GormChoiceValueRepository)(nil)
