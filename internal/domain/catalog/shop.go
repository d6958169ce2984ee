package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// Shop represents one remote storefront. Every other mirrored entity is
// scoped to a shop; removing a shop cascades to its entities.
type Shop struct {
	shared.BaseEntity
	PancakeID  string `gorm:"type:varchar(64);not null;uniqueIndex:idx_shops_pancake_id"`
	Name       string `gorm:"type:varchar(255);not null"`
	Currency   string `gorm:"type:varchar(10)"`
	AvatarURL  string `gorm:"type:text"`
	LastSyncAt *time.Time
}

// TableName returns the table name for GORM
func (Shop) TableName() string {
	return "shops"
}

// NewShop creates a new shop mirror
func NewShop(pancakeID, name string) (*Shop, error) {
	if strings.TrimSpace(pancakeID) == "" {
		return nil, shared.NewDomainError("INVALID_PANCAKE_ID", "Shop remote id cannot be empty")
	}
	return &Shop{
		BaseEntity: shared.NewBaseEntity(),
		PancakeID:  pancakeID,
		Name:       name,
	}, nil
}

// MarkSynced records the completion time of the latest sync pass
func (s *Shop) MarkSynced(at time.Time) {
	t := at.UTC()
	s.LastSyncAt = &t
	s.Touch()
}

// ShopRepository defines the interface for shop persistence
type ShopRepository interface {
	// FindAll returns every mirrored shop
	FindAll(ctx context.Context) ([]Shop, error)

	// FindByID finds a shop by its local ID
	FindByID(ctx context.Context, id uuid.UUID) (*Shop, error)

	// FindByPancakeID finds a shop by its remote id
	FindByPancakeID(ctx context.Context, pancakeID string) (*Shop, error)

	// Save creates or updates a shop
	Save(ctx context.Context, shop *Shop) error

	// UpdateLastSyncAt stamps the shop's last successful sync time
	UpdateLastSyncAt(ctx context.Context, id uuid.UUID, at time.Time) error
}
