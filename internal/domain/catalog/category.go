package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// Category represents a product category mirrored from the remote catalog.
// The remote listing is a two-level tree (roots with embedded nodes) but the
// model supports arbitrary depth through the self-reference.
//
// Cascade policy: when a parent disappears from the remote listing its local
// children are removed with it. The sweep deletes every category whose remote
// id was absent from the latest full listing, which by construction includes
// the children of removed parents.
type Category struct {
	shared.BaseEntity
	ShopID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_categories_shop_pancake,priority:1"`
	PancakeID string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_categories_shop_pancake,priority:2"`
	Name      string     `gorm:"type:varchar(255)"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// RemoteID returns the remote identifier used for reconciliation
func (c *Category) RemoteID() string {
	return c.PancakeID
}

// NewCategory creates a new category mirror under a shop
func NewCategory(shopID uuid.UUID, pancakeID, name string) *Category {
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		PancakeID:  pancakeID,
		Name:       name,
	}
}

// IsRoot returns true if this is a root category
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindAllForShop returns every category mirrored for a shop
	FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]Category, error)

	// MapByPancakeID bulk-loads categories for the given remote ids
	MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error

	// DeleteWherePancakeIDNotIn sweeps categories absent from the remote
	// listing and returns the number of rows removed
	DeleteWherePancakeIDNotIn(ctx context.Context, shopID uuid.UUID, keep []string) (int64, error)
}
