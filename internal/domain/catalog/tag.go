package catalog

import (
	"github.com/google/uuid"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// Tag represents a shop-scoped order tag. Swept by set-difference like Page.
type Tag struct {
	shared.BaseEntity
	ShopID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tags_shop_pancake,priority:1"`
	PancakeID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_tags_shop_pancake,priority:2"`
	Name      string    `gorm:"type:varchar(255)"`
	Color     string    `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (Tag) TableName() string {
	return "tags"
}

// RemoteID returns the remote identifier used for reconciliation
func (t *Tag) RemoteID() string {
	return t.PancakeID
}

// NewTag creates a new tag mirror under a shop
func NewTag(shopID uuid.UUID, pancakeID, name string) *Tag {
	return &Tag{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		PancakeID:  pancakeID,
		Name:       name,
	}
}
