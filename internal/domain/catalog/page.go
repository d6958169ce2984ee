package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// Page represents a sales channel page attached to a shop. Pages are
// reconciled by set-difference: a page absent from the latest remote
// listing is swept.
type Page struct {
	shared.BaseEntity
	ShopID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pages_shop_pancake,priority:1"`
	PancakeID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_pages_shop_pancake,priority:2"`
	Name      string    `gorm:"type:varchar(255)"`
	Platform  string    `gorm:"type:varchar(50)"`
	IsActive  bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Page) TableName() string {
	return "pages"
}

// RemoteID returns the remote identifier used for reconciliation
func (p *Page) RemoteID() string {
	return p.PancakeID
}

// PageRepository defines page lookups beyond the generic bulk
// reconciliation path.
type PageRepository interface {
	// MapByPancakeID bulk-loads pages for the given remote ids
	MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*Page, error)
}

// NewPage creates a new page mirror under a shop
func NewPage(shopID uuid.UUID, pancakeID, name string) *Page {
	return &Page{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		PancakeID:  pancakeID,
		Name:       name,
		IsActive:   true,
	}
}
