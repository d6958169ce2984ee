package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// Product represents a mirrored product. Products are refreshed on every
// sync but never deleted by the sweep; the remote API keeps listing
// historical products for the whole sync window.
type Product struct {
	shared.BaseEntity
	ShopID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_products_shop_pancake,priority:1"`
	PancakeID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_products_shop_pancake,priority:2"`
	Name        string    `gorm:"type:varchar(500)"`
	DisplayID   string    `gorm:"type:varchar(100)"`
	ImageURL    string    `gorm:"type:text"`
	Note        string    `gorm:"type:text"`
	IsPublished bool      `gorm:"not null;default:false"`
	Weight      int       `gorm:"not null;default:0"`
	// CategoryRefs and TagRefs hold the raw remote id lists as JSON. The
	// category tree itself is mirrored separately; these stay verbatim so
	// the linkage survives categories that sync later than products.
	CategoryRefs string `gorm:"type:jsonb"`
	TagRefs      string `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// RemoteID returns the remote identifier used for reconciliation
func (p *Product) RemoteID() string {
	return p.PancakeID
}

// ProductRepository defines product lookups beyond the generic bulk
// reconciliation path.
type ProductRepository interface {
	// MapByPancakeID bulk-loads products for the given remote ids
	MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*Product, error)
}

// NewProduct creates a new product mirror under a shop
func NewProduct(shopID uuid.UUID, pancakeID, name string) *Product {
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		PancakeID:  pancakeID,
		Name:       name,
	}
}
