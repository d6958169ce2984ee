package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// VariationField represents one attribute value (for example "Color: Red")
// shared across variations of a shop.
type VariationField struct {
	shared.BaseEntity
	ShopID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_variation_fields_shop_pancake,priority:1"`
	PancakeID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_variation_fields_shop_pancake,priority:2"`
	Name      string    `gorm:"type:varchar(255)"`
	Value     string    `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (VariationField) TableName() string {
	return "variation_fields"
}

// RemoteID returns the remote identifier used for reconciliation
func (f *VariationField) RemoteID() string {
	return f.PancakeID
}

// Variation represents a sellable variant of a product. Each variation
// belongs to exactly one product and carries a set of variation fields
// replaced wholesale on every sync.
type Variation struct {
	shared.BaseEntity
	ShopID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_variations_shop_pancake,priority:1"`
	PancakeID          string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_variations_shop_pancake,priority:2"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	DisplayID          string          `gorm:"type:varchar(100)"`
	Barcode            string          `gorm:"type:varchar(100)"`
	RetailPrice        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	PriceAtCounter     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	LastImportedPrice  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TotalPurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Weight             int             `gorm:"not null;default:0"`
	RemainQuantity     int             `gorm:"not null;default:0"`
	Images             string          `gorm:"type:jsonb"`
	IsHidden           bool            `gorm:"not null;default:false"`
	IsLocked           bool            `gorm:"not null;default:false"`
	IsSellNegative     bool            `gorm:"not null;default:false"`

	Fields []VariationField `gorm:"many2many:variation_field_links;"`
}

// TableName returns the table name for GORM
func (Variation) TableName() string {
	return "variations"
}

// RemoteID returns the remote identifier used for reconciliation
func (v *Variation) RemoteID() string {
	return v.PancakeID
}

// VariationRepository defines variation persistence beyond the generic
// bulk reconciliation path.
type VariationRepository interface {
	// MapByPancakeID bulk-loads variations for the given remote ids
	MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*Variation, error)

	// MapFieldsByPancakeID bulk-loads variation fields for the given
	// remote ids
	MapFieldsByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*VariationField, error)

	// ReplaceFields replaces the variation's field association set wholesale
	ReplaceFields(ctx context.Context, variation *Variation, fields []VariationField) error
}
