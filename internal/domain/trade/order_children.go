package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// OrderShippingAddress is the one-to-one delivery address of an order.
// The commnue_name column keeps the upstream API's field name verbatim so
// round trips stay lossless.
type OrderShippingAddress struct {
	shared.BaseEntity
	OrderID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_shipping_addresses_order"`
	FullName    string    `gorm:"type:varchar(255)"`
	PhoneNumber string    `gorm:"type:varchar(50)"`
	Address     string    `gorm:"type:text"`
	CommuneName string    `gorm:"column:commnue_name;type:varchar(255)"`
	DistrictName string   `gorm:"type:varchar(255)"`
	ProvinceName string   `gorm:"type:varchar(255)"`
	CountryName  string   `gorm:"type:varchar(255)"`
	FullAddress  string   `gorm:"type:text"`
	PostCode     string   `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (OrderShippingAddress) TableName() string {
	return "order_shipping_addresses"
}

// OrderWarehouse is the optional one-to-one warehouse snapshot of an order.
type OrderWarehouse struct {
	shared.BaseEntity
	OrderID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_warehouses_order"`
	PancakeID   string    `gorm:"type:varchar(64)"`
	Name        string    `gorm:"type:varchar(255)"`
	PhoneNumber string    `gorm:"type:varchar(50)"`
	FullAddress string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderWarehouse) TableName() string {
	return "order_warehouses"
}

// OrderPartner is the optional one-to-one shipping partner snapshot.
type OrderPartner struct {
	shared.BaseEntity
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_partners_order"`
	PartnerID      string          `gorm:"type:varchar(64)"`
	PartnerName    string          `gorm:"type:varchar(255)"`
	ExtendCode     string          `gorm:"type:varchar(100)"`
	OrderNumberVTP string          `gorm:"column:order_number_vtp;type:varchar(100)"`
	SortCode       string          `gorm:"type:varchar(100)"`
	COD            decimal.Decimal `gorm:"column:cod;type:decimal(20,4);not null;default:0"`
	TotalFee       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	ExtendUpdate   string          `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (OrderPartner) TableName() string {
	return "order_partners"
}

// OrderItem is one line of an order, unique per (order, remote item id).
type OrderItem struct {
	shared.BaseEntity
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_items_order_item,priority:1"`
	ItemID            string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_items_order_item,priority:2"`
	VariationID       *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity          int             `gorm:"not null;default:0"`
	DiscountEach      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TotalDiscount     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	IsBonusProduct    bool            `gorm:"not null;default:false"`
	IsComposite       bool            `gorm:"not null;default:false"`
	IsDiscountPercent bool            `gorm:"not null;default:false"`
	IsWholesale       bool            `gorm:"not null;default:false"`
	VariationInfo     string          `gorm:"type:jsonb"`
	Note              string          `gorm:"type:text"`
	NoteProduct       string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// RemoteID returns the remote identifier used for reconciliation
func (i *OrderItem) RemoteID() string {
	return i.ItemID
}

// OrderStatusHistory records one status transition of an order.
type OrderStatusHistory struct {
	shared.BaseEntity
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status    int        `gorm:"not null;default:0"`
	EditorID  *uuid.UUID `gorm:"type:uuid"`
	ChangedAt *time.Time
}

// TableName returns the table name for GORM
func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}

// OrderHistory records one generic edit to an order.
type OrderHistory struct {
	shared.BaseEntity
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	EditorID  *uuid.UUID `gorm:"type:uuid"`
	Changes   string     `gorm:"type:jsonb"`
	EditedAt  *time.Time
}

// TableName returns the table name for GORM
func (OrderHistory) TableName() string {
	return "order_histories"
}
