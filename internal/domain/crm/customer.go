package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// AnonymousPancakeID is the reserved remote id of the per-shop sentinel
// customer that satisfies the non-null customer reference on orders whose
// true customer is not yet locally known.
const AnonymousPancakeID = "anonymous"

// Customer represents a shop-scoped buyer. The creator and assigned user
// references may be absent remotely; absence is valid and stays null.
type Customer struct {
	shared.BaseEntity
	ShopID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_customers_shop_pancake,priority:1"`
	PancakeID       string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_customers_shop_pancake,priority:2"`
	Name            string          `gorm:"type:varchar(255)"`
	Emails          string          `gorm:"type:jsonb"`
	PhoneNumbers    string          `gorm:"type:jsonb"`
	Gender          string          `gorm:"type:varchar(20)"`
	DateOfBirth     *time.Time
	Level           string          `gorm:"type:varchar(100)"`
	RewardPoint     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	PurchasedAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	OrderCount      int             `gorm:"not null;default:0"`
	SucceedOrders   int             `gorm:"not null;default:0"`
	ReturnedOrders  int             `gorm:"not null;default:0"`
	ReferralCode    string          `gorm:"type:varchar(100)"`
	Tags            string          `gorm:"type:jsonb"`
	Notes           string          `gorm:"type:jsonb"`
	CreatorID       *uuid.UUID      `gorm:"type:uuid;index"`
	AssignedUserID  *uuid.UUID      `gorm:"type:uuid;index"`
	IsAnonymous     bool            `gorm:"not null;default:false"`
	RemoteCreatedAt *time.Time
	RemoteUpdatedAt *time.Time
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// RemoteID returns the remote identifier used for reconciliation
func (c *Customer) RemoteID() string {
	return c.PancakeID
}

// NewCustomer creates a new customer mirror under a shop
func NewCustomer(shopID uuid.UUID, pancakeID, name string) *Customer {
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		PancakeID:  pancakeID,
		Name:       name,
	}
}

// NewAnonymousCustomer creates the per-shop sentinel customer
func NewAnonymousCustomer(shopID uuid.UUID) *Customer {
	c := NewCustomer(shopID, AnonymousPancakeID, "Anonymous Customer")
	c.IsAnonymous = true
	return c
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// MapByPancakeID bulk-loads customers for the given remote ids
	MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*Customer, error)

	// GetOrCreateAnonymous returns the shop's sentinel customer, creating
	// it lazily on first use
	GetOrCreateAnonymous(ctx context.Context, shopID uuid.UUID) (*Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error
}
