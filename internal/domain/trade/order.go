package trade

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// missingCustomerPattern recovers the unresolved remote customer id that was
// recorded on the order note when the true customer was not yet mirrored.
var missingCustomerPattern = regexp.MustCompile(`\[MISSING_CUSTOMER_ID:([^\]]+)\]`)

// Order represents a mirrored sales order. The customer reference is never
// null: orders whose remote customer is locally unknown are attached to the
// shop's anonymous sentinel and annotated for later reassignment. Orders are
// refreshed on every sync, never deleted.
type Order struct {
	shared.BaseEntity
	ShopID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_orders_shop_pancake,priority:1"`
	PancakeID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_shop_pancake,priority:2"`
	SystemID  string    `gorm:"type:varchar(64);index"`

	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index"`
	PageID     *uuid.UUID `gorm:"type:uuid;index"`

	CreatorID         *uuid.UUID `gorm:"type:uuid"`
	AssigningSellerID *uuid.UUID `gorm:"type:uuid"`
	AssigningCareID   *uuid.UUID `gorm:"type:uuid"`
	MarketerID        *uuid.UUID `gorm:"type:uuid"`
	LastEditorID      *uuid.UUID `gorm:"type:uuid"`

	// Status codes are open-world: raw remote codes are stored as-is and
	// labelled through the choice lookup table, never through a compiled enum.
	Status      int `gorm:"not null;default:0;index"`
	SubStatus   int `gorm:"not null;default:0"`
	OrderSource int `gorm:"not null;default:0"`

	TotalPrice          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TotalDiscount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	ShippingFee         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	PartnerFee          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Prepaid             decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Cash                decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TransferMoney       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	MoneyToCollect      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	AdsSpend            decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	ReturnedReasonValue decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`

	BillFullName    string `gorm:"type:varchar(255)"`
	BillPhoneNumber string `gorm:"type:varchar(50)"`
	Note            string `gorm:"type:text"`
	NotePrint       string `gorm:"type:text"`

	UTMSource   string `gorm:"column:utm_source;type:varchar(255)"`
	UTMMedium   string `gorm:"column:utm_medium;type:varchar(255)"`
	UTMCampaign string `gorm:"column:utm_campaign;type:varchar(255)"`

	TagRefs             string `gorm:"type:jsonb"`
	Statuses            string `gorm:"type:jsonb"`
	ActivatedPromotions string `gorm:"type:jsonb"`
	AdsSourceData       string `gorm:"type:jsonb"`

	IsFreeShipping     bool `gorm:"not null;default:false"`
	IsLivestream       bool `gorm:"not null;default:false"`
	CustomerNeedsCall  bool `gorm:"not null;default:false"`
	ReceivedAtShop     bool `gorm:"not null;default:false"`
	IsSmc              bool `gorm:"not null;default:false"`

	RemoteInsertedAt *time.Time
	RemoteUpdatedAt  *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// RemoteID returns the remote identifier used for reconciliation
func (o *Order) RemoteID() string {
	return o.PancakeID
}

// NewOrder creates a new order mirror under a shop
func NewOrder(shopID uuid.UUID, pancakeID string, customerID uuid.UUID) *Order {
	return &Order{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		PancakeID:  pancakeID,
		CustomerID: customerID,
	}
}

// AnnotateMissingCustomer records the unresolved remote customer id on the
// note in a recoverable form. Calling it twice for the same id is a no-op.
func (o *Order) AnnotateMissingCustomer(remotePancakeID string) {
	marker := fmt.Sprintf("[MISSING_CUSTOMER_ID:%s]", remotePancakeID)
	if strings.Contains(o.Note, marker) {
		return
	}
	if o.Note == "" {
		o.Note = marker
		return
	}
	o.Note = o.Note + " " + marker
}

// MissingCustomerID extracts the recorded unresolved customer id, if any
func (o *Order) MissingCustomerID() (string, bool) {
	m := missingCustomerPattern.FindStringSubmatch(o.Note)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ReassignCustomer attaches the order to its true customer and strips the
// recovery marker from the note
func (o *Order) ReassignCustomer(customerID uuid.UUID) {
	o.CustomerID = customerID
	o.Note = strings.TrimSpace(missingCustomerPattern.ReplaceAllString(o.Note, ""))
	o.Touch()
}

// OrderRepository defines order persistence beyond the generic bulk
// reconciliation path.
type OrderRepository interface {
	// MapByPancakeID bulk-loads orders for the given remote ids
	MapByPancakeID(ctx context.Context, shopID uuid.UUID, pancakeIDs []string) (map[string]*Order, error)

	// FindAnnotatedForCustomer returns the orders of a shop that are
	// attached to the sentinel customer and carry a recovery marker
	FindAnnotatedForCustomer(ctx context.Context, shopID, sentinelID uuid.UUID) ([]Order, error)

	// Save persists customer reassignment and note cleanup for one order
	Save(ctx context.Context, order *Order) error
}
