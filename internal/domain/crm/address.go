package crm

import (
	"github.com/google/uuid"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// CustomerAddress represents one delivery address of a customer. Addresses
// are reconciled per customer by set-difference.
type CustomerAddress struct {
	shared.BaseEntity
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customer_addresses_customer_pancake,priority:1"`
	PancakeID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_customer_addresses_customer_pancake,priority:2"`
	FullName    string    `gorm:"type:varchar(255)"`
	PhoneNumber string    `gorm:"type:varchar(50)"`
	Address     string    `gorm:"type:text"`
	CommuneID   string    `gorm:"type:varchar(50)"`
	DistrictID  string    `gorm:"type:varchar(50)"`
	ProvinceID  string    `gorm:"type:varchar(50)"`
	CountryCode string    `gorm:"type:varchar(10)"`
	FullAddress string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerAddress) TableName() string {
	return "customer_addresses"
}

// RemoteID returns the remote identifier used for reconciliation
func (a *CustomerAddress) RemoteID() string {
	return a.PancakeID
}
