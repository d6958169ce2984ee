package sync

import (
	"context"
	"fmt"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// Choice domains for remote status and source codes
const (
	ChoiceDomainOrderStatus    = "order_status"
	ChoiceDomainOrderSubStatus = "order_sub_status"
	ChoiceDomainOrderSource    = "order_source"
)

// ChoiceValue maps one raw remote code to a display label. The remote API
// ships codes outside any fixed enum, so unknown codes are inserted here as
// data and the code itself stays opaque at the type level.
type ChoiceValue struct {
	shared.BaseEntity
	Domain string `gorm:"type:varchar(50);not null;uniqueIndex:idx_choice_values_domain_code,priority:1"`
	Code   int    `gorm:"not null;uniqueIndex:idx_choice_values_domain_code,priority:2"`
	Label  string `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (ChoiceValue) TableName() string {
	return "choice_values"
}

// NewChoiceValue creates a new choice mapping
func NewChoiceValue(domain string, code int, label string) *ChoiceValue {
	if label == "" {
		label = fmt.Sprintf("Unknown (%d)", code)
	}
	return &ChoiceValue{
		BaseEntity: shared.NewBaseEntity(),
		Domain:     domain,
		Code:       code,
		Label:      label,
	}
}

// ChoiceValueRepository defines the interface for choice lookup persistence
type ChoiceValueRepository interface {
	// EnsureKnown inserts the (domain, code) pair if it is not yet present
	// and returns the stored mapping
	EnsureKnown(ctx context.Context, domain string, code int, label string) (*ChoiceValue, error)

	// MapByDomain loads every known code for a domain
	MapByDomain(ctx context.Context, domain string) (map[int]*ChoiceValue, error)
}
