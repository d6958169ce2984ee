package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// EntityFamily identifies one sync pipeline
type EntityFamily string

const (
	FamilyShops      EntityFamily = "shops"
	FamilyCategories EntityFamily = "categories"
	FamilyProducts   EntityFamily = "products"
	FamilyCustomers  EntityFamily = "customers"
	FamilyOrders     EntityFamily = "orders"
)

// IsValid checks if the entity family is valid
func (f EntityFamily) IsValid() bool {
	switch f {
	case FamilyShops, FamilyCategories, FamilyProducts, FamilyCustomers, FamilyOrders:
		return true
	}
	return false
}

// AllFamilies lists every entity family in dependency order
func AllFamilies() []EntityFamily {
	return []EntityFamily{FamilyShops, FamilyCategories, FamilyProducts, FamilyCustomers, FamilyOrders}
}

// RunStatus represents the lifecycle status of a sync run
type RunStatus string

const (
	RunStatusPending             RunStatus = "pending"
	RunStatusRunning             RunStatus = "running"
	RunStatusCompleted           RunStatus = "completed"
	RunStatusCompletedWithErrors RunStatus = "completed_with_errors"
	RunStatusFailed              RunStatus = "failed"
	RunStatusInterrupted         RunStatus = "interrupted"
)

// IsTerminal returns true if this is a terminal state
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusCompletedWithErrors, RunStatusFailed, RunStatusInterrupted:
		return true
	}
	return false
}

// MaxErrorSamples bounds how many error messages are persisted verbatim on a
// run. The total error count stays accurate regardless.
const MaxErrorSamples = 10

// StaleRunThreshold is the wall-clock bound after which a run still marked
// running is reclassified as interrupted by the sweep.
const StaleRunThreshold = 4 * time.Hour

// RunError is one recorded error with enough context to act on later
type RunError struct {
	Shop      string `json:"shop,omitempty"`
	Page      int    `json:"page,omitempty"`
	Operation string `json:"operation,omitempty"`
	Message   string `json:"message"`
}

// ErrorDetail is the persisted JSON shape: a bounded sample list plus the
// true total count.
type ErrorDetail struct {
	Total   int        `json:"total"`
	Samples []RunError `json:"samples,omitempty"`
}

// SyncRun tracks one invocation of an entity-family pipeline
type SyncRun struct {
	shared.BaseEntity
	EntityFamily EntityFamily `gorm:"type:varchar(30);not null;index"`
	ShopID       *uuid.UUID   `gorm:"type:uuid;index"`
	Status       RunStatus    `gorm:"type:varchar(30);not null;default:'pending';index"`
	Created      int          `gorm:"not null;default:0"`
	Updated      int          `gorm:"not null;default:0"`
	Failed       int          `gorm:"not null;default:0"`
	Total        int          `gorm:"not null;default:0"`
	ErrorDetails string       `gorm:"type:jsonb"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	DurationSecs float64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SyncRun) TableName() string {
	return "sync_runs"
}

// NewSyncRun creates a new pending run for an entity family
func NewSyncRun(family EntityFamily) (*SyncRun, error) {
	if !family.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY_FAMILY", fmt.Sprintf("Invalid entity family: %s", family))
	}
	return &SyncRun{
		BaseEntity:   shared.NewBaseEntity(),
		EntityFamily: family,
		Status:       RunStatusPending,
	}, nil
}

// ScopeToShop records the single shop a run was narrowed to. Runs without
// a shop cover every mirrored tenant.
func (r *SyncRun) ScopeToShop(shopID uuid.UUID) {
	id := shopID
	r.ShopID = &id
	r.Touch()
}

// Start marks the run as running
func (r *SyncRun) Start() error {
	if r.Status != RunStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start run from state: %s", r.Status))
	}
	now := time.Now().UTC()
	r.Status = RunStatusRunning
	r.StartedAt = &now
	r.Touch()
	return nil
}

// RecordProgress updates the running counters
func (r *SyncRun) RecordProgress(created, updated, failed int) {
	r.Created = created
	r.Updated = updated
	r.Failed = failed
	r.Total = created + updated + failed
	r.Touch()
}

// Complete marks the run as finished. With recorded errors the terminal
// state is completed_with_errors, otherwise completed.
func (r *SyncRun) Complete(errs []RunError, totalErrors int) error {
	if r.Status != RunStatusRunning {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete run from state: %s", r.Status))
	}
	r.finish()
	if totalErrors > 0 {
		r.Status = RunStatusCompletedWithErrors
	} else {
		r.Status = RunStatusCompleted
	}
	r.setErrorDetail(errs, totalErrors)
	return nil
}

// Fail marks the run as failed. Only orchestration-level failures reach
// this state; page and tenant failures end in completed_with_errors.
func (r *SyncRun) Fail(errs []RunError, totalErrors int) {
	r.finish()
	r.Status = RunStatusFailed
	r.setErrorDetail(errs, totalErrors)
}

// Interrupt marks the run as interrupted
func (r *SyncRun) Interrupt() error {
	if r.Status != RunStatusRunning {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot interrupt run from state: %s", r.Status))
	}
	r.finish()
	r.Status = RunStatusInterrupted
	return nil
}

func (r *SyncRun) finish() {
	now := time.Now().UTC()
	r.FinishedAt = &now
	if r.StartedAt != nil {
		r.DurationSecs = now.Sub(*r.StartedAt).Seconds()
	}
	r.Touch()
}

func (r *SyncRun) setErrorDetail(errs []RunError, total int) {
	if total == 0 {
		return
	}
	samples := errs
	if len(samples) > MaxErrorSamples {
		samples = samples[:MaxErrorSamples]
	}
	detail := ErrorDetail{Total: total, Samples: samples}
	if raw, err := json.Marshal(detail); err == nil {
		r.ErrorDetails = string(raw)
	}
}

// ErrorDetail decodes the persisted error payload
func (r *SyncRun) ErrorDetail() (ErrorDetail, error) {
	var detail ErrorDetail
	if r.ErrorDetails == "" {
		return detail, nil
	}
	err := json.Unmarshal([]byte(r.ErrorDetails), &detail)
	return detail, err
}

// SyncRunRepository defines the interface for sync run persistence
type SyncRunRepository interface {
	// Create persists a new run
	Create(ctx context.Context, run *SyncRun) error

	// Save persists run progress and state transitions
	Save(ctx context.Context, run *SyncRun) error

	// FindByID finds a run by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncRun, error)

	// FindLatestByFamily returns the most recent run for a family
	FindLatestByFamily(ctx context.Context, family EntityFamily) (*SyncRun, error)

	// FindRecent returns the most recent runs across all families
	FindRecent(ctx context.Context, limit int) ([]SyncRun, error)

	// MarkStaleInterrupted reclassifies running runs older than the
	// threshold and returns how many were touched
	MarkStaleInterrupted(ctx context.Context, olderThan time.Time) (int64, error)

	// DeleteFinishedBefore removes terminal runs older than the cutoff
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
