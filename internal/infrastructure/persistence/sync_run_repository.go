package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/shared"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
)

// GormSyncRunRepository implements SyncRunRepository using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Create persists a new run
func (r *GormSyncRunRepository) Create(ctx context.Context, run *syncdomain.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Save persists run progress and state transitions
func (r *GormSyncRunRepository) Save(ctx context.Context, run *syncdomain.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// FindByID finds a run by ID
func (r *GormSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.SyncRun, error) {
	var run syncdomain.SyncRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindLatestByFamily returns the most recent run for a family
func (r *GormSyncRunRepository) FindLatestByFamily(ctx context.Context, family syncdomain.EntityFamily) (*syncdomain.SyncRun, error) {
	var run syncdomain.SyncRun
	if err := r.db.WithContext(ctx).
		Where("entity_family = ?", family).
		Order("created_at DESC").
		First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindRecent returns the most recent runs across all families
func (r *GormSyncRunRepository) FindRecent(ctx context.Context, limit int) ([]syncdomain.SyncRun, error) {
	var runs []syncdomain.SyncRun
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// MarkStaleInterrupted reclassifies running runs started before the cutoff
func (r *GormSyncRunRepository) MarkStaleInterrupted(ctx context.Context, olderThan time.Time) (int64, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&syncdomain.SyncRun{}).
		Where("status = ? AND started_at < ?", syncdomain.RunStatusRunning, olderThan).
		Updates(map[string]interface{}{
			"status":      syncdomain.RunStatusInterrupted,
			"finished_at": now,
			"updated_at":  now,
		})
	return result.RowsAffected, result.Error
}

// DeleteFinishedBefore removes terminal runs older than the cutoff
func (r *GormSyncRunRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ? AND finished_at < ?", []syncdomain.RunStatus{
			syncdomain.RunStatusCompleted,
			syncdomain.RunStatusCompletedWithErrors,
			syncdomain.RunStatusFailed,
			syncdomain.RunStatusInterrupted,
		}, cutoff).
		Delete(&syncdomain.SyncRun{})
	return result.RowsAffected, result.Error
}

// Ensure GormSyncRunRepository implements SyncRunRepository
var _ syncdomain.SyncRunRepository = (*GormSyncRunRepository)(nil)
