package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// defaultBatchSize bounds how many rows travel in one INSERT statement
const defaultBatchSize = 200

// GormBulkSet provides the shared bulk reconciliation primitives for one
// mirrored entity type: existence lookup by remote id, batched conflict-
// tolerant insert, batched update restricted to a fixed column list, and
// the orphan sweep.
//
// Updates go through an upsert limited to updateCols, so columns outside
// the list are never touched by reconciliation.
type GormBulkSet[T any] struct {
	db         *gorm.DB
	scopeCol   string // empty for globally-keyed entities
	keyCol     string
	updateCols []string
	batchSize  int
}

// NewGormBulkSet creates a bulk set for one entity type. scopeCol is the
// parent scope column ("shop_id", "customer_id", "order_id"); pass an empty
// string for entities keyed globally by remote id alone.
func NewGormBulkSet[T any](db *gorm.DB, scopeCol, keyCol string, updateCols []string) *GormBulkSet[T] {
	return &GormBulkSet[T]{
		db:         db,
		scopeCol:   scopeCol,
		keyCol:     keyCol,
		updateCols: updateCols,
		batchSize:  defaultBatchSize,
	}
}

func (s *GormBulkSet[T]) conflictColumns() []clause.Column {
	cols := make([]clause.Column, 0, 2)
	if s.scopeCol != "" {
		cols = append(cols, clause.Column{Name: s.scopeCol})
	}
	cols = append(cols, clause.Column{Name: s.keyCol})
	return cols
}

func (s *GormBulkSet[T]) scoped(q *gorm.DB, scopeID any) *gorm.DB {
	if s.scopeCol == "" {
		return q
	}
	return q.Where(s.scopeCol+" = ?", scopeID)
}

// ExistingKeys bulk-loads the remote ids already present for the scope
func (s *GormBulkSet[T]) ExistingKeys(ctx context.Context, scopeID any, remoteIDs []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(remoteIDs))
	if len(remoteIDs) == 0 {
		return existing, nil
	}

	var keys []string
	q := s.scoped(s.db.WithContext(ctx).Model(new(T)), scopeID).
		Where(s.keyCol+" IN ?", remoteIDs)
	if err := q.Pluck(s.keyCol, &keys).Error; err != nil {
		return nil, err
	}
	for _, k := range keys {
		existing[k] = struct{}{}
	}
	return existing, nil
}

// InsertIgnoring inserts rows in batches, tolerating conflicts on the
// reconciliation key. A concurrent identical insert is a no-op, not an
// error. Returns the number of rows actually inserted.
func (s *GormBulkSet[T]) InsertIgnoring(ctx context.Context, rows []*T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: s.conflictColumns(), DoNothing: true}).
		CreateInBatches(rows, s.batchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// Update applies rows in batches, touching only the fixed update column
// list on the existing row identified by the reconciliation key.
func (s *GormBulkSet[T]) Update(ctx context.Context, rows []*T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   s.conflictColumns(),
			DoUpdates: clause.AssignmentColumns(s.updateCols),
		}).
		CreateInBatches(rows, s.batchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return len(rows), nil
}

// Insert appends rows without conflict handling. Used for child collections
// that are replaced wholesale rather than reconciled by key.
func (s *GormBulkSet[T]) Insert(ctx context.Context, rows []*T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).CreateInBatches(rows, s.batchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// DeleteMissing removes every row of the scope whose remote id is not in
// keep. With an empty keep list the whole scope is swept.
func (s *GormBulkSet[T]) DeleteMissing(ctx context.Context, scopeID any, keep []string) (int64, error) {
	q := s.scoped(s.db.WithContext(ctx), scopeID)
	if len(keep) > 0 {
		q = q.Where(s.keyCol+" NOT IN ?", keep)
	}
	// Delete needs at least one condition; the scope provides it for
	// parent-scoped sets, the key filter for global ones.
	if s.scopeCol == "" && len(keep) == 0 {
		return 0, nil
	}
	res := q.Delete(new(T))
	return res.RowsAffected, res.Error
}
