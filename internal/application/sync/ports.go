package sync

import (
	"context"

	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
)

// RemoteSource is the paginated remote API consumed by the pipelines.
// Implemented by pancake.Client; tests substitute fixtures.
type RemoteSource interface {
	ListShops(ctx context.Context) ([]pancake.RemoteShop, error)
	ListCategories(ctx context.Context, shopID string, page, pageSize int) (*pancake.Page[pancake.RemoteCategory], error)
	ListProducts(ctx context.Context, shopID string, page, pageSize int) (*pancake.Page[pancake.RemoteProduct], error)
	ListUsers(ctx context.Context, shopID string, page, pageSize int) (*pancake.Page[pancake.RemoteUser], error)
	ListCustomers(ctx context.Context, shopID string, page, pageSize int, window *pancake.TimeWindow) (*pancake.Page[pancake.RemoteCustomer], error)
	ListOrders(ctx context.Context, shopID string, page, pageSize int, window *pancake.TimeWindow) (*pancake.Page[pancake.RemoteOrder], error)
}

// BulkWriter provides the storage half of bulk reconciliation for one
// entity type. Implemented by persistence.GormBulkSet.
type BulkWriter[T any] interface {
	// ExistingKeys bulk-loads the remote ids already present for the scope
	ExistingKeys(ctx context.Context, scopeID any, remoteIDs []string) (map[string]struct{}, error)

	// InsertIgnoring inserts rows tolerating conflicts on the
	// reconciliation key, returning how many were actually inserted
	InsertIgnoring(ctx context.Context, rows []*T) (int, error)

	// Update applies rows touching only the entity's fixed column list
	Update(ctx context.Context, rows []*T) (int, error)

	// DeleteMissing sweeps rows of the scope whose remote id is absent
	// from keep
	DeleteMissing(ctx context.Context, scopeID any, keep []string) (int64, error)
}

// ReplaceWriter covers child collections without a usable remote identity
// (order histories); the desired state replaces the stored set wholesale.
type ReplaceWriter[T any] interface {
	DeleteMissing(ctx context.Context, scopeID any, keep []string) (int64, error)
	Insert(ctx context.Context, rows []*T) (int, error)
}

// ProgressSink publishes live run progress so in-flight counters can be
// read without hitting the primary store. Implemented on redis.
type ProgressSink interface {
	// AcquireRunLock takes the per-family run lock; ok is false when
	// another run of the same family holds it
	AcquireRunLock(ctx context.Context, family string) (ok bool, err error)

	// ReleaseRunLock releases the per-family run lock
	ReleaseRunLock(ctx context.Context, family string) error

	// PublishProgress publishes the current counters of a run
	PublishProgress(ctx context.Context, family string, created, updated, failed, errors int) error
}
