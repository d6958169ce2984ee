package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/crm"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/domain/trade"
	"github.com/pancake-sync/backend/internal/infrastructure/persistence"
)

func newMaintenance(db *gorm.DB) *Maintenance {
	return NewMaintenance(
		persistence.NewGormOrderRepository(db),
		persistence.NewGormCustomerRepository(db),
		persistence.NewGormSyncRunRepository(db),
		zap.NewNop(),
	)
}

func TestMaintenance_ReassignAnonymousOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("reattaches orders whose customer arrived late", func(t *testing.T) {
		db := setupPipelineDB(t)
		m := newMaintenance(db)
		shop := seedShop(t, db, "1001")

		sentinel, err := persistence.NewGormCustomerRepository(db).GetOrCreateAnonymous(ctx, shop.ID)
		require.NoError(t, err)

		held := trade.NewOrder(shop.ID, "o-1", sentinel.ID)
		held.AnnotateMissingCustomer("c-late")
		require.NoError(t, db.Create(held).Error)

		arrived := crm.NewCustomer(shop.ID, "c-late", "Late Arrival")
		require.NoError(t, db.Create(arrived).Error)

		n, err := m.ReassignAnonymousOrders(ctx, shop.ID)

		require.NoError(t, err)
		assert.Equal(t, 1, n)

		var reloaded trade.Order
		require.NoError(t, db.First(&reloaded, "pancake_id = ?", "o-1").Error)
		assert.Equal(t, arrived.ID, reloaded.CustomerID)
		assert.Empty(t, reloaded.Note)
	})

	t.Run("orders whose customer is still missing stay held", func(t *testing.T) {
		db := setupPipelineDB(t)
		m := newMaintenance(db)
		shop := seedShop(t, db, "1001")

		sentinel, err := persistence.NewGormCustomerRepository(db).GetOrCreateAnonymous(ctx, shop.ID)
		require.NoError(t, err)

		held := trade.NewOrder(shop.ID, "o-1", sentinel.ID)
		held.AnnotateMissingCustomer("c-ghost")
		require.NoError(t, db.Create(held).Error)

		n, err := m.ReassignAnonymousOrders(ctx, shop.ID)

		require.NoError(t, err)
		assert.Zero(t, n)

		var reloaded trade.Order
		require.NoError(t, db.First(&reloaded, "pancake_id = ?", "o-1").Error)
		assert.Equal(t, sentinel.ID, reloaded.CustomerID)
		assert.Contains(t, reloaded.Note, "c-ghost")
	})

	t.Run("shop without sentinel-held orders is a no-op", func(t *testing.T) {
		db := setupPipelineDB(t)
		m := newMaintenance(db)
		shop := seedShop(t, db, "1001")

		n, err := m.ReassignAnonymousOrders(ctx, shop.ID)

		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestMaintenance_SweepStaleRuns(t *testing.T) {
	ctx := context.Background()
	db := setupPipelineDB(t)
	m := newMaintenance(db)
	runs := persistence.NewGormSyncRunRepository(db)

	stale, err := syncdomain.NewSyncRun(syncdomain.FamilyOrders)
	require.NoError(t, err)
	require.NoError(t, runs.Create(ctx, stale))
	require.NoError(t, stale.Start())
	staleStart := time.Now().UTC().Add(-syncdomain.StaleRunThreshold - time.Hour)
	stale.StartedAt = &staleStart
	require.NoError(t, runs.Save(ctx, stale))

	live, err := syncdomain.NewSyncRun(syncdomain.FamilyCustomers)
	require.NoError(t, err)
	require.NoError(t, runs.Create(ctx, live))
	require.NoError(t, live.Start())
	require.NoError(t, runs.Save(ctx, live))

	n, err := m.SweepStaleRuns(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reloaded, err := runs.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.RunStatusInterrupted, reloaded.Status)
}

func TestMaintenance_PurgeOldRuns(t *testing.T) {
	ctx := context.Background()
	db := setupPipelineDB(t)
	m := newMaintenance(db)
	runs := persistence.NewGormSyncRunRepository(db)

	old, err := syncdomain.NewSyncRun(syncdomain.FamilyShops)
	require.NoError(t, err)
	require.NoError(t, runs.Create(ctx, old))
	require.NoError(t, old.Start())
	require.NoError(t, old.Complete(nil, 0))
	oldFinish := time.Now().UTC().Add(-RunRetention - time.Hour)
	old.FinishedAt = &oldFinish
	require.NoError(t, runs.Save(ctx, old))

	fresh, err := syncdomain.NewSyncRun(syncdomain.FamilyShops)
	require.NoError(t, err)
	require.NoError(t, runs.Create(ctx, fresh))
	require.NoError(t, fresh.Start())
	require.NoError(t, fresh.Complete(nil, 0))
	require.NoError(t, runs.Save(ctx, fresh))

	n, err := m.PurgeOldRuns(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recent, err := runs.FindRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
