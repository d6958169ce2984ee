package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/shared"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
)

func setupSyncRunTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&syncdomain.SyncRun{})
	require.NoError(t, err)

	return db
}

func createRun(t *testing.T, repo *GormSyncRunRepository, family syncdomain.EntityFamily) *syncdomain.SyncRun {
	t.Helper()
	run, err := syncdomain.NewSyncRun(family)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), run))
	return run
}

func TestGormSyncRunRepository_FindLatestByFamily(t *testing.T) {
	db := setupSyncRunTestDB(t)
	repo := NewGormSyncRunRepository(db)
	ctx := context.Background()

	t.Run("no runs yet", func(t *testing.T) {
		_, err := repo.FindLatestByFamily(ctx, syncdomain.FamilyOrders)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("returns the newest run of the family", func(t *testing.T) {
		older := createRun(t, repo, syncdomain.FamilyOrders)
		older.CreatedAt = time.Now().UTC().Add(-time.Hour)
		require.NoError(t, repo.Save(ctx, older))

		newer := createRun(t, repo, syncdomain.FamilyOrders)
		createRun(t, repo, syncdomain.FamilyShops)

		found, err := repo.FindLatestByFamily(ctx, syncdomain.FamilyOrders)

		require.NoError(t, err)
		assert.Equal(t, newer.ID, found.ID)
	})
}

func TestGormSyncRunRepository_FindRecent(t *testing.T) {
	db := setupSyncRunTestDB(t)
	repo := NewGormSyncRunRepository(db)
	ctx := context.Background()

	for i, family := range []syncdomain.EntityFamily{
		syncdomain.FamilyShops,
		syncdomain.FamilyProducts,
		syncdomain.FamilyOrders,
	} {
		run := createRun(t, repo, family)
		run.CreatedAt = time.Now().UTC().Add(time.Duration(i-3) * time.Hour)
		require.NoError(t, repo.Save(ctx, run))
	}

	recent, err := repo.FindRecent(ctx, 2)

	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, syncdomain.FamilyOrders, recent[0].EntityFamily)
	assert.Equal(t, syncdomain.FamilyProducts, recent[1].EntityFamily)
}

func TestGormSyncRunRepository_MarkStaleInterrupted(t *testing.T) {
	db := setupSyncRunTestDB(t)
	repo := NewGormSyncRunRepository(db)
	ctx := context.Background()

	stale := createRun(t, repo, syncdomain.FamilyOrders)
	require.NoError(t, stale.Start())
	staleStart := time.Now().UTC().Add(-6 * time.Hour)
	stale.StartedAt = &staleStart
	require.NoError(t, repo.Save(ctx, stale))

	live := createRun(t, repo, syncdomain.FamilyCustomers)
	require.NoError(t, live.Start())
	require.NoError(t, repo.Save(ctx, live))

	finished := createRun(t, repo, syncdomain.FamilyShops)
	require.NoError(t, finished.Start())
	require.NoError(t, finished.Complete(nil, 0))
	require.NoError(t, repo.Save(ctx, finished))

	n, err := repo.MarkStaleInterrupted(ctx, time.Now().UTC().Add(-4*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reloaded, err := repo.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.RunStatusInterrupted, reloaded.Status)
	assert.NotNil(t, reloaded.FinishedAt)

	reloaded, err = repo.FindByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.RunStatusRunning, reloaded.Status)
}

func TestGormSyncRunRepository_DeleteFinishedBefore(t *testing.T) {
	db := setupSyncRunTestDB(t)
	repo := NewGormSyncRunRepository(db)
	ctx := context.Background()

	old := createRun(t, repo, syncdomain.FamilyOrders)
	require.NoError(t, old.Start())
	require.NoError(t, old.Complete(nil, 0))
	oldFinish := time.Now().UTC().Add(-31 * 24 * time.Hour)
	old.FinishedAt = &oldFinish
	require.NoError(t, repo.Save(ctx, old))

	fresh := createRun(t, repo, syncdomain.FamilyOrders)
	require.NoError(t, fresh.Start())
	require.NoError(t, fresh.Complete(nil, 0))
	require.NoError(t, repo.Save(ctx, fresh))

	running := createRun(t, repo, syncdomain.FamilyCustomers)
	require.NoError(t, running.Start())
	require.NoError(t, repo.Save(ctx, running))

	n, err := repo.DeleteFinishedBefore(ctx, time.Now().UTC().Add(-30*24*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByID(ctx, old.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindByID(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = repo.FindByID(ctx, running.ID)
	assert.NoError(t, err)
}
