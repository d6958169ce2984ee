package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
)

func setupChoiceValueTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&syncdomain.ChoiceValue{})
	require.NoError(t, err)

	return db
}

func TestGormChoiceValueRepository_EnsureKnown(t *testing.T) {
	db := setupChoiceValueTestDB(t)
	repo := NewGormChoiceValueRepository(db)
	ctx := context.Background()

	t.Run("registers an unseen code", func(t *testing.T) {
		value, err := repo.EnsureKnown(ctx, syncdomain.ChoiceDomainOrderStatus, 1, "Confirmed")

		require.NoError(t, err)
		assert.Equal(t, 1, value.Code)
		assert.Equal(t, "Confirmed", value.Label)
	})

	t.Run("an existing label is never overwritten", func(t *testing.T) {
		value, err := repo.EnsureKnown(ctx, syncdomain.ChoiceDomainOrderStatus, 1, "Renamed Upstream")

		require.NoError(t, err)
		assert.Equal(t, "Confirmed", value.Label)
	})

	t.Run("an unlabelled code gets the placeholder", func(t *testing.T) {
		value, err := repo.EnsureKnown(ctx, syncdomain.ChoiceDomainOrderSubStatus, 42, "")

		require.NoError(t, err)
		assert.Equal(t, "Unknown (42)", value.Label)
	})

	t.Run("the same code may live in several domains", func(t *testing.T) {
		value, err := repo.EnsureKnown(ctx, syncdomain.ChoiceDomainOrderSource, 1, "Facebook")

		require.NoError(t, err)
		assert.Equal(t, "Facebook", value.Label)

		var count int64
		require.NoError(t, db.Model(&syncdomain.ChoiceValue{}).Where("code = ?", 1).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormChoiceValueRepository_MapByDomain(t *testing.T) {
	db := setupChoiceValueTestDB(t)
	repo := NewGormChoiceValueRepository(db)
	ctx := context.Background()

	_, err := repo.EnsureKnown(ctx, syncdomain.ChoiceDomainOrderStatus, 0, "New")
	require.NoError(t, err)
	_, err = repo.EnsureKnown(ctx, syncdomain.ChoiceDomainOrderStatus, 7, "Returning")
	require.NoError(t, err)
	_, err = repo.EnsureKnown(ctx, syncdomain.ChoiceDomainOrderSource, -1, "Livestream")
	require.NoError(t, err)

	byCode, err := repo.MapByDomain(ctx, syncdomain.ChoiceDomainOrderStatus)

	require.NoError(t, err)
	require.Len(t, byCode, 2)
	assert.Equal(t, "New", byCode[0].Label)
	assert.Equal(t, "Returning", byCode[7].Label)
}
