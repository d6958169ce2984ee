package sync

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/crm"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/domain/trade"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
	"github.com/pancake-sync/backend/internal/infrastructure/persistence"
)

func newOrderPipeline(db *gorm.DB, source RemoteSource) *OrderPipeline {
	return NewOrderPipeline(OrderPipelineDeps{
		Source:          source,
		Shops:           persistence.NewGormShopRepository(db),
		Pages:           persistence.NewGormPageRepository(db),
		Variations:      persistence.NewGormVariationRepository(db),
		Users:           persistence.NewGormUserRepository(db),
		Customers:       persistence.NewGormCustomerRepository(db),
		Choices:         persistence.NewGormChoiceValueRepository(db),
		Orders:          persistence.NewOrderBulkSet(db),
		OrderLookup:     persistence.NewGormOrderRepository(db),
		Items:           persistence.NewOrderItemBulkSet(db),
		Shipping:        persistence.NewShippingAddressBulkSet(db),
		Warehouses:      persistence.NewWarehouseBulkSet(db),
		Partners:        persistence.NewPartnerBulkSet(db),
		StatusHistories: persistence.NewStatusHistoryBulkSet(db),
		Histories:       persistence.NewOrderHistoryBulkSet(db),
	}, DefaultConfig(), zap.NewNop())
}

func seedCustomer(t *testing.T, db *gorm.DB, shopPancakeID, customerPancakeID string) *crm.Customer {
	ctx := context.Background()
	shop, err := persistence.NewGormShopRepository(db).FindByPancakeID(ctx, shopPancakeID)
	require.NoError(t, err)
	customer := crm.NewCustomer(shop.ID, customerPancakeID, "Seeded "+customerPancakeID)
	require.NoError(t, persistence.NewGormCustomerRepository(db).Save(ctx, customer))
	return customer
}

func TestOrderPipeline_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("mirrors an order with items and satellites", func(t *testing.T) {
		db := setupPipelineDB(t)
		shop := seedShop(t, db, "shop-1")
		customer := seedCustomer(t, db, "shop-1", "c-1")
		total := decimal.NewFromInt(350000)
		cod := decimal.NewFromInt(350000)

		source := newFakeSource()
		source.orders["shop-1"] = []pancake.RemoteOrder{{
			ID:         "o-1",
			CustomerID: "c-1",
			Status:     1,
			StatusName: "Confirmed",
			TotalPrice: &total,
			Items: []pancake.RemoteOrderItem{
				{ID: "i-1", Quantity: 2},
			},
			ShippingAddress: &pancake.RemoteShippingAddress{FullName: "Bob", Address: "12 Main St"},
			Warehouse:       &pancake.RemoteWarehouse{ID: "w-1", Name: "Central"},
			Partner:         &pancake.RemotePartner{PartnerID: "ghn", PartnerName: "GHN", COD: &cod},
			StatusHistories: []pancake.RemoteStatusHistory{
				{Status: 0, UpdatedAt: "2026-03-01T09:00:00Z"},
				{Status: 1, UpdatedAt: "2026-03-01T10:00:00Z"},
			},
		}}
		state := newTestState(t, db, syncdomain.FamilyOrders)

		require.NoError(t, newOrderPipeline(db, source).Run(ctx, state, Scope{}))

		orders, err := persistence.NewGormOrderRepository(db).MapByPancakeID(ctx, shop.ID, []string{"o-1"})
		require.NoError(t, err)
		require.Contains(t, orders, "o-1")
		order := orders["o-1"]
		assert.Equal(t, customer.ID, order.CustomerID)
		assert.True(t, order.TotalPrice.Equal(total))

		var itemCount, shippingCount, warehouseCount, partnerCount, historyCount int64
		db.Model(&trade.OrderItem{}).Count(&itemCount)
		db.Model(&trade.OrderShippingAddress{}).Count(&shippingCount)
		db.Model(&trade.OrderWarehouse{}).Count(&warehouseCount)
		db.Model(&trade.OrderPartner{}).Count(&partnerCount)
		db.Model(&trade.OrderStatusHistory{}).Count(&historyCount)
		assert.Equal(t, int64(1), itemCount)
		assert.Equal(t, int64(1), shippingCount)
		assert.Equal(t, int64(1), warehouseCount)
		assert.Equal(t, int64(1), partnerCount)
		assert.Equal(t, int64(2), historyCount)
		assert.Zero(t, state.errs.total)
	})

	t.Run("registers status and source codes in the choice table", func(t *testing.T) {
		db := setupPipelineDB(t)
		seedShop(t, db, "shop-1")
		source := newFakeSource()
		source.orders["shop-1"] = []pancake.RemoteOrder{{
			ID:               "o-1",
			Status:           7,
			StatusName:       "Returning",
			OrderSource:      -1,
			OrderSourcesName: "Livestream",
		}}

		require.NoError(t, newOrderPipeline(db, source).Run(ctx, newTestState(t, db, syncdomain.FamilyOrders), Scope{}))

		choices := persistence.NewGormChoiceValueRepository(db)
		statuses, err := choices.MapByDomain(ctx, syncdomain.ChoiceDomainOrderStatus)
		require.NoError(t, err)
		require.Contains(t, statuses, 7)
		assert.Equal(t, "Returning", statuses[7].Label)

		sources, err := choices.MapByDomain(ctx, syncdomain.ChoiceDomainOrderSource)
		require.NoError(t, err)
		require.Contains(t, sources, -1)
		assert.Equal(t, "Livestream", sources[-1].Label)
	})

	t.Run("unknown customer attaches to the sentinel with a marker", func(t *testing.T) {
		db := setupPipelineDB(t)
		shop := seedShop(t, db, "shop-1")
		source := newFakeSource()
		source.orders["shop-1"] = []pancake.RemoteOrder{{ID: "o-1", CustomerID: "c-ghost"}}

		require.NoError(t, newOrderPipeline(db, source).Run(ctx, newTestState(t, db, syncdomain.FamilyOrders), Scope{}))

		sentinel, err := persistence.NewGormCustomerRepository(db).GetOrCreateAnonymous(ctx, shop.ID)
		require.NoError(t, err)
		orders, err := persistence.NewGormOrderRepository(db).MapByPancakeID(ctx, shop.ID, []string{"o-1"})
		require.NoError(t, err)
		order := orders["o-1"]
		assert.Equal(t, sentinel.ID, order.CustomerID)
		missing, ok := order.MissingCustomerID()
		require.True(t, ok)
		assert.Equal(t, "c-ghost", missing)
	})

	t.Run("second run refreshes the order and rebuilds histories", func(t *testing.T) {
		db := setupPipelineDB(t)
		shop := seedShop(t, db, "shop-1")
		seedCustomer(t, db, "shop-1", "c-1")
		source := newFakeSource()
		source.orders["shop-1"] = []pancake.RemoteOrder{{
			ID:              "o-1",
			CustomerID:      "c-1",
			Status:          1,
			StatusHistories: []pancake.RemoteStatusHistory{{Status: 1}},
			Items: []pancake.RemoteOrderItem{
				{ID: "i-1", Quantity: 2},
				{ID: "i-2", Quantity: 1},
			},
		}}
		pipeline := newOrderPipeline(db, source)
		require.NoError(t, pipeline.Run(ctx, newTestState(t, db, syncdomain.FamilyOrders), Scope{}))

		source.orders["shop-1"][0].Status = 3
		source.orders["shop-1"][0].StatusHistories = []pancake.RemoteStatusHistory{{Status: 1}, {Status: 3}}
		source.orders["shop-1"][0].Items = source.orders["shop-1"][0].Items[:1]
		state := newTestState(t, db, syncdomain.FamilyOrders)
		require.NoError(t, pipeline.Run(ctx, state, Scope{}))

		orders, err := persistence.NewGormOrderRepository(db).MapByPancakeID(ctx, shop.ID, []string{"o-1"})
		require.NoError(t, err)
		assert.Equal(t, 3, orders["o-1"].Status)

		var orderCount, itemCount, historyCount int64
		db.Model(&trade.Order{}).Count(&orderCount)
		db.Model(&trade.OrderItem{}).Count(&itemCount)
		db.Model(&trade.OrderStatusHistory{}).Count(&historyCount)
		assert.Equal(t, int64(1), orderCount)
		assert.Equal(t, int64(1), itemCount)
		assert.Equal(t, int64(2), historyCount)
		assert.Equal(t, 1, state.updated)
	})
}
