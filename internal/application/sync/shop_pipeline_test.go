package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	"github.com/pancake-sync/backend/internal/domain/crm"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/domain/trade"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
	"github.com/pancake-sync/backend/internal/infrastructure/persistence"
)

func setupPipelineDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&catalog.Shop{},
		&catalog.Page{},
		&catalog.Tag{},
		&catalog.Category{},
		&catalog.Product{},
		&catalog.VariationField{},
		&catalog.Variation{},
		&crm.User{},
		&crm.Customer{},
		&crm.CustomerAddress{},
		&trade.Order{},
		&trade.OrderItem{},
		&trade.OrderShippingAddress{},
		&trade.OrderWarehouse{},
		&trade.OrderPartner{},
		&trade.OrderStatusHistory{},
		&trade.OrderHistory{},
		&syncdomain.SyncRun{},
		&syncdomain.ChoiceValue{},
	)
	require.NoError(t, err)

	return db
}

// fakeSource serves canned listings keyed by shop remote id. Single-page
// maps cover most tests; productPages scripts a paginated listing with
// optional per-page failures.
type fakeSource struct {
	shops     []pancake.RemoteShop
	shopsErr  error
	categorys map[string][]pancake.RemoteCategory
	products  map[string][]pancake.RemoteProduct
	users     map[string][]pancake.RemoteUser
	customers map[string][]pancake.RemoteCustomer
	orders    map[string][]pancake.RemoteOrder

	productPages   map[string][][]pancake.RemoteProduct
	productPageErr map[int]error

	categoriesErr map[string]error
	lastWindow    *pancake.TimeWindow
	lastCtxShop   string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		categorys:      map[string][]pancake.RemoteCategory{},
		products:       map[string][]pancake.RemoteProduct{},
		users:          map[string][]pancake.RemoteUser{},
		customers:      map[string][]pancake.RemoteCustomer{},
		orders:         map[string][]pancake.RemoteOrder{},
		productPages:   map[string][][]pancake.RemoteProduct{},
		productPageErr: map[int]error{},
		categoriesErr:  map[string]error{},
	}
}

func (f *fakeSource) ListShops(context.Context) ([]pancake.RemoteShop, error) {
	return f.shops, f.shopsErr
}

func singlePage[T any](data []T) *pancake.Page[T] {
	return &pancake.Page[T]{Number: 1, TotalPages: 1, Data: data}
}

func (f *fakeSource) ListCategories(_ context.Context, shopID string, _, _ int) (*pancake.Page[pancake.RemoteCategory], error) {
	if err := f.categoriesErr[shopID]; err != nil {
		return nil, err
	}
	return singlePage(f.categorys[shopID]), nil
}

func (f *fakeSource) ListProducts(ctx context.Context, shopID string, page, _ int) (*pancake.Page[pancake.RemoteProduct], error) {
	f.lastCtxShop = logger.GetShopID(ctx)
	if pages, ok := f.productPages[shopID]; ok {
		if err := f.productPageErr[page]; err != nil {
			return nil, err
		}
		return &pancake.Page[pancake.RemoteProduct]{Number: page, TotalPages: len(pages), Data: pages[page-1]}, nil
	}
	return singlePage(f.products[shopID]), nil
}

func (f *fakeSource) ListUsers(_ context.Context, shopID string, _, _ int) (*pancake.Page[pancake.RemoteUser], error) {
	return singlePage(f.users[shopID]), nil
}

func (f *fakeSource) ListCustomers(_ context.Context, shopID string, _, _ int, window *pancake.TimeWindow) (*pancake.Page[pancake.RemoteCustomer], error) {
	f.lastWindow = window
	return singlePage(f.customers[shopID]), nil
}

func (f *fakeSource) ListOrders(_ context.Context, shopID string, _, _ int, window *pancake.TimeWindow) (*pancake.Page[pancake.RemoteOrder], error) {
	f.lastWindow = window
	return singlePage(f.orders[shopID]), nil
}

// newTestState starts a tracked run backed by the test database
func newTestState(t *testing.T, db *gorm.DB, family syncdomain.EntityFamily) *runState {
	run, err := syncdomain.NewSyncRun(family)
	require.NoError(t, err)
	runs := persistence.NewGormSyncRunRepository(db)
	require.NoError(t, runs.Create(context.Background(), run))
	require.NoError(t, run.Start())
	return newRunState(run, runs, nil, zap.NewNop())
}

func newShopPipeline(db *gorm.DB, source RemoteSource) *ShopPipeline {
	return NewShopPipeline(
		source,
		persistence.NewGormShopRepository(db),
		persistence.NewPageBulkSet(db),
		persistence.NewTagBulkSet(db),
		zap.NewNop(),
	)
}

func TestShopPipeline_Run(t *testing.T) {
	ctx := context.Background()
	active := true

	t.Run("creates shops with embedded pages and tags", func(t *testing.T) {
		db := setupPipelineDB(t)
		source := newFakeSource()
		source.shops = []pancake.RemoteShop{{
			ID:       "shop-1",
			Name:     "Main Store",
			Currency: "VND",
			Pages: []pancake.RemotePage{
				{ID: "pg-1", Name: "Facebook Page", Platform: "facebook", IsActive: &active},
			},
			Tags: []pancake.RemoteTag{
				{ID: "tag-1", Name: "VIP", Color: "#ff0000"},
			},
		}}
		state := newTestState(t, db, syncdomain.FamilyShops)

		require.NoError(t, newShopPipeline(db, source).Run(ctx, state, Scope{}))

		shop, err := persistence.NewGormShopRepository(db).FindByPancakeID(ctx, "shop-1")
		require.NoError(t, err)
		assert.Equal(t, "Main Store", shop.Name)
		assert.Equal(t, "VND", shop.Currency)
		assert.NotNil(t, shop.LastSyncAt)

		var pageCount, tagCount int64
		db.Model(&catalog.Page{}).Count(&pageCount)
		db.Model(&catalog.Tag{}).Count(&tagCount)
		assert.Equal(t, int64(1), pageCount)
		assert.Equal(t, int64(1), tagCount)
		assert.Equal(t, 3, state.created)
		assert.Zero(t, state.errs.total)
	})

	t.Run("second run updates in place and sweeps removed pages", func(t *testing.T) {
		db := setupPipelineDB(t)
		source := newFakeSource()
		source.shops = []pancake.RemoteShop{{
			ID:   "shop-1",
			Name: "Main Store",
			Pages: []pancake.RemotePage{
				{ID: "pg-1", Name: "Facebook Page"},
				{ID: "pg-2", Name: "Instagram Page"},
			},
		}}
		pipeline := newShopPipeline(db, source)
		require.NoError(t, pipeline.Run(ctx, newTestState(t, db, syncdomain.FamilyShops), Scope{}))

		source.shops[0].Name = "Renamed Store"
		source.shops[0].Pages = source.shops[0].Pages[:1]
		state := newTestState(t, db, syncdomain.FamilyShops)
		require.NoError(t, pipeline.Run(ctx, state, Scope{}))

		shop, err := persistence.NewGormShopRepository(db).FindByPancakeID(ctx, "shop-1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed Store", shop.Name)

		var shopCount, pageCount int64
		db.Model(&catalog.Shop{}).Count(&shopCount)
		db.Model(&catalog.Page{}).Count(&pageCount)
		assert.Equal(t, int64(1), shopCount)
		assert.Equal(t, int64(1), pageCount)
		assert.Equal(t, int64(1), state.deleted)
	})

	t.Run("scoped run upserts only the named shop", func(t *testing.T) {
		db := setupPipelineDB(t)
		source := newFakeSource()
		source.shops = []pancake.RemoteShop{
			{ID: "shop-1", Name: "Main Store"},
			{ID: "shop-2", Name: "Outlet"},
		}
		state := newTestState(t, db, syncdomain.FamilyShops)

		require.NoError(t, newShopPipeline(db, source).Run(ctx, state, Scope{ShopID: "shop-2"}))

		var shopCount int64
		db.Model(&catalog.Shop{}).Count(&shopCount)
		assert.Equal(t, int64(1), shopCount)
		shop, err := persistence.NewGormShopRepository(db).FindByPancakeID(ctx, "shop-2")
		require.NoError(t, err)
		assert.Equal(t, "Outlet", shop.Name)
	})

	t.Run("listing failure is recorded without failing the run", func(t *testing.T) {
		db := setupPipelineDB(t)
		source := newFakeSource()
		source.shopsErr = errors.New("listing refused")
		state := newTestState(t, db, syncdomain.FamilyShops)

		require.NoError(t, newShopPipeline(db, source).Run(ctx, state, Scope{}))

		assert.Equal(t, 1, state.errs.total)
	})
}
