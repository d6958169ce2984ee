package sync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	"github.com/pancake-sync/backend/internal/domain/crm"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/domain/trade"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
)

// OrderPipeline mirrors orders with their satellite records. References to
// customers, users, pages and variations resolve against bulk-loaded maps;
// an order whose customer is locally unknown attaches to the shop's
// anonymous sentinel and carries a recovery marker. Orders are refreshed on
// every pass and never swept.
type OrderPipeline struct {
	source      RemoteSource
	shops       catalog.ShopRepository
	pages       catalog.PageRepository
	variations  catalog.VariationRepository
	users       crm.UserRepository
	customers   crm.CustomerRepository
	choices     syncdomain.ChoiceValueRepository
	orders      BulkWriter[trade.Order]
	orderLookup trade.OrderRepository

	items      BulkWriter[trade.OrderItem]
	shipping   BulkWriter[trade.OrderShippingAddress]
	warehouses BulkWriter[trade.OrderWarehouse]
	partners   BulkWriter[trade.OrderPartner]

	statusHistories ReplaceWriter[trade.OrderStatusHistory]
	histories       ReplaceWriter[trade.OrderHistory]

	cfg    Config
	logger *zap.Logger
}

// OrderPipelineDeps bundles the construction dependencies of the order
// pipeline; the flat list would be unreadable.
type OrderPipelineDeps struct {
	Source      RemoteSource
	Shops       catalog.ShopRepository
	Pages       catalog.PageRepository
	Variations  catalog.VariationRepository
	Users       crm.UserRepository
	Customers   crm.CustomerRepository
	Choices     syncdomain.ChoiceValueRepository
	Orders      BulkWriter[trade.Order]
	OrderLookup trade.OrderRepository

	Items      BulkWriter[trade.OrderItem]
	Shipping   BulkWriter[trade.OrderShippingAddress]
	Warehouses BulkWriter[trade.OrderWarehouse]
	Partners   BulkWriter[trade.OrderPartner]

	StatusHistories ReplaceWriter[trade.OrderStatusHistory]
	Histories       ReplaceWriter[trade.OrderHistory]
}

// NewOrderPipeline creates the order pipeline
func NewOrderPipeline(deps OrderPipelineDeps, cfg Config, logger *zap.Logger) *OrderPipeline {
	return &OrderPipeline{
		source:          deps.Source,
		shops:           deps.Shops,
		pages:           deps.Pages,
		variations:      deps.Variations,
		users:           deps.Users,
		customers:       deps.Customers,
		choices:         deps.Choices,
		orders:          deps.Orders,
		orderLookup:     deps.OrderLookup,
		items:           deps.Items,
		shipping:        deps.Shipping,
		warehouses:      deps.Warehouses,
		partners:        deps.Partners,
		statusHistories: deps.StatusHistories,
		histories:       deps.Histories,
		cfg:             cfg,
		logger:          logger,
	}
}

// Family returns the entity family this pipeline converges
func (p *OrderPipeline) Family() syncdomain.EntityFamily {
	return syncdomain.FamilyOrders
}

// choiceCache remembers which (domain, code) pairs were already ensured
// during this run so the lookup table is hit once per pair
type choiceCache map[string]map[int]struct{}

func (c choiceCache) seen(domain string, code int) bool {
	codes, ok := c[domain]
	if !ok {
		return false
	}
	_, ok = codes[code]
	return ok
}

func (c choiceCache) mark(domain string, code int) {
	if _, ok := c[domain]; !ok {
		c[domain] = make(map[int]struct{})
	}
	c[domain][code] = struct{}{}
}

// Run converges orders for every shop the scope covers
func (p *OrderPipeline) Run(ctx context.Context, state *runState, scope Scope) error {
	shops, err := scopedShops(ctx, p.shops, scope)
	if err != nil {
		state.noteError("", 0, "list_shops", err)
		return nil
	}

	window := scope.Window
	cache := make(choiceCache)
	for i := range shops {
		if err := ctx.Err(); err != nil {
			return err
		}
		shop := &shops[i]
		shopCtx, _ := logger.WithShopID(ctx, p.logger, shop.PancakeID)

		sentinel, err := p.customers.GetOrCreateAnonymous(shopCtx, shop.ID)
		if err != nil {
			state.noteError(shop.PancakeID, 0, "ensure_sentinel", err)
			continue
		}

		err = forEachPage(shopCtx, p.cfg.PagePause,
			func(ctx context.Context, page int) (*pancake.Page[pancake.RemoteOrder], error) {
				return p.source.ListOrders(ctx, shop.PancakeID, page, p.cfg.OrderPageSize, window)
			},
			func(page *pancake.Page[pancake.RemoteOrder]) error {
				return p.syncPage(shopCtx, state, shop, sentinel, page, cache)
			},
			func(page int, err error) {
				state.noteError(shop.PancakeID, page, "fetch_orders", err)
			},
		)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			state.noteError(shop.PancakeID, 1, "sync_orders", err)
		}
		state.persist(shopCtx)
	}
	return nil
}

// syncPage converges one page of orders and their satellites
func (p *OrderPipeline) syncPage(ctx context.Context, state *runState, shop *catalog.Shop, sentinel *crm.Customer, page *pancake.Page[pancake.RemoteOrder], cache choiceCache) error {
	refs, err := p.loadRefs(ctx, shop, sentinel, page)
	if err != nil {
		return err
	}

	p.ensureChoices(ctx, state, shop, page, cache)

	drafts := make([]*trade.Order, 0, len(page.Data))
	for _, rec := range page.Data {
		order, err := normalizeOrder(shop.ID, rec, refs)
		if err != nil {
			state.failed++
			continue
		}
		drafts = append(drafts, order)
	}

	out, err := reconcile(ctx, p.orders, shop.ID, drafts, (*trade.Order).RemoteID)
	state.noteOutcome(shop.PancakeID, page.Number, "sync_orders", out)
	if err != nil {
		return err
	}

	orderIDs := make([]string, 0, len(drafts))
	for _, d := range drafts {
		orderIDs = append(orderIDs, d.PancakeID)
	}
	orderMap, err := p.orderLookup.MapByPancakeID(ctx, shop.ID, orderIDs)
	if err != nil {
		return err
	}

	p.syncSatellites(ctx, state, shop, page, orderMap, refs)
	return nil
}

// loadRefs bulk-loads every lookup map one order page resolves against
func (p *OrderPipeline) loadRefs(ctx context.Context, shop *catalog.Shop, sentinel *crm.Customer, page *pancake.Page[pancake.RemoteOrder]) (orderRefs, error) {
	var customerIDs, userIDs, pageIDs, variationIDs []string
	addID := func(list *[]string, id pancake.RemoteID) {
		if id != "" {
			*list = append(*list, id.String())
		}
	}

	for _, rec := range page.Data {
		addID(&customerIDs, rec.CustomerID)
		if rec.Customer != nil {
			addID(&customerIDs, rec.Customer.ID)
		}
		addID(&pageIDs, rec.PageID)
		addID(&userIDs, rec.CreatorID)
		addID(&userIDs, rec.AssigningSellerID)
		addID(&userIDs, rec.AssigningCareID)
		addID(&userIDs, rec.MarketerID)
		addID(&userIDs, rec.LastEditorID)
		for _, h := range rec.StatusHistories {
			addID(&userIDs, h.EditorID)
		}
		for _, h := range rec.Histories {
			addID(&userIDs, h.EditorID)
		}
		for _, item := range rec.Items {
			addID(&variationIDs, item.VariationID)
		}
	}

	customers, err := p.customers.MapByPancakeID(ctx, shop.ID, customerIDs)
	if err != nil {
		return orderRefs{}, err
	}
	users, err := p.users.MapByPancakeID(ctx, userIDs)
	if err != nil {
		return orderRefs{}, err
	}
	pages, err := p.pages.MapByPancakeID(ctx, shop.ID, pageIDs)
	if err != nil {
		return orderRefs{}, err
	}
	variations, err := p.variations.MapByPancakeID(ctx, shop.ID, variationIDs)
	if err != nil {
		return orderRefs{}, err
	}

	return orderRefs{
		customers:  customers,
		users:      users,
		pages:      pages,
		variations: variations,
		sentinel:   sentinel,
	}, nil
}

// ensureChoices registers every status and source code seen on the page in
// the open-world lookup table. Failures are recorded, never fatal.
func (p *OrderPipeline) ensureChoices(ctx context.Context, state *runState, shop *catalog.Shop, page *pancake.Page[pancake.RemoteOrder], cache choiceCache) {
	ensure := func(domain string, code int, label string) {
		if cache.seen(domain, code) {
			return
		}
		if _, err := p.choices.EnsureKnown(ctx, domain, code, label); err != nil {
			state.noteError(shop.PancakeID, page.Number, "ensure_choice", err)
			return
		}
		cache.mark(domain, code)
	}

	for _, rec := range page.Data {
		ensure(syncdomain.ChoiceDomainOrderStatus, rec.Status, rec.StatusName)
		ensure(syncdomain.ChoiceDomainOrderSubStatus, rec.SubStatus, "")
		ensure(syncdomain.ChoiceDomainOrderSource, rec.OrderSource, rec.OrderSourcesName)
		for _, h := range rec.StatusHistories {
			ensure(syncdomain.ChoiceDomainOrderStatus, h.Status, "")
		}
	}
}

// syncSatellites converges the child records of every persisted order on
// the page. A failing satellite is recorded and skipped; the order row
// itself stays converged.
func (p *OrderPipeline) syncSatellites(ctx context.Context, state *runState, shop *catalog.Shop, page *pancake.Page[pancake.RemoteOrder], orderMap map[string]*trade.Order, refs orderRefs) {
	var shippingRows []*trade.OrderShippingAddress
	var warehouseRows []*trade.OrderWarehouse
	var partnerRows []*trade.OrderPartner

	for _, rec := range page.Data {
		order, ok := orderMap[rec.ID.String()]
		if !ok {
			continue
		}

		if rec.ShippingAddress != nil {
			shippingRows = append(shippingRows, normalizeShippingAddress(order.ID, *rec.ShippingAddress))
		}
		if rec.Warehouse != nil {
			warehouseRows = append(warehouseRows, normalizeWarehouse(order.ID, *rec.Warehouse))
		}
		if rec.Partner != nil {
			partnerRows = append(partnerRows, normalizePartner(order.ID, *rec.Partner))
		}

		p.syncItems(ctx, state, shop, page.Number, order.ID, rec, refs)
		p.syncHistories(ctx, state, shop, page.Number, order.ID, rec, refs)
	}

	// One-to-one satellites upsert on their order_id key, covering both
	// first arrival and refresh.
	if _, err := p.shipping.Update(ctx, shippingRows); err != nil {
		state.noteError(shop.PancakeID, page.Number, "sync_shipping_addresses", err)
	}
	if _, err := p.warehouses.Update(ctx, warehouseRows); err != nil {
		state.noteError(shop.PancakeID, page.Number, "sync_warehouses", err)
	}
	if _, err := p.partners.Update(ctx, partnerRows); err != nil {
		state.noteError(shop.PancakeID, page.Number, "sync_partners", err)
	}
}

func (p *OrderPipeline) syncItems(ctx context.Context, state *runState, shop *catalog.Shop, pageNumber int, orderID uuid.UUID, rec pancake.RemoteOrder, refs orderRefs) {
	drafts := make([]*trade.OrderItem, 0, len(rec.Items))
	for _, irec := range rec.Items {
		item, err := normalizeOrderItem(orderID, irec, refs.variations)
		if err != nil {
			continue
		}
		drafts = append(drafts, item)
	}

	out, deleted, err := replaceChildren(ctx, p.items, orderID, drafts, (*trade.OrderItem).RemoteID)
	for _, ierr := range out.Errors {
		state.noteError(shop.PancakeID, pageNumber, "sync_order_items", ierr)
	}
	if err != nil {
		state.noteError(shop.PancakeID, pageNumber, "sync_order_items", err)
		return
	}
	state.deleted += deleted
}

// syncHistories rebuilds both history sets wholesale; history entries carry
// no remote identity to reconcile on
func (p *OrderPipeline) syncHistories(ctx context.Context, state *runState, shop *catalog.Shop, pageNumber int, orderID uuid.UUID, rec pancake.RemoteOrder, refs orderRefs) {
	statusRows := make([]*trade.OrderStatusHistory, 0, len(rec.StatusHistories))
	for _, hrec := range rec.StatusHistories {
		statusRows = append(statusRows, normalizeStatusHistory(orderID, hrec, refs.users))
	}
	if err := replaceWholesale(ctx, p.statusHistories, orderID, statusRows); err != nil {
		state.noteError(shop.PancakeID, pageNumber, "sync_status_histories", err)
	}

	historyRows := make([]*trade.OrderHistory, 0, len(rec.Histories))
	for _, hrec := range rec.Histories {
		historyRows = append(historyRows, normalizeHistory(orderID, hrec, refs.users))
	}
	if err := replaceWholesale(ctx, p.histories, orderID, historyRows); err != nil {
		state.noteError(shop.PancakeID, pageNumber, "sync_order_histories", err)
	}
}

// Ensure OrderPipeline implements Pipeline
var _ Pipeline = (*OrderPipeline)(nil)
