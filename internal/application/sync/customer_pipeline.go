package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	"github.com/pancake-sync/backend/internal/domain/crm"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
)

// CustomerPipeline mirrors API actors and customers. Users sync first so
// customer records can resolve their creator and assignee references in the
// same pass. Each customer's address set is reconciled by set-difference.
// After every shop has converged the pipeline reattaches sentinel-held
// orders whose true customer just arrived.
type CustomerPipeline struct {
	source         RemoteSource
	shops          catalog.ShopRepository
	users          BulkWriter[crm.User]
	userLookup     crm.UserRepository
	customers      BulkWriter[crm.Customer]
	customerLookup crm.CustomerRepository
	addresses      BulkWriter[crm.CustomerAddress]
	maintenance    *Maintenance
	cfg            Config
	logger         *zap.Logger
}

// NewCustomerPipeline creates the customer pipeline
func NewCustomerPipeline(
	source RemoteSource,
	shops catalog.ShopRepository,
	users BulkWriter[crm.User],
	userLookup crm.UserRepository,
	customers BulkWriter[crm.Customer],
	customerLookup crm.CustomerRepository,
	addresses BulkWriter[crm.CustomerAddress],
	maintenance *Maintenance,
	cfg Config,
	logger *zap.Logger,
) *CustomerPipeline {
	return &CustomerPipeline{
		source:         source,
		shops:          shops,
		users:          users,
		userLookup:     userLookup,
		customers:      customers,
		customerLookup: customerLookup,
		addresses:      addresses,
		maintenance:    maintenance,
		cfg:            cfg,
		logger:         logger,
	}
}

// Family returns the entity family this pipeline converges
func (p *CustomerPipeline) Family() syncdomain.EntityFamily {
	return syncdomain.FamilyCustomers
}

// Run converges users and customers for every shop the scope covers
func (p *CustomerPipeline) Run(ctx context.Context, state *runState, scope Scope) error {
	shops, err := scopedShops(ctx, p.shops, scope)
	if err != nil {
		state.noteError("", 0, "list_shops", err)
		return nil
	}

	for i := range shops {
		if err := ctx.Err(); err != nil {
			return err
		}
		shop := &shops[i]
		shopCtx, _ := logger.WithShopID(ctx, p.logger, shop.PancakeID)
		if err := p.syncUsers(shopCtx, state, shop); err != nil {
			if ctx.Err() != nil {
				return err
			}
			state.noteError(shop.PancakeID, 1, "sync_users", err)
		}
		if err := p.syncCustomers(shopCtx, state, shop, scope.Window); err != nil {
			if ctx.Err() != nil {
				return err
			}
			state.noteError(shop.PancakeID, 1, "sync_customers", err)
		}
		state.persist(shopCtx)
	}

	// A customer arriving in this pass may be the one an earlier order
	// sync could not resolve.
	for i := range shops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := p.maintenance.ReassignAnonymousOrders(ctx, shops[i].ID); err != nil {
			state.noteError(shops[i].PancakeID, 0, "reassign_orders", err)
		}
	}
	return nil
}

func (p *CustomerPipeline) syncUsers(ctx context.Context, state *runState, shop *catalog.Shop) error {
	return forEachPage(ctx, p.cfg.PagePause,
		func(ctx context.Context, page int) (*pancake.Page[pancake.RemoteUser], error) {
			return p.source.ListUsers(ctx, shop.PancakeID, page, p.cfg.UserPageSize)
		},
		func(page *pancake.Page[pancake.RemoteUser]) error {
			drafts := make([]*crm.User, 0, len(page.Data))
			for _, rec := range page.Data {
				user, err := normalizeUser(rec)
				if err != nil {
					state.failed++
					continue
				}
				drafts = append(drafts, user)
			}
			out, err := reconcile(ctx, p.users, nil, drafts, (*crm.User).RemoteID)
			state.noteOutcome(shop.PancakeID, page.Number, "sync_users", out)
			return err
		},
		func(page int, err error) {
			state.noteError(shop.PancakeID, page, "fetch_users", err)
		},
	)
}

func (p *CustomerPipeline) syncCustomers(ctx context.Context, state *runState, shop *catalog.Shop, window *pancake.TimeWindow) error {
	return forEachPage(ctx, p.cfg.PagePause,
		func(ctx context.Context, page int) (*pancake.Page[pancake.RemoteCustomer], error) {
			return p.source.ListCustomers(ctx, shop.PancakeID, page, p.cfg.CustomerPageSize, window)
		},
		func(page *pancake.Page[pancake.RemoteCustomer]) error {
			return p.syncPage(ctx, state, shop, page)
		},
		func(page int, err error) {
			state.noteError(shop.PancakeID, page, "fetch_customers", err)
		},
	)
}

// syncPage converges one page of customers with their embedded addresses
func (p *CustomerPipeline) syncPage(ctx context.Context, state *runState, shop *catalog.Shop, page *pancake.Page[pancake.RemoteCustomer]) error {
	userIDs := make([]string, 0, len(page.Data)*2)
	for _, rec := range page.Data {
		if rec.CreatorID != "" {
			userIDs = append(userIDs, rec.CreatorID.String())
		}
		if rec.AssignedUserID != "" {
			userIDs = append(userIDs, rec.AssignedUserID.String())
		}
	}
	userMap, err := p.userLookup.MapByPancakeID(ctx, userIDs)
	if err != nil {
		return err
	}

	drafts := make([]*crm.Customer, 0, len(page.Data))
	for _, rec := range page.Data {
		customer, err := normalizeCustomer(shop.ID, rec, userMap)
		if err != nil {
			state.failed++
			continue
		}
		drafts = append(drafts, customer)
	}

	out, err := reconcile(ctx, p.customers, shop.ID, drafts, (*crm.Customer).RemoteID)
	state.noteOutcome(shop.PancakeID, page.Number, "sync_customers", out)
	if err != nil {
		return err
	}

	customerIDs := make([]string, 0, len(drafts))
	for _, d := range drafts {
		customerIDs = append(customerIDs, d.PancakeID)
	}
	customerMap, err := p.customerLookup.MapByPancakeID(ctx, shop.ID, customerIDs)
	if err != nil {
		return err
	}

	for _, rec := range page.Data {
		customer, ok := customerMap[rec.ID.String()]
		if !ok {
			continue
		}
		addressDrafts := make([]*crm.CustomerAddress, 0, len(rec.Addresses))
		for _, arec := range rec.Addresses {
			address, err := normalizeAddress(customer.ID, arec)
			if err != nil {
				continue
			}
			addressDrafts = append(addressDrafts, address)
		}
		addrOut, deleted, err := replaceChildren(ctx, p.addresses, customer.ID, addressDrafts, (*crm.CustomerAddress).RemoteID)
		for _, aerr := range addrOut.Errors {
			state.noteError(shop.PancakeID, page.Number, "sync_addresses", aerr)
		}
		if err != nil {
			state.noteError(shop.PancakeID, page.Number, "sync_addresses", err)
			continue
		}
		state.deleted += deleted
	}
	return nil
}

// Ensure CustomerPipeline implements Pipeline
var _ Pipeline = (*CustomerPipeline)(nil)
