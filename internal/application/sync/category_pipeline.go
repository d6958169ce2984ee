package sync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
)

// CategoryPipeline mirrors the two-level category tree of every shop.
// Roots converge before their nodes so children always reference a
// persisted parent. The sweep runs on the flattened keep list, so removing
// a parent remotely removes its children locally in the same pass.
type CategoryPipeline struct {
	source     RemoteSource
	shops      catalog.ShopRepository
	categories catalog.CategoryRepository
	cfg        Config
	logger     *zap.Logger
}

// NewCategoryPipeline creates the category pipeline
func NewCategoryPipeline(
	source RemoteSource,
	shops catalog.ShopRepository,
	categories catalog.CategoryRepository,
	cfg Config,
	logger *zap.Logger,
) *CategoryPipeline {
	return &CategoryPipeline{source: source, shops: shops, categories: categories, cfg: cfg, logger: logger}
}

// Family returns the entity family this pipeline converges
func (p *CategoryPipeline) Family() syncdomain.EntityFamily {
	return syncdomain.FamilyCategories
}

// Run converges categories for every shop the scope covers. A failing shop
// is recorded and skipped; the remaining shops still sync.
func (p *CategoryPipeline) Run(ctx context.Context, state *runState, scope Scope) error {
	shops, err := scopedShops(ctx, p.shops, scope)
	if err != nil {
		state.noteError("", 0, "list_shops", err)
		return nil
	}

	for i := range shops {
		if err := ctx.Err(); err != nil {
			return err
		}
		shopCtx, _ := logger.WithShopID(ctx, p.logger, shops[i].PancakeID)
		if err := p.syncShop(shopCtx, state, &shops[i]); err != nil {
			if ctx.Err() != nil {
				return err
			}
			state.noteError(shops[i].PancakeID, 0, "sync_categories", err)
		}
		state.persist(shopCtx)
	}
	return nil
}

func (p *CategoryPipeline) syncShop(ctx context.Context, state *runState, shop *catalog.Shop) error {
	var keep []string
	pageFailed := false

	err := forEachPage(ctx, p.cfg.PagePause,
		func(ctx context.Context, page int) (*pancake.Page[pancake.RemoteCategory], error) {
			return p.source.ListCategories(ctx, shop.PancakeID, page, p.cfg.CategoryPageSize)
		},
		func(page *pancake.Page[pancake.RemoteCategory]) error {
			seen, err := p.syncPage(ctx, state, shop, page)
			keep = append(keep, seen...)
			return err
		},
		func(page int, err error) {
			pageFailed = true
			state.noteError(shop.PancakeID, page, "fetch_categories", err)
		},
	)
	if err != nil {
		return err
	}

	// The sweep only runs on a complete view of the remote tree. A failed
	// page would otherwise look like a mass removal.
	if pageFailed {
		return nil
	}

	deleted, err := p.categories.DeleteWherePancakeIDNotIn(ctx, shop.ID, keep)
	if err != nil {
		state.noteError(shop.PancakeID, 0, "sweep_categories", err)
		return nil
	}
	state.deleted += deleted
	return nil
}

// syncPage converges one page of root categories and their nodes, returning
// the flattened remote ids it saw
func (p *CategoryPipeline) syncPage(ctx context.Context, state *runState, shop *catalog.Shop, page *pancake.Page[pancake.RemoteCategory]) ([]string, error) {
	ids := make([]string, 0, len(page.Data)*2)
	for _, root := range page.Data {
		if root.ID != "" {
			ids = append(ids, root.ID.String())
		}
		for _, node := range root.Nodes {
			if node.ID != "" {
				ids = append(ids, node.ID.String())
			}
		}
	}

	existing, err := p.categories.MapByPancakeID(ctx, shop.ID, ids)
	if err != nil {
		return nil, err
	}

	var seen []string
	for _, root := range page.Data {
		parentLocal := p.upsert(ctx, state, shop, existing, root, nil)
		if parentLocal == nil {
			continue
		}
		seen = append(seen, root.ID.String())
		for _, node := range root.Nodes {
			if p.upsert(ctx, state, shop, existing, node, parentLocal) != nil {
				seen = append(seen, node.ID.String())
			}
		}
	}
	return seen, nil
}

// upsert converges one category record and returns its local id, nil when
// the record could not be persisted
func (p *CategoryPipeline) upsert(ctx context.Context, state *runState, shop *catalog.Shop, existing map[string]*catalog.Category, rec pancake.RemoteCategory, parentID *uuid.UUID) *uuid.UUID {
	draft, err := normalizeCategory(shop.ID, rec, parentID)
	if err != nil {
		state.failed++
		return nil
	}

	if current, ok := existing[draft.PancakeID]; ok {
		current.Name = draft.Name
		current.ParentID = draft.ParentID
		current.Touch()
		if err := p.categories.Save(ctx, current); err != nil {
			state.failed++
			state.noteError(shop.PancakeID, 0, "update_category", err)
			return nil
		}
		state.updated++
		return &current.ID
	}

	if err := p.categories.Save(ctx, draft); err != nil {
		state.failed++
		state.noteError(shop.PancakeID, 0, "create_category", err)
		return nil
	}
	existing[draft.PancakeID] = draft
	state.created++
	return &draft.ID
}
