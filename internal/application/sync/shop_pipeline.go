package sync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	"github.com/pancake-sync/backend/internal/domain/shared"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
)

// ShopPipeline mirrors the tenant listing. Shops are upserted by remote id
// and never swept; the pages and tags embedded in each shop record are
// reconciled by set-difference under the shop scope.
type ShopPipeline struct {
	source RemoteSource
	shops  catalog.ShopRepository
	pages  BulkWriter[catalog.Page]
	tags   BulkWriter[catalog.Tag]
	logger *zap.Logger
}

// NewShopPipeline creates the shop pipeline
func NewShopPipeline(
	source RemoteSource,
	shops catalog.ShopRepository,
	pages BulkWriter[catalog.Page],
	tags BulkWriter[catalog.Tag],
	logger *zap.Logger,
) *ShopPipeline {
	return &ShopPipeline{source: source, shops: shops, pages: pages, tags: tags, logger: logger}
}

// Family returns the entity family this pipeline converges
func (p *ShopPipeline) Family() syncdomain.EntityFamily {
	return syncdomain.FamilyShops
}

// Run converges the local shop set against the remote tenant listing
func (p *ShopPipeline) Run(ctx context.Context, state *runState, scope Scope) error {
	remote, err := p.source.ListShops(ctx)
	if err != nil {
		state.noteError("", 0, "list_shops", err)
		return nil
	}

	for _, rec := range remote {
		if err := ctx.Err(); err != nil {
			return err
		}
		if scope.ShopID != "" && rec.ID.String() != scope.ShopID {
			continue
		}
		p.syncShop(ctx, state, rec)
	}
	state.persist(ctx)
	return nil
}

func (p *ShopPipeline) syncShop(ctx context.Context, state *runState, rec pancake.RemoteShop) {
	remoteID := rec.ID.String()
	if remoteID == "" {
		state.failed++
		state.noteError("", 0, "upsert_shop", errMissingRemoteID)
		return
	}
	ctx, shopLogger := logger.WithShopID(ctx, p.logger, remoteID)

	shop, err := p.shops.FindByPancakeID(ctx, remoteID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		state.failed++
		state.noteError(remoteID, 0, "lookup_shop", err)
		return
	}

	if shop == nil {
		shop, err = catalog.NewShop(remoteID, rec.Name)
		if err != nil {
			state.failed++
			state.noteError(remoteID, 0, "upsert_shop", err)
			return
		}
		shop.Currency = rec.Currency
		shop.AvatarURL = rec.AvatarURL
		if err := p.shops.Save(ctx, shop); err != nil {
			state.failed++
			state.noteError(remoteID, 0, "upsert_shop", err)
			return
		}
		state.created++
	} else {
		shop.Name = rec.Name
		shop.Currency = rec.Currency
		shop.AvatarURL = rec.AvatarURL
		shop.Touch()
		if err := p.shops.Save(ctx, shop); err != nil {
			state.failed++
			state.noteError(remoteID, 0, "upsert_shop", err)
			return
		}
		state.updated++
	}

	p.syncPages(ctx, state, shop, rec.Pages)
	p.syncTags(ctx, state, shop, rec.Tags)

	shop.MarkSynced(time.Now())
	if err := p.shops.UpdateLastSyncAt(ctx, shop.ID, *shop.LastSyncAt); err != nil {
		shopLogger.Warn("failed to stamp shop sync time", zap.Error(err))
	}
}

func (p *ShopPipeline) syncPages(ctx context.Context, state *runState, shop *catalog.Shop, records []pancake.RemotePage) {
	drafts := make([]*catalog.Page, 0, len(records))
	for _, rec := range records {
		page, err := normalizePage(shop.ID, rec)
		if err != nil {
			state.failed++
			continue
		}
		drafts = append(drafts, page)
	}

	out, deleted, err := replaceChildren(ctx, p.pages, shop.ID, drafts, (*catalog.Page).RemoteID)
	state.noteOutcome(shop.PancakeID, 0, "sync_pages", out)
	if err != nil {
		state.noteError(shop.PancakeID, 0, "sync_pages", err)
		return
	}
	state.deleted += deleted
}

func (p *ShopPipeline) syncTags(ctx context.Context, state *runState, shop *catalog.Shop, records []pancake.RemoteTag) {
	drafts := make([]*catalog.Tag, 0, len(records))
	for _, rec := range records {
		tag, err := normalizeTag(shop.ID, rec)
		if err != nil {
			state.failed++
			continue
		}
		drafts = append(drafts, tag)
	}

	out, deleted, err := replaceChildren(ctx, p.tags, shop.ID, drafts, (*catalog.Tag).RemoteID)
	state.noteOutcome(shop.PancakeID, 0, "sync_tags", out)
	if err != nil {
		state.noteError(shop.PancakeID, 0, "sync_tags", err)
		return
	}
	state.deleted += deleted
}

// Ensure ShopPipeline implements Pipeline
var _ Pipeline = (*ShopPipeline)(nil)
