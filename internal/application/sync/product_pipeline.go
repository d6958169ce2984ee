package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
)

// ProductPipeline mirrors products with their variations and variation
// fields. Products and variations are refreshed on every pass and never
// swept; each variation's field association set is replaced wholesale.
type ProductPipeline struct {
	source        RemoteSource
	shops         catalog.ShopRepository
	products      BulkWriter[catalog.Product]
	productLookup catalog.ProductRepository
	fields        BulkWriter[catalog.VariationField]
	variationSet  BulkWriter[catalog.Variation]
	variations    catalog.VariationRepository
	cfg           Config
	logger        *zap.Logger
}

// NewProductPipeline creates the product pipeline
func NewProductPipeline(
	source RemoteSource,
	shops catalog.ShopRepository,
	products BulkWriter[catalog.Product],
	productLookup catalog.ProductRepository,
	fields BulkWriter[catalog.VariationField],
	variationSet BulkWriter[catalog.Variation],
	variations catalog.VariationRepository,
	cfg Config,
	logger *zap.Logger,
) *ProductPipeline {
	return &ProductPipeline{
		source:        source,
		shops:         shops,
		products:      products,
		productLookup: productLookup,
		fields:        fields,
		variationSet:  variationSet,
		variations:    variations,
		cfg:           cfg,
		logger:        logger,
	}
}

// Family returns the entity family this pipeline converges
func (p *ProductPipeline) Family() syncdomain.EntityFamily {
	return syncdomain.FamilyProducts
}

// Run converges products for every shop the scope covers
func (p *ProductPipeline) Run(ctx context.Context, state *runState, scope Scope) error {
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
		err := forEachPage(shopCtx, p.cfg.PagePause,
			func(ctx context.Context, page int) (*pancake.Page[pancake.RemoteProduct], error) {
				return p.source.ListProducts(ctx, shop.PancakeID, page, p.cfg.ProductPageSize)
			},
			func(page *pancake.Page[pancake.RemoteProduct]) error {
				return p.syncPage(shopCtx, state, shop, page)
			},
			func(page int, err error) {
				state.noteError(shop.PancakeID, page, "fetch_products", err)
			},
		)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			state.noteError(shop.PancakeID, 1, "sync_products", err)
		}
		state.persist(shopCtx)
	}
	return nil
}

// syncPage converges one page of products and their embedded variations
func (p *ProductPipeline) syncPage(ctx context.Context, state *runState, shop *catalog.Shop, page *pancake.Page[pancake.RemoteProduct]) error {
	drafts := make([]*catalog.Product, 0, len(page.Data))
	for _, rec := range page.Data {
		product, err := normalizeProduct(shop.ID, rec)
		if err != nil {
			state.failed++
			continue
		}
		drafts = append(drafts, product)
	}

	out, err := reconcile(ctx, p.products, shop.ID, drafts, (*catalog.Product).RemoteID)
	state.noteOutcome(shop.PancakeID, page.Number, "sync_products", out)
	if err != nil {
		return err
	}

	productIDs := make([]string, 0, len(drafts))
	for _, d := range drafts {
		productIDs = append(productIDs, d.PancakeID)
	}
	productMap, err := p.productLookup.MapByPancakeID(ctx, shop.ID, productIDs)
	if err != nil {
		return err
	}

	return p.syncVariations(ctx, state, shop, page, productMap)
}

// syncVariations converges the variations embedded in one product page and
// replaces each variation's field set
func (p *ProductPipeline) syncVariations(ctx context.Context, state *runState, shop *catalog.Shop, page *pancake.Page[pancake.RemoteProduct], productMap map[string]*catalog.Product) error {
	fieldDrafts := make([]*catalog.VariationField, 0)
	fieldSeen := make(map[string]struct{})
	variationDrafts := make([]*catalog.Variation, 0)
	variationFields := make(map[string][]string)

	for _, rec := range page.Data {
		product, ok := productMap[rec.ID.String()]
		if !ok {
			continue
		}
		for _, vrec := range rec.Variations {
			variation, err := normalizeVariation(shop.ID, product.ID, vrec)
			if err != nil {
				state.failed++
				continue
			}
			variationDrafts = append(variationDrafts, variation)

			for _, frec := range vrec.Fields {
				field, err := normalizeVariationField(shop.ID, frec)
				if err != nil {
					continue
				}
				variationFields[variation.PancakeID] = append(variationFields[variation.PancakeID], field.PancakeID)
				if _, dup := fieldSeen[field.PancakeID]; dup {
					continue
				}
				fieldSeen[field.PancakeID] = struct{}{}
				fieldDrafts = append(fieldDrafts, field)
			}
		}
	}

	// Field rows are shared infrastructure for the association set, their
	// counters stay out of the run totals.
	fieldOut, err := reconcile(ctx, p.fields, shop.ID, fieldDrafts, (*catalog.VariationField).RemoteID)
	if err != nil {
		return err
	}
	for _, ferr := range fieldOut.Errors {
		state.noteError(shop.PancakeID, page.Number, "sync_variation_fields", ferr)
	}

	out, err := reconcile(ctx, p.variationSet, shop.ID, variationDrafts, (*catalog.Variation).RemoteID)
	state.noteOutcome(shop.PancakeID, page.Number, "sync_variations", out)
	if err != nil {
		return err
	}

	variationIDs := make([]string, 0, len(variationDrafts))
	for _, d := range variationDrafts {
		variationIDs = append(variationIDs, d.PancakeID)
	}
	variationMap, err := p.variations.MapByPancakeID(ctx, shop.ID, variationIDs)
	if err != nil {
		return err
	}

	fieldIDs := make([]string, 0, len(fieldSeen))
	for id := range fieldSeen {
		fieldIDs = append(fieldIDs, id)
	}
	fieldMap, err := p.variations.MapFieldsByPancakeID(ctx, shop.ID, fieldIDs)
	if err != nil {
		return err
	}

	for variationID, fieldRefs := range variationFields {
		variation, ok := variationMap[variationID]
		if !ok {
			continue
		}
		fields := make([]catalog.VariationField, 0, len(fieldRefs))
		for _, ref := range fieldRefs {
			if f, ok := fieldMap[ref]; ok {
				fields = append(fields, *f)
			}
		}
		if err := p.variations.ReplaceFields(ctx, variation, fields); err != nil {
			state.noteError(shop.PancakeID, page.Number, "replace_variation_fields", err)
		}
	}
	return nil
}

// Ensure ProductPipeline implements Pipeline
var _ Pipeline = (*ProductPipeline)(nil)
