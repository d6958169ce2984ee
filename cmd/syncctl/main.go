package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	appsync "github.com/pancake-sync/backend/internal/application/sync"
	"github.com/pancake-sync/backend/internal/domain/catalog"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/infrastructure/cache"
	"github.com/pancake-sync/backend/internal/infrastructure/config"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
	"github.com/pancake-sync/backend/internal/infrastructure/persistence"
)

func main() {
	var (
		logLevel string
		limit    int
		shopID   string
	)
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.IntVar(&limit, "limit", 10, "How many runs to show for the status command")
	flag.StringVar(&shopID, "shop", "", "Limit the sync command to one shop by remote id (requires a family)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	engine, err := buildEngine(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize", zap.Error(err))
	}
	defer engine.close()

	ctx := context.Background()
	switch command {
	case "sync":
		runSync(ctx, engine, args[1:], shopID, log)
	case "status":
		runStatus(ctx, engine, limit)
	case "reassign":
		runReassign(ctx, engine, log)
	case "purge":
		runPurge(ctx, engine, log)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: syncctl [flags] <command>

Commands:
  sync [family]   Run one sync pass (family: shops, categories, products,
                  customers, orders; default: all families in order)
  status          Show recent sync runs
  reassign        Reattach sentinel-held orders whose customer has arrived
  purge           Remove terminal runs past the retention window

Flags:
  -log-level      Log level (default: warn)
  -limit          Runs to show for status (default: 10)
  -shop           Limit sync to one shop by remote id (requires a family)`)
}

func runSync(ctx context.Context, e *engine, args []string, shopID string, log *zap.Logger) {
	if len(args) == 0 {
		if shopID != "" {
			fmt.Fprintln(os.Stderr, "The -shop flag requires an entity family")
			os.Exit(1)
		}
		summaries, err := e.orchestrator.SyncAll(ctx)
		if err != nil {
			log.Fatal("Sync failed", zap.Error(err))
		}
		for _, s := range summaries {
			printSummary(s)
		}
		return
	}

	family := syncdomain.EntityFamily(args[0])
	if !family.IsValid() {
		fmt.Fprintf(os.Stderr, "Unknown entity family: %s\n", args[0])
		os.Exit(1)
	}
	summary, err := e.orchestrator.SyncFamilyScoped(ctx, family, shopID)
	if err != nil {
		log.Fatal("Sync failed", zap.Error(err))
	}
	printSummary(summary)
}

func printSummary(s appsync.Summary) {
	fmt.Printf("%-12s created=%d updated=%d failed=%d deleted=%d errors=%d success=%t\n",
		s.Family, s.Created, s.Updated, s.Failed, s.Deleted, s.Errors, s.Success)
}

func runStatus(ctx context.Context, e *engine, limit int) {
	runs, err := e.runs.FindRecent(ctx, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load runs: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FAMILY\tSTATUS\tCREATED\tUPDATED\tFAILED\tERRORS\tSTARTED\tDURATION")
	for i := range runs {
		run := &runs[i]
		started := "-"
		if run.StartedAt != nil {
			started = run.StartedAt.Format("2006-01-02 15:04:05")
		}
		detail, _ := run.ErrorDetail()
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%.1fs\n",
			run.EntityFamily, run.Status,
			run.Created, run.Updated, run.Failed, detail.Total,
			started, run.DurationSecs)
	}
	w.Flush()

	printLiveProgress(ctx, os.Stdout, runs, e.progress)
}

// progressReader is the slice of the progress sink the status command reads
type progressReader interface {
	ReadProgress(ctx context.Context, family string) (map[string]string, error)
}

// printLiveProgress appends the in-flight counters of running families. The
// counters come from the progress sink, so a daemon's live progress shows
// here without waiting for its next database flush.
func printLiveProgress(ctx context.Context, w io.Writer, runs []syncdomain.SyncRun, reader progressReader) {
	if reader == nil {
		return
	}
	seen := make(map[syncdomain.EntityFamily]struct{})
	for i := range runs {
		run := &runs[i]
		if run.Status != syncdomain.RunStatusRunning {
			continue
		}
		if _, dup := seen[run.EntityFamily]; dup {
			continue
		}
		seen[run.EntityFamily] = struct{}{}

		values, err := reader.ReadProgress(ctx, string(run.EntityFamily))
		if err != nil || len(values) == 0 {
			continue
		}
		fmt.Fprintf(w, "live %s: created=%s updated=%s failed=%s errors=%s\n",
			run.EntityFamily,
			values["created"], values["updated"], values["failed"], values["errors"])
	}
}

func runReassign(ctx context.Context, e *engine, log *zap.Logger) {
	shops, err := e.shops.FindAll(ctx)
	if err != nil {
		log.Fatal("Failed to list shops", zap.Error(err))
	}
	total := 0
	for i := range shops {
		n, err := e.maintenance.ReassignAnonymousOrders(ctx, shops[i].ID)
		if err != nil {
			log.Error("Reassignment failed",
				zap.String("shop", shops[i].PancakeID), zap.Error(err))
			continue
		}
		total += n
	}
	fmt.Printf("reassigned %d orders\n", total)
}

func runPurge(ctx context.Context, e *engine, log *zap.Logger) {
	n, err := e.maintenance.PurgeOldRuns(ctx)
	if err != nil {
		log.Fatal("Purge failed", zap.Error(err))
	}
	fmt.Printf("purged %d runs\n", n)
}

// engine bundles the wired components a syncctl command may need
type engine struct {
	orchestrator *appsync.Orchestrator
	maintenance  *appsync.Maintenance
	runs         syncdomain.SyncRunRepository
	shops        catalog.ShopRepository
	progress     progressReader
	closers      []func() error
}

func (e *engine) close() {
	for _, fn := range e.closers {
		_ = fn()
	}
}

// buildEngine wires the full sync engine the same way syncd does
func buildEngine(cfg *config.Config, log *zap.Logger) (*engine, error) {
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, err
	}

	e := &engine{closers: []func() error{db.Close}}

	var progress appsync.ProgressSink
	sink, err := cache.NewRedisProgressSink(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, running without progress sink", zap.Error(err))
	} else {
		progress = sink
		e.progress = sink
		e.closers = append(e.closers, sink.Close)
	}

	client := pancake.NewClient(pancake.Config{
		BaseURL:       cfg.Pancake.BaseURL,
		APIKey:        cfg.Pancake.APIKey,
		Timeout:       cfg.Pancake.Timeout,
		RetryAttempts: cfg.Pancake.RetryAttempts,
		RetryDelay:    cfg.Pancake.RetryDelay,
	}, log)

	shopRepo := persistence.NewGormShopRepository(db.DB)
	pageRepo := persistence.NewGormPageRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	variationRepo := persistence.NewGormVariationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	runRepo := persistence.NewGormSyncRunRepository(db.DB)
	choiceRepo := persistence.NewGormChoiceValueRepository(db.DB)

	pipelineCfg := appsync.Config{
		CategoryPageSize: cfg.Sync.CategoryPageSize,
		ProductPageSize:  cfg.Sync.ProductPageSize,
		UserPageSize:     cfg.Sync.UserPageSize,
		CustomerPageSize: cfg.Sync.CustomerPageSize,
		OrderPageSize:    cfg.Sync.OrderPageSize,
		PagePause:        cfg.Sync.PagePause,
	}

	maintenance := appsync.NewMaintenance(orderRepo, customerRepo, runRepo, log)

	pipelines := []appsync.Pipeline{
		appsync.NewShopPipeline(client, shopRepo, persistence.NewPageBulkSet(db.DB), persistence.NewTagBulkSet(db.DB), log),
		appsync.NewCategoryPipeline(client, shopRepo, categoryRepo, pipelineCfg, log),
		appsync.NewProductPipeline(client, shopRepo,
			persistence.NewProductBulkSet(db.DB), productRepo,
			persistence.NewVariationFieldBulkSet(db.DB),
			persistence.NewVariationBulkSet(db.DB), variationRepo,
			pipelineCfg, log),
		appsync.NewCustomerPipeline(client, shopRepo,
			persistence.NewUserBulkSet(db.DB), userRepo,
			persistence.NewCustomerBulkSet(db.DB), customerRepo,
			persistence.NewCustomerAddressBulkSet(db.DB),
			maintenance, pipelineCfg, log),
		appsync.NewOrderPipeline(appsync.OrderPipelineDeps{
			Source:          client,
			Shops:           shopRepo,
			Pages:           pageRepo,
			Variations:      variationRepo,
			Users:           userRepo,
			Customers:       customerRepo,
			Choices:         choiceRepo,
			Orders:          persistence.NewOrderBulkSet(db.DB),
			OrderLookup:     orderRepo,
			Items:           persistence.NewOrderItemBulkSet(db.DB),
			Shipping:        persistence.NewShippingAddressBulkSet(db.DB),
			Warehouses:      persistence.NewWarehouseBulkSet(db.DB),
			Partners:        persistence.NewPartnerBulkSet(db.DB),
			StatusHistories: persistence.NewStatusHistoryBulkSet(db.DB),
			Histories:       persistence.NewOrderHistoryBulkSet(db.DB),
		}, pipelineCfg, log),
	}

	e.orchestrator = appsync.NewOrchestrator(runRepo, shopRepo, progress, pipelines, log)
	e.maintenance = maintenance
	e.runs = runRepo
	e.shops = shopRepo
	return e, nil
}
