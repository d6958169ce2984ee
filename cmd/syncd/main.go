package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appsync "github.com/pancake-sync/backend/internal/application/sync"
	"github.com/pancake-sync/backend/internal/infrastructure/cache"
	"github.com/pancake-sync/backend/internal/infrastructure/config"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/pancake"
	"github.com/pancake-sync/backend/internal/infrastructure/persistence"
	"github.com/pancake-sync/backend/internal/infrastructure/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Pancake Sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis progress sink; the engine degrades to local-only operation if
	// Redis is unreachable
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
		defer func() {
			if err := sink.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
	}

	// Remote API client
	client := pancake.NewClient(pancake.Config{
		BaseURL:       cfg.Pancake.BaseURL,
		APIKey:        cfg.Pancake.APIKey,
		Timeout:       cfg.Pancake.Timeout,
		RetryAttempts: cfg.Pancake.RetryAttempts,
		RetryDelay:    cfg.Pancake.RetryDelay,
	}, log)

	// Initialize repositories
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

	// Bulk reconciliation sets
	pageSet := persistence.NewPageBulkSet(db.DB)
	tagSet := persistence.NewTagBulkSet(db.DB)
	productSet := persistence.NewProductBulkSet(db.DB)
	fieldSet := persistence.NewVariationFieldBulkSet(db.DB)
	variationSet := persistence.NewVariationBulkSet(db.DB)
	userSet := persistence.NewUserBulkSet(db.DB)
	customerSet := persistence.NewCustomerBulkSet(db.DB)
	addressSet := persistence.NewCustomerAddressBulkSet(db.DB)
	orderSet := persistence.NewOrderBulkSet(db.DB)
	itemSet := persistence.NewOrderItemBulkSet(db.DB)
	shippingSet := persistence.NewShippingAddressBulkSet(db.DB)
	warehouseSet := persistence.NewWarehouseBulkSet(db.DB)
	partnerSet := persistence.NewPartnerBulkSet(db.DB)
	statusHistorySet := persistence.NewStatusHistoryBulkSet(db.DB)
	orderHistorySet := persistence.NewOrderHistoryBulkSet(db.DB)

	// Pipelines
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
		appsync.NewShopPipeline(client, shopRepo, pageSet, tagSet, log),
		appsync.NewCategoryPipeline(client, shopRepo, categoryRepo, pipelineCfg, log),
		appsync.NewProductPipeline(client, shopRepo, productSet, productRepo, fieldSet, variationSet, variationRepo, pipelineCfg, log),
		appsync.NewCustomerPipeline(client, shopRepo, userSet, userRepo, customerSet, customerRepo, addressSet, maintenance, pipelineCfg, log),
		appsync.NewOrderPipeline(appsync.OrderPipelineDeps{
			Source:          client,
			Shops:           shopRepo,
			Pages:           pageRepo,
			Variations:      variationRepo,
			Users:           userRepo,
			Customers:       customerRepo,
			Choices:         choiceRepo,
			Orders:          orderSet,
			OrderLookup:     orderRepo,
			Items:           itemSet,
			Shipping:        shippingSet,
			Warehouses:      warehouseSet,
			Partners:        partnerSet,
			StatusHistories: statusHistorySet,
			Histories:       orderHistorySet,
		}, pipelineCfg, log),
	}

	orchestrator := appsync.NewOrchestrator(runRepo, shopRepo, progress, pipelines, log)

	// Reclassify runs abandoned by a previous process before scheduling
	// new ones
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := maintenance.SweepStaleRuns(ctx); err != nil {
		log.Warn("startup stale run sweep failed", zap.Error(err))
	}

	if !cfg.Sync.Enabled {
		log.Info("Sync disabled by configuration, running one sweep and exiting")
		if _, err := orchestrator.SyncAll(ctx); err != nil {
			log.Error("sync sweep failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	trigger := scheduler.NewSyncTrigger(scheduler.Config{
		Interval:         cfg.Sync.Interval,
		MaintenanceEvery: cfg.Sync.MaintenanceEvery,
	}, orchestrator, maintenance, log)

	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start sync trigger", zap.Error(err))
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := trigger.Stop(stopCtx); err != nil {
		log.Error("Sync trigger did not stop cleanly", zap.Error(err))
	}
}
