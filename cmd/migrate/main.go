package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pancake-sync/backend/internal/domain/catalog"
	"github.com/pancake-sync/backend/internal/domain/crm"
	syncdomain "github.com/pancake-sync/backend/internal/domain/sync"
	"github.com/pancake-sync/backend/internal/domain/trade"
	"github.com/pancake-sync/backend/internal/infrastructure/config"
	"github.com/pancake-sync/backend/internal/infrastructure/logger"
	"github.com/pancake-sync/backend/internal/infrastructure/persistence"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	log.Info("Running schema migration",
		zap.String("database", cfg.Database.DBName),
		zap.String("host", cfg.Database.Host),
	)

	err = db.DB.AutoMigrate(
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
		&trade.OrderShippingAddress{},
		&trade.OrderWarehouse{},
		&trade.OrderPartner{},
		&trade.OrderItem{},
		&trade.OrderStatusHistory{},
		&trade.OrderHistory{},
		&syncdomain.SyncRun{},
		&syncdomain.ChoiceValue{},
	)
	if err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	log.Info("Migration completed successfully")
}
