package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/charcosud/inventory-agent/config"
	catUCPkg "github.com/charcosud/inventory-agent/internal/catalog/usecase"
	"github.com/charcosud/inventory-agent/internal/connectivity"
	"github.com/charcosud/inventory-agent/internal/remote/httpapi"
	replicaRepoPkg "github.com/charcosud/inventory-agent/internal/replica/repository"
	"github.com/charcosud/inventory-agent/internal/syncer"
	syncUCPkg "github.com/charcosud/inventory-agent/internal/syncer/usecase"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	appLogger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	// 3. Open Local Replica
	db, err := replicaRepoPkg.Open(cfg.Replica.SQLitePath)
	if err != nil {
		appLogger.Fatal("Could not open replica database", zap.Error(err))
	}
	defer db.Close()

	repo, err := replicaRepoPkg.NewSQLiteRepository(db)
	if err != nil {
		appLogger.Fatal("Could not initialize replica schema", zap.Error(err))
	}
	appLogger.Info("Opened local replica", zap.String("path", cfg.Replica.SQLitePath))

	// 4. Initialize Remote Adapter
	token := func(ctx context.Context) (string, error) { return cfg.Remote.APIToken, nil }
	adapter := httpapi.NewClient(
		cfg.Remote.BaseURL,
		time.Duration(cfg.Remote.TimeoutSeconds)*time.Second,
		token,
		appLogger,
	)

	// 5. Initialize Connectivity Monitor
	prober := connectivity.NewHTTPProber(
		cfg.Remote.BaseURL+"/healthz",
		time.Duration(cfg.Sync.ProbeTimeoutSeconds)*time.Second,
	)
	monitor := connectivity.NewPollingMonitor(
		prober,
		time.Duration(cfg.Sync.ProbeIntervalSeconds)*time.Second,
		appLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	monitor.Start(ctx)
	defer monitor.Stop()

	// 6. Initialize UseCases
	catalogUC := catUCPkg.NewCatalogUseCase(repo, adapter, monitor, appLogger)
	manager := syncUCPkg.NewSyncManager(repo, adapter, monitor, syncUCPkg.Config{
		StalenessThreshold: time.Duration(cfg.Sync.StalenessHours) * time.Hour,
	}, appLogger)

	unsubscribe := manager.Subscribe(func(ev syncer.Event) {
		switch e := ev.(type) {
		case syncer.ErrorEvent:
			appLogger.Warn("sync cycle finished with failures",
				zap.Int("synced", e.Synced), zap.Int("failed", e.Failed))
		default:
			appLogger.Info("sync event", zap.String("event", ev.String()))
		}
	})
	defer unsubscribe()

	if err := manager.Start(ctx); err != nil {
		appLogger.Fatal("Could not start reconciliation manager", zap.Error(err))
	}
	defer manager.Stop()

	appLogger.Info("Inventory agent started",
		zap.String("remote", cfg.Remote.BaseURL),
		zap.Bool("online", monitor.Online()))

	if lowStock, err := catalogUC.ListLowStock(ctx); err == nil && len(lowStock) > 0 {
		for _, p := range lowStock {
			appLogger.Warn("product at or below minimum stock",
				zap.String("sku", p.SKU),
				zap.String("name", p.Name),
				zap.String("stock", p.CurrentStock.String()),
				zap.String("min_stock", p.MinStock.String()))
		}
	}

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down agent...")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Server.AppEnv == "development" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Encoding = cfg.Logger.Encoding
	if level, err := zapcore.ParseLevel(cfg.Logger.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	zcfg.DisableCaller = cfg.Logger.DisableCaller
	zcfg.DisableStacktrace = cfg.Logger.DisableStacktrace
	return zcfg.Build()
}
