package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"saasboard/internal/amqp"
	"saasboard/internal/backend"
	"saasboard/internal/config"
	"saasboard/internal/etl"
	applog "saasboard/internal/log"
	"saasboard/internal/warehouse"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "warehouse-load"})
	applog.SetDefault(logger)

	dirFlag := flag.String("dir", "", "directory with revenue.csv, costs.csv and cash.csv (default: DATA_DIRECTORY)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	dir := *dirFlag
	if dir == "" {
		dir = cfg.DataDirectory
	}

	loader, cleanup, err := openLoader(cfg)
	if err != nil {
		logger.Error("Failed to open warehouse for loading", "error", err, "backend", cfg.WarehouseBackend)
		os.Exit(1)
	}
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				logger.Error("Warehouse cleanup error", "error", err)
			}
		}()
	}

	var publisher etl.RefreshPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, loading without refresh event", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	runner := etl.NewRunner(dir, loader, publisher)
	if err := runner.Run(ctx); err != nil {
		logger.Error("Warehouse load failed", "error", err, "dir", dir)
		os.Exit(1)
	}

	logger.Info("Warehouse load finished", "dir", dir, "backend", cfg.WarehouseBackend)
}

// openLoader opens the configured backend as a load target. The memory
// backend is per-process, so loading into it from a CLI makes no sense.
func openLoader(cfg *config.Config) (warehouse.Loader, backend.CleanupFunc, error) {
	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	if backendConfig.Type == backend.MemoryBackend {
		return nil, nil, fmt.Errorf("memory backend cannot be loaded externally; set WAREHOUSE_BACKEND to sqlite or postgres")
	}

	factory := backend.NewFactory(nil)
	result, err := factory.CreateWarehouse(context.Background(), backendConfig)
	if err != nil {
		return nil, nil, err
	}

	loader, ok := result.Warehouse.(warehouse.Loader)
	if !ok {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
		return nil, nil, fmt.Errorf("backend %s does not support loading", backendConfig.Type)
	}
	return loader, result.Cleanup, nil
}
