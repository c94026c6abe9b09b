package backend

import (
	"context"
	"fmt"
	"log/slog"

	"saasboard/internal/config"
	"saasboard/internal/postgres"
	"saasboard/internal/storage"
	"saasboard/internal/warehouse/memory"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.WarehouseBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.WarehouseBackend)
	}

	return Config{
		Type:          backendType,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DatabaseURL:   appConfig.DatabaseURL,
		DataDirectory: appConfig.DataDirectory,
	}, nil
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new warehouse factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateWarehouse implements Factory.CreateWarehouse
func (f *DefaultFactory) CreateWarehouse(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteWarehouse(config)
	case PostgresBackend:
		return f.createPostgresWarehouse(ctx, config)
	case MemoryBackend:
		return f.createMemoryWarehouse(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteWarehouse(config Config) (*Result, error) {
	wh, err := storage.NewSQLiteWarehouse(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite warehouse: %w", err)
	}

	f.logger.Info("Initialized SQLite warehouse", "db_path", config.SQLiteDBPath)

	return &Result{
		Warehouse: wh,
		Cleanup:   wh.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresWarehouse(ctx context.Context, config Config) (*Result, error) {
	wh, err := postgres.NewWarehouse(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres warehouse: %w", err)
	}

	f.logger.Info("Initialized Postgres warehouse")

	return &Result{
		Warehouse: wh,
		Cleanup:   wh.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryWarehouse(config Config) (*Result, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory warehouse", "data_directory", dataDir)

	return &Result{
		Warehouse: store,
		Cleanup:   nil,
	}, nil
}
