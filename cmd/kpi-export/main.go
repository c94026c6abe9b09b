package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"saasboard/internal/backend"
	"saasboard/internal/config"
	"saasboard/internal/core"
	"saasboard/internal/export"
	"saasboard/internal/export/sheets"
	applog "saasboard/internal/log"
	"saasboard/internal/metrics"
	"saasboard/internal/warehouse"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "kpi-export"})
	applog.SetDefault(logger)

	var (
		monthFlag   = flag.String("month", "", "anchor month as YYYY-MM (default: latest month with data)")
		rangeFlag   = flag.String("range", string(core.Last12M), "time range: 'Last 12M', 'YTD', 'QTD' or 'All'")
		productFlag = flag.String("product", "", "restrict to one product id")
		countryFlag = flag.String("country", "", "restrict to one country")
	)
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.ExportSpreadsheetID == "" {
		logger.Error("EXPORT_SPREADSHEET_ID is required")
		os.Exit(1)
	}

	var anchor core.MonthKey
	if *monthFlag != "" {
		var err error
		anchor, err = core.ParseMonthKey(*monthFlag)
		if err != nil {
			logger.Error("Invalid month flag", "error", err, "month", *monthFlag)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Backend configuration failed", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateWarehouse(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize warehouse", "error", err, "backend", cfg.WarehouseBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Warehouse cleanup error", "error", err)
			}
		}()
	}

	writer, err := sheets.NewFromEnv(ctx, cfg.ExportSpreadsheetID, cfg.ExportSheetName)
	if err != nil {
		logger.Error("Failed to initialize Sheets writer", "error", err)
		os.Exit(1)
	}

	exporter := export.NewExporter(metrics.NewService(result.Warehouse), writer)

	filters := warehouse.Filters{
		ProductID: *productFlag,
		Country:   *countryFlag,
	}
	if err := exporter.Run(ctx, filters, core.RangeSelector(*rangeFlag), anchor); err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Export completed",
		"spreadsheet_id", cfg.ExportSpreadsheetID,
		"sheet", cfg.ExportSheetName)
}
