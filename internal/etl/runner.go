package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"saasboard/internal/amqp"
	"saasboard/internal/warehouse"
)

// RefreshPublisher announces finished loads to downstream consumers.
type RefreshPublisher interface {
	PublishWarehouseRefresh(ctx context.Context, msg *amqp.WarehouseRefreshMessage) error
}

// Runner performs one full warehouse refresh: read the CSV drop, swap the
// warehouse contents, announce the refresh.
type Runner struct {
	dir       string
	loader    warehouse.Loader
	publisher RefreshPublisher // optional
}

func NewRunner(dir string, loader warehouse.Loader, publisher RefreshPublisher) *Runner {
	return &Runner{dir: dir, loader: loader, publisher: publisher}
}

// Run executes the load. The warehouse is only touched when the whole CSV
// drop parsed cleanly.
func (r *Runner) Run(ctx context.Context) error {
	set, err := ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("read load set: %w", err)
	}
	if len(set.Revenue) == 0 {
		return errors.New("load set has no revenue rows")
	}

	if err := r.loader.ReplaceAll(ctx, set); err != nil {
		return fmt.Errorf("load warehouse: %w", err)
	}

	slog.InfoContext(ctx, "Warehouse refresh loaded",
		"dir", r.dir,
		"revenue_rows", len(set.Revenue),
		"cost_rows", len(set.Costs),
		"cash_rows", len(set.Cash))

	if r.publisher != nil {
		msg := amqp.NewWarehouseRefreshMessage("warehouse-load",
			"fact_subscription_monthly", "fact_cost_monthly", "fact_cash_monthly")
		if err := r.publisher.PublishWarehouseRefresh(ctx, msg); err != nil {
			// The data is in; a missed notification only delays cache expiry.
			slog.WarnContext(ctx, "Failed to publish refresh event", "error", err)
		}
	}

	return nil
}
