package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"saasboard/internal/core"
	"saasboard/internal/metrics"
	"saasboard/internal/warehouse"
)

// Exporter computes a KPI snapshot and hands it to a SnapshotWriter.
type Exporter struct {
	svc    *metrics.Service
	writer SnapshotWriter
}

func NewExporter(svc *metrics.Service, writer SnapshotWriter) *Exporter {
	return &Exporter{svc: svc, writer: writer}
}

// Run snapshots the KPIs for the given anchor month and range. A zero anchor
// means the latest month with data.
func (e *Exporter) Run(ctx context.Context, f warehouse.Filters, selector core.RangeSelector, anchor core.MonthKey) error {
	kpis, err := e.svc.ExecOverviewKpis(ctx, f, selector, anchor)
	if err != nil {
		return fmt.Errorf("compute kpis: %w", err)
	}

	snap := Snapshot{
		GeneratedAt: time.Now(),
		Month:       anchor,
		Range:       selector,
		Kpis:        kpis,
	}

	if err := e.writer.AppendSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Exported KPI snapshot",
		"month", anchor.String(),
		"range", string(selector),
		"arr", kpis.ARR)
	return nil
}
