package export

import (
	"context"
	"time"

	"saasboard/internal/core"
)

// Snapshot is one exported row of board-level KPIs.
type Snapshot struct {
	GeneratedAt time.Time
	Month       core.MonthKey
	Range       core.RangeSelector
	Kpis        core.KpiSet
}

// SnapshotWriter appends KPI snapshots to an external destination.
type SnapshotWriter interface {
	AppendSnapshot(ctx context.Context, s Snapshot) error
}
