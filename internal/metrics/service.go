package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"saasboard/internal/core"
	"saasboard/internal/warehouse"
)

// CAC payback is a fixed planning assumption: acquisition spend is not yet
// tracked per cohort in the warehouse.
const cacPaybackMonths = 12.0

// TopRow is the headline strip of the revenue analytics page.
type TopRow struct {
	MRR              float64
	ARR              float64
	NewLogos         int
	ChurnedLogos     int
	CACPaybackMonths float64
}

// Service computes dashboard metrics over a warehouse. It holds no mutable
// state: every call re-reads the data bounds and works on a fresh snapshot,
// so concurrent requests are independent.
type Service struct {
	wh warehouse.Warehouse
}

func NewService(wh warehouse.Warehouse) *Service {
	return &Service{wh: wh}
}

// resolveWindow derives the concrete month window for a request. A zero
// anchor falls back to the latest month with revenue under the filters. The
// returned window is empty when the warehouse has no matching data at all.
func (s *Service) resolveWindow(ctx context.Context, f warehouse.Filters, selector core.RangeSelector, anchor core.MonthKey) (core.Window, error) {
	if anchor.IsZero() {
		latest, err := s.wh.LatestRevenueMonth(ctx, f)
		if err != nil {
			return core.Window{}, fmt.Errorf("latest revenue month: %w", err)
		}
		anchor = latest
	}

	// Bounds are re-read on every call: dimension caches upstream may be
	// stale, the clamp must not be.
	dataMin, dataMax, err := s.wh.DataBounds(ctx)
	if err != nil {
		return core.Window{}, fmt.Errorf("data bounds: %w", err)
	}

	return core.ResolveWindow(anchor, selector, dataMin, dataMax), nil
}

// ExecOverviewKpis computes the executive overview KPI block. An empty
// window (no data under the filters) yields an all-zero KpiSet.
func (s *Service) ExecOverviewKpis(ctx context.Context, f warehouse.Filters, selector core.RangeSelector, anchor core.MonthKey) (core.KpiSet, error) {
	f = f.Normalized()
	win, err := s.resolveWindow(ctx, f, selector, anchor)
	if err != nil {
		return core.KpiSet{}, err
	}
	if win.IsEmpty() {
		return core.KpiSet{}, nil
	}

	var (
		revenue []core.RevenueRecord
		costs   []core.CostRecord
		cash    core.CashRecord
		hasCash bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		revenue, err = s.wh.RevenueRows(gctx, f, win.StartExtended, win.End)
		if err != nil {
			return fmt.Errorf("revenue rows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		costs, err = s.wh.CostRows(gctx, win.StartExtended, win.End)
		if err != nil {
			return fmt.Errorf("cost rows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cash, hasCash, err = s.wh.CashRow(gctx, win.End)
		if err != nil {
			return fmt.Errorf("cash row: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.KpiSet{}, err
	}

	curr := win.End
	kpis := core.ComputeKpis(revenue, costs, cash, hasCash, curr, curr.AddMonths(-1), curr.AddMonths(-3))

	slog.DebugContext(ctx, "Computed overview KPIs",
		"month", curr.String(),
		"selector", string(selector),
		"revenue_rows", len(revenue),
		"arr", kpis.ARR)
	return kpis, nil
}

// ArrBridge computes the ARR waterfall between the anchor month and the
// month before it. An empty window yields an empty bridge.
func (s *Service) ArrBridge(ctx context.Context, f warehouse.Filters, selector core.RangeSelector, anchor core.MonthKey) ([]core.BridgeStep, error) {
	f = f.Normalized()
	win, err := s.resolveWindow(ctx, f, selector, anchor)
	if err != nil {
		return nil, err
	}
	if win.IsEmpty() {
		return nil, nil
	}

	revenue, err := s.wh.RevenueRows(ctx, f, win.StartExtended, win.End)
	if err != nil {
		return nil, fmt.Errorf("revenue rows: %w", err)
	}

	curr := win.End
	return core.BuildArrBridge(revenue, curr, curr.AddMonths(-1)), nil
}

// LogoFlows returns the per-month new and churned logo counts over the
// resolved window.
func (s *Service) LogoFlows(ctx context.Context, f warehouse.Filters, selector core.RangeSelector, anchor core.MonthKey) ([]core.LogoMonth, error) {
	f = f.Normalized()
	win, err := s.resolveWindow(ctx, f, selector, anchor)
	if err != nil {
		return nil, err
	}
	if win.IsEmpty() {
		return nil, nil
	}

	// One lookback and one lookahead month beyond the window so boundary
	// transitions classify correctly; ClassifyLogos filters back down.
	presence, err := s.wh.PresenceRows(ctx, f, win.StartExtended.AddMonths(-1), win.End.AddMonths(1))
	if err != nil {
		return nil, fmt.Errorf("presence rows: %w", err)
	}

	// Churn in the last observed month overall is undeterminable, so the
	// global bound decides, not the filtered window.
	_, dataMax, err := s.wh.DataBounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("data bounds: %w", err)
	}

	return core.ClassifyLogos(presence, win, dataMax), nil
}

// TopRowKpis computes the revenue analytics top row: period MRR, current
// ARR, logo movement sums and the CAC payback assumption.
func (s *Service) TopRowKpis(ctx context.Context, f warehouse.Filters, selector core.RangeSelector, anchor core.MonthKey) (TopRow, error) {
	f = f.Normalized()
	win, err := s.resolveWindow(ctx, f, selector, anchor)
	if err != nil {
		return TopRow{}, err
	}
	if win.IsEmpty() {
		return TopRow{}, nil
	}

	var (
		revenue []core.RevenueRecord
		logos   []core.LogoMonth
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		revenue, err = s.wh.RevenueRows(gctx, f, win.StartExtended, win.End)
		if err != nil {
			return fmt.Errorf("revenue rows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		logos, err = s.LogoFlows(gctx, f, selector, win.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return TopRow{}, err
	}

	row := TopRow{CACPaybackMonths: cacPaybackMonths}
	for _, r := range revenue {
		row.MRR += r.MRR
		if r.Month == win.End {
			row.ARR += r.MRR * 12
		}
	}
	for _, lm := range logos {
		row.NewLogos += lm.NewLogos
		row.ChurnedLogos += lm.ChurnedLogos
	}
	return row, nil
}
