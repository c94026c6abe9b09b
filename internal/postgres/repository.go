package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saasboard/internal/core"
	"saasboard/internal/warehouse"
)

// Warehouse serves warehouse reads from a Postgres instance, the backend the
// analytics pipeline loads into. Tables live in the core schema and mirror
// the SQLite layout.
type Warehouse struct {
	pool *pgxpool.Pool
}

var _ warehouse.Warehouse = (*Warehouse)(nil)

func NewWarehouse(ctx context.Context, databaseURL string) (*Warehouse, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres warehouse requires DATABASE_URL")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Warehouse{pool: pool}, nil
}

func (w *Warehouse) Close() error {
	if w.pool != nil {
		w.pool.Close()
	}
	return nil
}

func (w *Warehouse) RevenueRows(ctx context.Context, f warehouse.Filters, start, end core.MonthKey) ([]core.RevenueRecord, error) {
	where, args := revenueFilter(f, start, end)
	query := `
		SELECT customer_id, month, SUM(mrr) AS mrr
		FROM core.fact_subscription_monthly` + where + `
		GROUP BY customer_id, month
		ORDER BY month, customer_id`

	rows, err := w.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query revenue rows: %w", err)
	}
	defer rows.Close()

	var out []core.RevenueRecord
	for rows.Next() {
		var rec core.RevenueRecord
		var month string
		if err := rows.Scan(&rec.CustomerID, &month, &rec.MRR); err != nil {
			return nil, fmt.Errorf("scan revenue row: %w", err)
		}
		rec.Month, err = core.ParseMonthKey(month)
		if err != nil {
			return nil, fmt.Errorf("revenue row month: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (w *Warehouse) LatestRevenueMonth(ctx context.Context, f warehouse.Filters) (core.MonthKey, error) {
	where, args := revenueFilter(f, core.MonthKey{}, core.MonthKey{})
	query := `SELECT MAX(month) FROM core.fact_subscription_monthly` + where

	var month *string
	if err := w.pool.QueryRow(ctx, query, args...).Scan(&month); err != nil {
		return core.MonthKey{}, fmt.Errorf("query latest revenue month: %w", err)
	}
	if month == nil {
		return core.MonthKey{}, nil
	}
	return core.ParseMonthKey(*month)
}

func (w *Warehouse) CostRows(ctx context.Context, start, end core.MonthKey) ([]core.CostRecord, error) {
	where, args := monthRangeFilter(start, end)
	query := `
		SELECT month, SUM(cogs), SUM(opex)
		FROM core.fact_cost_monthly` + where + `
		GROUP BY month
		ORDER BY month`

	rows, err := w.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cost rows: %w", err)
	}
	defer rows.Close()

	var out []core.CostRecord
	for rows.Next() {
		var rec core.CostRecord
		var month string
		if err := rows.Scan(&month, &rec.COGS, &rec.OpEx); err != nil {
			return nil, fmt.Errorf("scan cost row: %w", err)
		}
		rec.Month, err = core.ParseMonthKey(month)
		if err != nil {
			return nil, fmt.Errorf("cost row month: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (w *Warehouse) CashRow(ctx context.Context, month core.MonthKey) (core.CashRecord, bool, error) {
	rec := core.CashRecord{Month: month}
	err := w.pool.QueryRow(ctx, `
		SELECT net_monthly_burn, ending_cash_balance
		FROM core.fact_cash_monthly
		WHERE month = $1`, month.String()).
		Scan(&rec.NetMonthlyBurn, &rec.EndingCashBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.CashRecord{}, false, nil
	}
	if err != nil {
		return core.CashRecord{}, false, fmt.Errorf("query cash row: %w", err)
	}
	return rec, true, nil
}

func (w *Warehouse) PresenceRows(ctx context.Context, f warehouse.Filters, start, end core.MonthKey) ([]core.Presence, error) {
	where, args := revenueFilter(f, start, end)
	query := `
		SELECT DISTINCT customer_id, month
		FROM core.fact_subscription_monthly` + where + `
		ORDER BY month, customer_id`

	rows, err := w.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query presence rows: %w", err)
	}
	defer rows.Close()

	var out []core.Presence
	for rows.Next() {
		var p core.Presence
		var month string
		if err := rows.Scan(&p.CustomerID, &month); err != nil {
			return nil, fmt.Errorf("scan presence row: %w", err)
		}
		p.Month, err = core.ParseMonthKey(month)
		if err != nil {
			return nil, fmt.Errorf("presence row month: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (w *Warehouse) DataBounds(ctx context.Context) (core.MonthKey, core.MonthKey, error) {
	var minMonth, maxMonth *string
	err := w.pool.QueryRow(ctx,
		`SELECT MIN(month), MAX(month) FROM core.fact_subscription_monthly`).
		Scan(&minMonth, &maxMonth)
	if err != nil {
		return core.MonthKey{}, core.MonthKey{}, fmt.Errorf("query data bounds: %w", err)
	}
	if minMonth == nil || maxMonth == nil {
		return core.MonthKey{}, core.MonthKey{}, nil
	}
	min, err := core.ParseMonthKey(*minMonth)
	if err != nil {
		return core.MonthKey{}, core.MonthKey{}, fmt.Errorf("data bounds min: %w", err)
	}
	max, err := core.ParseMonthKey(*maxMonth)
	if err != nil {
		return core.MonthKey{}, core.MonthKey{}, fmt.Errorf("data bounds max: %w", err)
	}
	return min, max, nil
}

func (w *Warehouse) Products(ctx context.Context) ([]warehouse.Product, error) {
	rows, err := w.pool.Query(ctx,
		`SELECT product_id, product_name FROM core.dim_product ORDER BY product_name`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []warehouse.Product
	for rows.Next() {
		var p warehouse.Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (w *Warehouse) Countries(ctx context.Context) ([]string, error) {
	rows, err := w.pool.Query(ctx, `
		SELECT DISTINCT country
		FROM core.fact_subscription_monthly
		WHERE country IS NOT NULL AND country != ''
		ORDER BY country`)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (w *Warehouse) Months(ctx context.Context) ([]core.MonthKey, error) {
	rows, err := w.pool.Query(ctx, `
		SELECT DISTINCT month
		FROM core.fact_subscription_monthly
		ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("query months: %w", err)
	}
	defer rows.Close()

	var out []core.MonthKey
	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		m, err := core.ParseMonthKey(month)
		if err != nil {
			return nil, fmt.Errorf("month dimension: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
