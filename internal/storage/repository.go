package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"saasboard/internal/core"
	"saasboard/internal/warehouse"

	_ "modernc.org/sqlite"
)

// SQLiteWarehouse serves warehouse reads from a local SQLite file. Intended
// for single-node deployments and integration tests; the Postgres backend
// covers the shared-warehouse case.
type SQLiteWarehouse struct {
	db *sql.DB
}

var _ warehouse.Warehouse = (*SQLiteWarehouse)(nil)

func NewSQLiteWarehouse(dbPath string) (*SQLiteWarehouse, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite warehouse ready", "db_path", dbPath)
	return &SQLiteWarehouse{db: db}, nil
}

func (w *SQLiteWarehouse) Close() error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

func (w *SQLiteWarehouse) RevenueRows(ctx context.Context, f warehouse.Filters, start, end core.MonthKey) ([]core.RevenueRecord, error) {
	where, args := revenueFilter(f, start, end)
	query := `
		SELECT customer_id, month, SUM(mrr) AS mrr
		FROM fact_subscription_monthly` + where + `
		GROUP BY customer_id, month
		ORDER BY month, customer_id`

	rows, err := w.db.QueryContext(ctx, query, args...)
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

func (w *SQLiteWarehouse) LatestRevenueMonth(ctx context.Context, f warehouse.Filters) (core.MonthKey, error) {
	where, args := revenueFilter(f, core.MonthKey{}, core.MonthKey{})
	query := `SELECT MAX(month) FROM fact_subscription_monthly` + where

	var month sql.NullString
	if err := w.db.QueryRowContext(ctx, query, args...).Scan(&month); err != nil {
		return core.MonthKey{}, fmt.Errorf("query latest revenue month: %w", err)
	}
	if !month.Valid {
		return core.MonthKey{}, nil
	}
	return core.ParseMonthKey(month.String)
}

func (w *SQLiteWarehouse) CostRows(ctx context.Context, start, end core.MonthKey) ([]core.CostRecord, error) {
	where, args := monthRangeFilter(start, end)
	query := `
		SELECT month, SUM(cogs), SUM(opex)
		FROM fact_cost_monthly` + where + `
		GROUP BY month
		ORDER BY month`

	rows, err := w.db.QueryContext(ctx, query, args...)
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

func (w *SQLiteWarehouse) CashRow(ctx context.Context, month core.MonthKey) (core.CashRecord, bool, error) {
	query := `
		SELECT net_monthly_burn, ending_cash_balance
		FROM fact_cash_monthly
		WHERE month = ?`

	rec := core.CashRecord{Month: month}
	err := w.db.QueryRowContext(ctx, query, month.String()).
		Scan(&rec.NetMonthlyBurn, &rec.EndingCashBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CashRecord{}, false, nil
	}
	if err != nil {
		return core.CashRecord{}, false, fmt.Errorf("query cash row: %w", err)
	}
	return rec, true, nil
}

func (w *SQLiteWarehouse) PresenceRows(ctx context.Context, f warehouse.Filters, start, end core.MonthKey) ([]core.Presence, error) {
	where, args := revenueFilter(f, start, end)
	query := `
		SELECT DISTINCT customer_id, month
		FROM fact_subscription_monthly` + where + `
		ORDER BY month, customer_id`

	rows, err := w.db.QueryContext(ctx, query, args...)
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

func (w *SQLiteWarehouse) DataBounds(ctx context.Context) (core.MonthKey, core.MonthKey, error) {
	var minMonth, maxMonth sql.NullString
	err := w.db.QueryRowContext(ctx,
		`SELECT MIN(month), MAX(month) FROM fact_subscription_monthly`).
		Scan(&minMonth, &maxMonth)
	if err != nil {
		return core.MonthKey{}, core.MonthKey{}, fmt.Errorf("query data bounds: %w", err)
	}
	if !minMonth.Valid || !maxMonth.Valid {
		return core.MonthKey{}, core.MonthKey{}, nil
	}
	min, err := core.ParseMonthKey(minMonth.String)
	if err != nil {
		return core.MonthKey{}, core.MonthKey{}, fmt.Errorf("data bounds min: %w", err)
	}
	max, err := core.ParseMonthKey(maxMonth.String)
	if err != nil {
		return core.MonthKey{}, core.MonthKey{}, fmt.Errorf("data bounds max: %w", err)
	}
	return min, max, nil
}

func (w *SQLiteWarehouse) Products(ctx context.Context) ([]warehouse.Product, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT product_id, product_name FROM dim_product ORDER BY product_name`)
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

func (w *SQLiteWarehouse) Countries(ctx context.Context) ([]string, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT DISTINCT country
		FROM fact_subscription_monthly
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

func (w *SQLiteWarehouse) Months(ctx context.Context) ([]core.MonthKey, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT DISTINCT month
		FROM fact_subscription_monthly
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
