package storage

import (
	"context"
	"fmt"
	"log/slog"

	"saasboard/internal/warehouse"
)

var _ warehouse.Loader = (*SQLiteWarehouse)(nil)

// ReplaceAll swaps the warehouse contents for a fresh load set in one
// transaction, so readers never see a half-loaded state.
func (w *SQLiteWarehouse) ReplaceAll(ctx context.Context, data warehouse.LoadSet) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"fact_subscription_monthly",
		"fact_cost_monthly",
		"fact_cash_monthly",
		"dim_product",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	products := make(map[string]string)
	for _, r := range data.Revenue {
		if r.ProductID != "" {
			products[r.ProductID] = r.ProductName
		}
	}
	for id, name := range products {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO dim_product (product_id, product_name) VALUES (?, ?)`,
			id, name)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", id, err)
		}
	}

	revStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fact_subscription_monthly
			(customer_id, month, product_id, country, billing_cycle, mrr)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare revenue insert: %w", err)
	}
	defer revStmt.Close()
	for _, r := range data.Revenue {
		_, err := revStmt.ExecContext(ctx,
			r.CustomerID, r.Month.String(), r.ProductID, r.Country, r.BillingCycle, r.MRR)
		if err != nil {
			return fmt.Errorf("insert revenue row (%s, %s): %w", r.CustomerID, r.Month, err)
		}
	}

	costStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fact_cost_monthly (month, cogs, opex) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cost insert: %w", err)
	}
	defer costStmt.Close()
	for _, c := range data.Costs {
		if _, err := costStmt.ExecContext(ctx, c.Month.String(), c.COGS, c.OpEx); err != nil {
			return fmt.Errorf("insert cost row %s: %w", c.Month, err)
		}
	}

	cashStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fact_cash_monthly (month, net_monthly_burn, ending_cash_balance)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cash insert: %w", err)
	}
	defer cashStmt.Close()
	for _, c := range data.Cash {
		if _, err := cashStmt.ExecContext(ctx, c.Month.String(), c.NetMonthlyBurn, c.EndingCashBalance); err != nil {
			return fmt.Errorf("insert cash row %s: %w", c.Month, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}

	slog.InfoContext(ctx, "Warehouse load committed",
		"revenue_rows", len(data.Revenue),
		"cost_rows", len(data.Costs),
		"cash_rows", len(data.Cash),
		"products", len(products))
	return nil
}
