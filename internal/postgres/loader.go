package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"saasboard/internal/warehouse"
)

var _ warehouse.Loader = (*Warehouse)(nil)

// ReplaceAll swaps the warehouse contents for a fresh load set. Everything
// runs in one transaction; batched inserts keep round trips down.
func (w *Warehouse) ReplaceAll(ctx context.Context, data warehouse.LoadSet) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{
		"core.fact_subscription_monthly",
		"core.fact_cost_monthly",
		"core.fact_cash_monthly",
		"core.dim_product",
	} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	products := make(map[string]string)
	for _, r := range data.Revenue {
		if r.ProductID != "" {
			products[r.ProductID] = r.ProductName
		}
	}

	batch := &pgx.Batch{}
	for id, name := range products {
		batch.Queue(`INSERT INTO core.dim_product (product_id, product_name) VALUES ($1, $2)`, id, name)
	}
	for _, r := range data.Revenue {
		batch.Queue(`
			INSERT INTO core.fact_subscription_monthly
				(customer_id, month, product_id, country, billing_cycle, mrr)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.CustomerID, r.Month.String(), r.ProductID, r.Country, r.BillingCycle, r.MRR)
	}
	for _, c := range data.Costs {
		batch.Queue(`INSERT INTO core.fact_cost_monthly (month, cogs, opex) VALUES ($1, $2, $3)`,
			c.Month.String(), c.COGS, c.OpEx)
	}
	for _, c := range data.Cash {
		batch.Queue(`
			INSERT INTO core.fact_cash_monthly (month, net_monthly_burn, ending_cash_balance)
			VALUES ($1, $2, $3)`,
			c.Month.String(), c.NetMonthlyBurn, c.EndingCashBalance)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("send load batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}

	slog.InfoContext(ctx, "Warehouse load committed",
		"revenue_rows", len(data.Revenue),
		"cost_rows", len(data.Costs),
		"cash_rows", len(data.Cash),
		"products", len(products))
	return nil
}
