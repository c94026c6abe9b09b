package postgres

import (
	"fmt"
	"strings"

	"saasboard/internal/core"
	"saasboard/internal/warehouse"
)

// revenueFilter builds a positional-placeholder WHERE clause for reads
// against the subscription fact table.
func revenueFilter(f warehouse.Filters, start, end core.MonthKey) (string, []any) {
	f = f.Normalized()

	b := filterBuilder{}
	if f.ProductID != "" {
		b.add("product_id", "=", f.ProductID)
	}
	if f.Country != "" {
		b.add("country", "=", f.Country)
	}
	if f.BillingCycle != "" {
		b.add("billing_cycle", "=", f.BillingCycle)
	}
	b.addMonthRange(start, end)
	return b.clause(), b.args
}

func monthRangeFilter(start, end core.MonthKey) (string, []any) {
	b := filterBuilder{}
	b.addMonthRange(start, end)
	return b.clause(), b.args
}

type filterBuilder struct {
	parts []string
	args  []any
}

func (b *filterBuilder) add(column, op string, value any) {
	b.args = append(b.args, value)
	b.parts = append(b.parts, fmt.Sprintf("%s %s $%d", column, op, len(b.args)))
}

func (b *filterBuilder) addMonthRange(start, end core.MonthKey) {
	if !start.IsZero() {
		b.add("month", ">=", start.String())
	}
	if !end.IsZero() {
		b.add("month", "<=", end.String())
	}
}

func (b *filterBuilder) clause() string {
	if len(b.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.parts, " AND ")
}
