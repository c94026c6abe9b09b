package storage

import (
	"strings"

	"saasboard/internal/core"
	"saasboard/internal/warehouse"
)

// revenueFilter builds the WHERE clause for reads against the subscription
// fact table. Empty filter values and zero months add no predicate.
func revenueFilter(f warehouse.Filters, start, end core.MonthKey) (string, []any) {
	f = f.Normalized()

	var parts []string
	var args []any
	if f.ProductID != "" {
		parts = append(parts, "product_id = ?")
		args = append(args, f.ProductID)
	}
	if f.Country != "" {
		parts = append(parts, "country = ?")
		args = append(args, f.Country)
	}
	if f.BillingCycle != "" {
		parts = append(parts, "billing_cycle = ?")
		args = append(args, f.BillingCycle)
	}
	rangeParts, rangeArgs := monthRangeParts(start, end)
	parts = append(parts, rangeParts...)
	args = append(args, rangeArgs...)

	return whereClause(parts), args
}

func monthRangeFilter(start, end core.MonthKey) (string, []any) {
	parts, args := monthRangeParts(start, end)
	return whereClause(parts), args
}

func monthRangeParts(start, end core.MonthKey) ([]string, []any) {
	var parts []string
	var args []any
	if !start.IsZero() {
		parts = append(parts, "month >= ?")
		args = append(args, start.String())
	}
	if !end.IsZero() {
		parts = append(parts, "month <= ?")
		args = append(args, end.String())
	}
	return parts, args
}

func whereClause(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}
