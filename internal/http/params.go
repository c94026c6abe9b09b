package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"saasboard/internal/core"
	"saasboard/internal/warehouse"
)

// query carries the parsed dashboard parameters of one API request.
type query struct {
	filters  warehouse.Filters
	selector core.RangeSelector
	anchor   core.MonthKey
}

// cacheKey is stable across requests with equal parameters.
func (q query) cacheKey() string {
	return strings.Join([]string{
		q.anchor.String(),
		string(q.selector),
		q.filters.ProductID,
		q.filters.Country,
		q.filters.BillingCycle,
	}, "|")
}

var validSelectors = map[core.RangeSelector]bool{
	core.Last12M: true,
	core.YTD:     true,
	core.QTD:     true,
	core.AllTime: true,
}

// parseQuery reads filters, range selector and anchor month from the URL.
// Missing month means "latest month with data"; missing range means Last 12M.
func parseQuery(r *http.Request) (query, error) {
	q := query{
		filters: warehouse.Filters{
			ProductID:    strings.TrimSpace(r.URL.Query().Get("product")),
			Country:      strings.TrimSpace(r.URL.Query().Get("country")),
			BillingCycle: strings.TrimSpace(r.URL.Query().Get("billing_cycle")),
		}.Normalized(),
		selector: core.Last12M,
	}

	if v := strings.TrimSpace(r.URL.Query().Get("range")); v != "" {
		sel := core.RangeSelector(v)
		if !validSelectors[sel] {
			return query{}, fmt.Errorf("invalid range '%s'", v)
		}
		q.selector = sel
	}

	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		anchor, err := core.ParseMonthKey(v)
		if err != nil {
			if errors.Is(err, core.ErrInvalidMonthKey) {
				return query{}, fmt.Errorf("invalid month '%s': expected YYYY-MM", v)
			}
			return query{}, err
		}
		q.anchor = anchor
	}

	return q, nil
}
