package core

import "sort"

// ClassifyLogos counts new and churned logos per month.
//
// The presence rows must cover one month of lookback and one month of
// lookahead beyond the visible window: a logo is new in M when absent in M-1,
// churned in M when absent in M+1. Results are filtered back to the visible
// window before being returned, one entry per month with any activity,
// ordered by month.
//
// lastObserved is the final month with any observed data overall, not just
// within the filtered window. Churn cannot be determined for that month (a
// customer only counts as churned once a subsequent silent month has been
// observed) and is reported as zero there.
func ClassifyLogos(presence []Presence, visible Window, lastObserved MonthKey) []LogoMonth {
	if visible.IsEmpty() || len(presence) == 0 {
		return nil
	}

	active := make(map[MonthKey]map[string]struct{})
	for _, p := range presence {
		set, ok := active[p.Month]
		if !ok {
			set = make(map[string]struct{})
			active[p.Month] = set
		}
		set[p.CustomerID] = struct{}{}
	}

	months := make([]MonthKey, 0, len(active))
	for m := range active {
		if !visible.StartExtended.IsZero() && m.Before(visible.StartExtended) {
			continue
		}
		if m.After(visible.End) {
			continue
		}
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	out := make([]LogoMonth, 0, len(months))
	for _, m := range months {
		lm := LogoMonth{Month: m}
		prev := active[m.AddMonths(-1)]
		next := active[m.AddMonths(1)]
		for id := range active[m] {
			if _, ok := prev[id]; !ok {
				lm.NewLogos++
			}
			if m != lastObserved {
				if _, ok := next[id]; !ok {
					lm.ChurnedLogos++
				}
			}
		}
		out = append(out, lm)
	}
	return out
}
