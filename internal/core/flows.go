package core

import "sort"

// BuildFlows outer-joins the prev-month and curr-month snapshots of the
// revenue rows on customer id. Every customer appearing in either snapshot
// yields exactly one flow; the missing side defaults to zero. Output is
// sorted by customer id so repeated runs aggregate identically.
func BuildFlows(rows []RevenueRecord, prevMonth, currMonth MonthKey) []Flow {
	byCustomer := make(map[string]*Flow)

	for _, r := range rows {
		switch r.Month {
		case prevMonth:
			f := flowFor(byCustomer, r.CustomerID)
			f.PrevMRR += r.MRR
		case currMonth:
			f := flowFor(byCustomer, r.CustomerID)
			f.CurrMRR += r.MRR
		}
	}

	flows := make([]Flow, 0, len(byCustomer))
	for _, f := range byCustomer {
		flows = append(flows, *f)
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].CustomerID < flows[j].CustomerID })
	return flows
}

func flowFor(m map[string]*Flow, customerID string) *Flow {
	f, ok := m[customerID]
	if !ok {
		f = &Flow{CustomerID: customerID}
		m[customerID] = f
	}
	return f
}

// FlowTotals aggregates classified flows. Each movement bucket is a
// non-negative MRR amount. Invariant, within float tolerance:
//
//	StartingMRR - Churn - Contraction + Expansion + New == EndingMRR
type FlowTotals struct {
	StartingMRR float64
	EndingMRR   float64
	New         float64
	Expansion   float64
	Contraction float64
	Churn       float64
}

// ClassifyFlows labels every flow as new, expansion, contraction, churn or
// unchanged and sums the amounts per bucket. Unchanged customers contribute
// only to the starting and ending totals.
func ClassifyFlows(flows []Flow) FlowTotals {
	var t FlowTotals
	for _, f := range flows {
		t.StartingMRR += f.PrevMRR
		t.EndingMRR += f.CurrMRR

		switch {
		case f.PrevMRR == 0 && f.CurrMRR > 0:
			t.New += f.CurrMRR
		case f.PrevMRR > 0 && f.CurrMRR == 0:
			t.Churn += f.PrevMRR
		case f.CurrMRR < f.PrevMRR && f.CurrMRR > 0:
			t.Contraction += f.PrevMRR - f.CurrMRR
		case f.CurrMRR > f.PrevMRR && f.PrevMRR > 0:
			t.Expansion += f.CurrMRR - f.PrevMRR
		}
	}
	return t
}
