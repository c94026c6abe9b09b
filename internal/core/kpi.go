package core

import "math"

// RunwayReportingCap replaces a non-finite runway at the reporting boundary.
// Finite runway values pass through unchanged.
const RunwayReportingCap = 9999.0

// safeMargin divides n by d, returning NaN when d is zero. NaN means
// "undefined margin" and must never be coerced to zero downstream.
func safeMargin(n, d float64) float64 {
	if d == 0 {
		return math.NaN()
	}
	return n / d
}

// ComputeKpis derives the headline KPI block for currMonth from revenue rows
// covering at least [prevQuarterMonth, currMonth], the cost rows for the same
// window and the cash record for currMonth (hasCash=false when the store has
// no row). An empty revenue window yields an all-zero KpiSet.
func ComputeKpis(
	revenue []RevenueRecord,
	costs []CostRecord,
	cash CashRecord,
	hasCash bool,
	currMonth, prevMonth, prevQuarterMonth MonthKey,
) KpiSet {
	if len(revenue) == 0 {
		return KpiSet{}
	}

	var currRev, prevQRev float64
	for _, r := range revenue {
		switch r.Month {
		case currMonth:
			currRev += r.MRR
		case prevQuarterMonth:
			prevQRev += r.MRR
		}
	}

	arr := currRev * 12
	arrGrowth := 0.0
	if prevQRev > 0 {
		arrGrowth = (currRev - prevQRev) / prevQRev
	}

	totals := ClassifyFlows(BuildFlows(revenue, prevMonth, currMonth))

	grr, nrr := 0.0, 0.0
	if totals.StartingMRR > 0 {
		grr = (totals.StartingMRR - totals.Churn - totals.Contraction) / totals.StartingMRR
		nrr = (totals.StartingMRR - totals.Churn - totals.Contraction + totals.Expansion) / totals.StartingMRR
	}

	var cogs, opex float64
	for _, c := range costs {
		if c.Month == currMonth {
			cogs += c.COGS
			opex += c.OpEx
		}
	}

	grossMargin := safeMargin(currRev-cogs, currRev)
	opMargin := safeMargin(currRev-cogs-opex, currRev)

	// Negative net-new ARR is floored to zero for the burn-multiple
	// denominator only.
	netNewARR := math.Max((totals.EndingMRR-totals.StartingMRR)*12, 0)

	var netMonthlyBurn, endingCash float64
	if hasCash {
		netMonthlyBurn = cash.NetMonthlyBurn
		endingCash = cash.EndingCashBalance
	}

	var burnMultiple, runwayMonths float64
	if netMonthlyBurn <= 0 {
		// Cash-generative or breakeven: the multiple is undefined-as-zero
		// and the runway is unbounded.
		burnMultiple = 0
		runwayMonths = math.Inf(1)
	} else {
		if netNewARR > 0 {
			burnMultiple = netMonthlyBurn / netNewARR
		} else {
			burnMultiple = math.Inf(1)
		}
		if endingCash > 0 {
			runwayMonths = endingCash / netMonthlyBurn
		} else {
			runwayMonths = 0
		}
	}

	if !isFinite(runwayMonths) {
		runwayMonths = RunwayReportingCap
	}

	return KpiSet{
		ARR:               arr,
		ARRGrowth:         arrGrowth,
		NRR:               nrr,
		GRR:               grr,
		GrossMargin:       grossMargin,
		OpMargin:          opMargin,
		BurnMultiple:      burnMultiple,
		RunwayMonths:      runwayMonths,
		NetMonthlyBurn:    netMonthlyBurn,
		EndingCashBalance: endingCash,
	}
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
