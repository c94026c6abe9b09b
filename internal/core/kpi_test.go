package core

import (
	"math"
	"testing"
)

func TestComputeKpisRetention(t *testing.T) {
	// One customer, flat revenue across two months: full retention, no
	// prior quarter data, margins undefined without cost rows.
	revenue := []RevenueRecord{
		{CustomerID: "c1", Month: jan, MRR: 100},
		{CustomerID: "c1", Month: feb, MRR: 100},
	}
	k := ComputeKpis(revenue, nil, CashRecord{}, false, feb, jan, feb.AddMonths(-3))

	if k.NRR != 1.0 || k.GRR != 1.0 {
		t.Fatalf("expected full retention, got nrr=%v grr=%v", k.NRR, k.GRR)
	}
	if k.ARR != 1200 {
		t.Fatalf("expected arr 1200, got %v", k.ARR)
	}
	if k.ARRGrowth != 0.0 {
		t.Fatalf("expected zero growth without prior quarter, got %v", k.ARRGrowth)
	}
	if !math.IsNaN(k.GrossMargin) || !math.IsNaN(k.OpMargin) {
		t.Fatalf("expected NaN margins with zero costs and revenue denominators involved, got %v %v", k.GrossMargin, k.OpMargin)
	}
}

func TestComputeKpisChurnAndNew(t *testing.T) {
	// c1 churns (100 -> 0), c2 is new (0 -> 50).
	revenue := []RevenueRecord{
		{CustomerID: "c1", Month: jan, MRR: 100},
		{CustomerID: "c2", Month: feb, MRR: 50},
	}
	k := ComputeKpis(revenue, nil, CashRecord{}, false, feb, jan, feb.AddMonths(-3))

	if k.GRR != 0.0 {
		t.Fatalf("expected grr 0, got %v", k.GRR)
	}
	if k.NRR != 0.0 {
		t.Fatalf("expected nrr 0 (expansion only counts existing customers), got %v", k.NRR)
	}
	if k.ARR != 600 {
		t.Fatalf("expected arr 600, got %v", k.ARR)
	}
}

func TestComputeKpisMargins(t *testing.T) {
	revenue := []RevenueRecord{
		{CustomerID: "c1", Month: feb, MRR: 1000},
	}
	costs := []CostRecord{
		{Month: feb, COGS: 200, OpEx: 300},
		{Month: jan, COGS: 999, OpEx: 999}, // outside curr month, ignored
	}
	k := ComputeKpis(revenue, costs, CashRecord{}, false, feb, jan, feb.AddMonths(-3))

	if math.Abs(k.GrossMargin-0.8) > 1e-9 {
		t.Fatalf("expected gross margin 0.8, got %v", k.GrossMargin)
	}
	if math.Abs(k.OpMargin-0.5) > 1e-9 {
		t.Fatalf("expected op margin 0.5, got %v", k.OpMargin)
	}
}

func TestComputeKpisArrGrowth(t *testing.T) {
	q := feb.AddMonths(-3) // 2023-11
	revenue := []RevenueRecord{
		{CustomerID: "c1", Month: q, MRR: 100},
		{CustomerID: "c1", Month: jan, MRR: 120},
		{CustomerID: "c1", Month: feb, MRR: 150},
	}
	k := ComputeKpis(revenue, nil, CashRecord{}, false, feb, jan, q)
	if math.Abs(k.ARRGrowth-0.5) > 1e-9 {
		t.Fatalf("expected 50%% growth vs prior quarter, got %v", k.ARRGrowth)
	}
}

func TestComputeKpisCashGenerative(t *testing.T) {
	revenue := []RevenueRecord{{CustomerID: "c1", Month: feb, MRR: 100}}
	cash := CashRecord{Month: feb, NetMonthlyBurn: -500, EndingCashBalance: 10000}
	k := ComputeKpis(revenue, nil, cash, true, feb, jan, feb.AddMonths(-3))

	if k.BurnMultiple != 0.0 {
		t.Fatalf("cash-generative burn multiple should be 0, got %v", k.BurnMultiple)
	}
	if k.RunwayMonths != RunwayReportingCap {
		t.Fatalf("infinite runway should report as %v, got %v", RunwayReportingCap, k.RunwayMonths)
	}
}

func TestComputeKpisBurningWithoutGrowth(t *testing.T) {
	// Flat revenue: zero net-new ARR while burning cash.
	revenue := []RevenueRecord{
		{CustomerID: "c1", Month: jan, MRR: 100},
		{CustomerID: "c1", Month: feb, MRR: 100},
	}
	cash := CashRecord{Month: feb, NetMonthlyBurn: 1000, EndingCashBalance: 5000}
	k := ComputeKpis(revenue, nil, cash, true, feb, jan, feb.AddMonths(-3))

	if !math.IsInf(k.BurnMultiple, 1) {
		t.Fatalf("expected +Inf burn multiple, got %v", k.BurnMultiple)
	}
	if k.RunwayMonths != 5.0 {
		t.Fatalf("expected 5 months runway, got %v", k.RunwayMonths)
	}
}

func TestComputeKpisBurnMultiple(t *testing.T) {
	// Net-new ARR = (150-100)*12 = 600, burn 1200 -> multiple 2.
	revenue := []RevenueRecord{
		{CustomerID: "c1", Month: jan, MRR: 100},
		{CustomerID: "c1", Month: feb, MRR: 150},
	}
	cash := CashRecord{Month: feb, NetMonthlyBurn: 1200, EndingCashBalance: 0}
	k := ComputeKpis(revenue, nil, cash, true, feb, jan, feb.AddMonths(-3))

	if math.Abs(k.BurnMultiple-2.0) > 1e-9 {
		t.Fatalf("expected burn multiple 2, got %v", k.BurnMultiple)
	}
	if k.RunwayMonths != 0.0 {
		t.Fatalf("expected zero runway with no cash, got %v", k.RunwayMonths)
	}
}

func TestComputeKpisEmptyWindow(t *testing.T) {
	k := ComputeKpis(nil, nil, CashRecord{}, false, feb, jan, feb.AddMonths(-3))
	if k != (KpiSet{}) {
		t.Fatalf("empty window should yield all-zero kpis, got %+v", k)
	}
}

func TestComputeKpisIdempotent(t *testing.T) {
	revenue := []RevenueRecord{
		{CustomerID: "c1", Month: jan, MRR: 100.25},
		{CustomerID: "c1", Month: feb, MRR: 150.75},
		{CustomerID: "c2", Month: jan, MRR: 33.33},
	}
	costs := []CostRecord{{Month: feb, COGS: 10.5, OpEx: 20.5}}
	cash := CashRecord{Month: feb, NetMonthlyBurn: 100, EndingCashBalance: 900}

	a := ComputeKpis(revenue, costs, cash, true, feb, jan, feb.AddMonths(-3))
	b := ComputeKpis(revenue, costs, cash, true, feb, jan, feb.AddMonths(-3))
	if a != b {
		t.Fatalf("identical inputs must yield bit-identical kpis: %+v vs %+v", a, b)
	}
}

func TestSafeMargin(t *testing.T) {
	if !math.IsNaN(safeMargin(5, 0)) {
		t.Fatal("zero denominator must yield NaN")
	}
	if !math.IsNaN(safeMargin(0, 0)) {
		t.Fatal("0/0 must yield NaN")
	}
	if got := safeMargin(1, 4); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}
