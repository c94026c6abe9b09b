package core

import (
	"errors"
	"strings"
)

// RevenueRecord is one customer's recurring revenue for one month. A missing
// (customer, month) row means zero revenue that month.
type RevenueRecord struct {
	CustomerID string
	Month      MonthKey
	MRR        float64
}

// CostRecord aggregates a month's costs: infrastructure and payment
// processing roll into COGS, marketing and G&A into OpEx.
type CostRecord struct {
	Month MonthKey
	COGS  float64
	OpEx  float64
}

// CashRecord is one month's cash position.
type CashRecord struct {
	Month             MonthKey
	NetMonthlyBurn    float64
	EndingCashBalance float64
}

// Presence marks a customer as active in a month, regardless of amount.
type Presence struct {
	CustomerID string
	Month      MonthKey
}

// Flow is a customer's month-over-month revenue movement between two anchor
// months. A customer present in only one of the two snapshots carries zero
// on the missing side.
type Flow struct {
	CustomerID string
	PrevMRR    float64
	CurrMRR    float64
}

// KpiSet is the headline KPI block for one anchor month. Margins may be NaN
// when revenue is zero ("undefined", not "zero margin"); BurnMultiple may be
// +Inf when burning cash without net-new ARR. RunwayMonths is already capped
// at the reporting sentinel.
type KpiSet struct {
	ARR               float64
	ARRGrowth         float64
	NRR               float64
	GRR               float64
	GrossMargin       float64
	OpMargin          float64
	BurnMultiple      float64
	RunwayMonths      float64
	NetMonthlyBurn    float64
	EndingCashBalance float64
}

// StepKind tells a waterfall renderer how to treat a bridge step.
type StepKind string

const (
	StepAbsolute StepKind = "absolute"
	StepRelative StepKind = "relative"
	StepTotal    StepKind = "total"
)

// BridgeStep is one step of the ARR waterfall.
type BridgeStep struct {
	Label string
	Value float64
	Kind  StepKind
}

// LogoMonth counts customer arrivals and departures for one month.
type LogoMonth struct {
	Month        MonthKey
	NewLogos     int
	ChurnedLogos int
}

var (
	ErrEmptyCustomerID = errors.New("empty customer id")
	ErrMissingMonth    = errors.New("missing month")
	ErrNegativeMRR     = errors.New("negative mrr")
)

func (r RevenueRecord) Validate() error {
	if strings.TrimSpace(r.CustomerID) == "" {
		return ErrEmptyCustomerID
	}
	if r.Month.IsZero() {
		return ErrMissingMonth
	}
	if r.MRR < 0 {
		return ErrNegativeMRR
	}
	return nil
}

func (c CostRecord) Validate() error {
	if c.Month.IsZero() {
		return ErrMissingMonth
	}
	return nil
}

func (c CashRecord) Validate() error {
	if c.Month.IsZero() {
		return ErrMissingMonth
	}
	return nil
}
