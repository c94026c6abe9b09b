package warehouse

import (
	"context"

	"saasboard/internal/core"
)

// Filters narrow warehouse reads along the dashboard dimensions. Empty or
// "All" values mean "no filter" for that dimension. Predicate construction
// belongs to the backends; the engine only passes filters through.
type Filters struct {
	ProductID    string
	Country      string
	BillingCycle string
}

const allValues = "All"

// Normalized maps the UI's "All" sentinel onto the empty value.
func (f Filters) Normalized() Filters {
	if f.ProductID == allValues {
		f.ProductID = ""
	}
	if f.Country == allValues {
		f.Country = ""
	}
	if f.BillingCycle == allValues {
		f.BillingCycle = ""
	}
	return f
}

// Product is one entry of the product dimension.
type Product struct {
	ID   string
	Name string
}

// RevenueRow is a revenue fact with its dimensional attributes. The engine
// only ever sees the filtered core.RevenueRecord projection.
type RevenueRow struct {
	CustomerID   string
	Month        core.MonthKey
	ProductID    string
	ProductName  string
	Country      string
	BillingCycle string
	MRR          float64
}

// LoadSet is one complete warehouse load: all facts for all months.
type LoadSet struct {
	Revenue []RevenueRow
	Costs   []core.CostRecord
	Cash    []core.CashRecord
}

// Loader is implemented by backends that accept full-refresh loads.
type Loader interface {
	// ReplaceAll atomically swaps the warehouse contents for the load set.
	ReplaceAll(ctx context.Context, data LoadSet) error
}

// Ports for the warehouse backends. Zero start/end months mean unbounded.
type (
	RevenueReader interface {
		// RevenueRows returns per-customer monthly revenue rows in the window.
		RevenueRows(ctx context.Context, f Filters, start, end core.MonthKey) ([]core.RevenueRecord, error)
		// LatestRevenueMonth returns the latest month with revenue rows
		// matching the filters, or a zero month when there are none.
		LatestRevenueMonth(ctx context.Context, f Filters) (core.MonthKey, error)
	}

	CostReader interface {
		CostRows(ctx context.Context, start, end core.MonthKey) ([]core.CostRecord, error)
	}

	CashReader interface {
		// CashRow returns the cash record for a month; ok is false when the
		// warehouse has no row for it.
		CashRow(ctx context.Context, month core.MonthKey) (rec core.CashRecord, ok bool, err error)
	}

	PresenceReader interface {
		// PresenceRows returns one row per active customer-month in the
		// window, already restricted to the filters.
		PresenceRows(ctx context.Context, f Filters, start, end core.MonthKey) ([]core.Presence, error)
	}

	DimensionReader interface {
		// DataBounds returns the first and last month with any revenue data.
		// Both are zero when the warehouse is empty.
		DataBounds(ctx context.Context) (min, max core.MonthKey, err error)
		Products(ctx context.Context) ([]Product, error)
		Countries(ctx context.Context) ([]string, error)
		// Months lists all months with data, newest first.
		Months(ctx context.Context) ([]core.MonthKey, error)
	}
)

// Warehouse is the full read surface the metrics service depends on.
type Warehouse interface {
	RevenueReader
	CostReader
	CashReader
	PresenceReader
	DimensionReader
}
