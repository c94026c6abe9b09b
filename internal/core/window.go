package core

// RangeSelector names the preset time ranges offered by the dashboard.
type RangeSelector string

const (
	Last12M RangeSelector = "Last 12M"
	YTD     RangeSelector = "YTD"
	QTD     RangeSelector = "QTD"
	AllTime RangeSelector = "All"
)

// Window is a resolved month range. StartExtended includes one extra
// lookback month so the first visible month has a previous snapshot to
// classify flows against. A zero StartExtended means unbounded; a zero End
// means no data at all.
type Window struct {
	StartExtended MonthKey
	End           MonthKey
}

// IsEmpty reports whether the window selects nothing.
func (w Window) IsEmpty() bool {
	return w.End.IsZero()
}

// ResolveWindow turns an anchor month and a range selector into a concrete
// window, clamped to the data bounds reported by the store. Unrecognized
// selectors behave like AllTime. A zero anchor yields an empty window; all
// downstream computations treat that as "no result".
func ResolveWindow(anchor MonthKey, selector RangeSelector, dataMin, dataMax MonthKey) Window {
	if anchor.IsZero() {
		return Window{}
	}

	var start MonthKey
	switch selector {
	case Last12M:
		start = anchor.AddMonths(-11)
	case YTD:
		start = anchor.YearStart()
	case QTD:
		start = anchor.QuarterStart()
	default:
		// AllTime: unbounded start
	}

	startExtended := start.AddMonths(-1)
	if !startExtended.IsZero() && !dataMin.IsZero() && startExtended.Before(dataMin) {
		startExtended = dataMin
	}

	end := anchor
	if !dataMax.IsZero() && end.After(dataMax) {
		end = dataMax
	}

	return Window{StartExtended: startExtended, End: end}
}
