package core

import "testing"

func TestResolveWindow(t *testing.T) {
	dataMin := MustMonthKey("2022-01")
	dataMax := MustMonthKey("2024-06")

	cases := []struct {
		name     string
		anchor   MonthKey
		selector RangeSelector
		start    MonthKey
		end      MonthKey
	}{
		{"last 12m", MustMonthKey("2024-06"), Last12M, MustMonthKey("2023-06"), MustMonthKey("2024-06")},
		{"ytd", MustMonthKey("2024-06"), YTD, MustMonthKey("2023-12"), MustMonthKey("2024-06")},
		{"qtd", MustMonthKey("2024-05"), QTD, MustMonthKey("2024-03"), MustMonthKey("2024-05")},
		{"all is unbounded", MustMonthKey("2024-06"), AllTime, MonthKey{}, MustMonthKey("2024-06")},
		{"unknown selector behaves like all", MustMonthKey("2024-06"), RangeSelector("bogus"), MonthKey{}, MustMonthKey("2024-06")},
		{"start clamped to data min", MustMonthKey("2022-04"), Last12M, MustMonthKey("2022-01"), MustMonthKey("2022-04")},
		{"end clamped to data max", MustMonthKey("2025-02"), YTD, MustMonthKey("2024-12"), MustMonthKey("2024-06")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ResolveWindow(tc.anchor, tc.selector, dataMin, dataMax)
			if w.StartExtended != tc.start {
				t.Fatalf("start expected %v, got %v", tc.start, w.StartExtended)
			}
			if w.End != tc.end {
				t.Fatalf("end expected %v, got %v", tc.end, w.End)
			}
		})
	}
}

func TestResolveWindowLookbackMonth(t *testing.T) {
	// YTD anchored at June starts in January; the extra lookback month
	// makes the query start in December of the prior year.
	w := ResolveWindow(MustMonthKey("2024-06"), YTD, MustMonthKey("2020-01"), MustMonthKey("2024-12"))
	if w.StartExtended != MustMonthKey("2023-12") {
		t.Fatalf("expected 2023-12, got %v", w.StartExtended)
	}
}

func TestResolveWindowNoAnchor(t *testing.T) {
	w := ResolveWindow(MonthKey{}, Last12M, MonthKey{}, MonthKey{})
	if !w.IsEmpty() || !w.StartExtended.IsZero() {
		t.Fatalf("expected empty window, got %+v", w)
	}
}

func TestResolveWindowMonotonicity(t *testing.T) {
	dataMin := MustMonthKey("2022-01")
	dataMax := MustMonthKey("2024-06")
	anchors := []MonthKey{
		MustMonthKey("2021-05"),
		MustMonthKey("2022-01"),
		MustMonthKey("2023-09"),
		MustMonthKey("2024-06"),
		MustMonthKey("2026-01"),
	}
	selectors := []RangeSelector{Last12M, YTD, QTD, AllTime}
	for _, a := range anchors {
		for _, sel := range selectors {
			w := ResolveWindow(a, sel, dataMin, dataMax)
			if w.End.After(dataMax) {
				t.Fatalf("anchor %v selector %q: end %v beyond data max", a, sel, w.End)
			}
			if !w.StartExtended.IsZero() && w.StartExtended.Before(dataMin) {
				t.Fatalf("anchor %v selector %q: start %v before data min", a, sel, w.StartExtended)
			}
		}
	}
}
