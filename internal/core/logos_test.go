package core

import "testing"

func presences(customer string, months ...string) []Presence {
	out := make([]Presence, 0, len(months))
	for _, m := range months {
		out = append(out, Presence{CustomerID: customer, Month: MustMonthKey(m)})
	}
	return out
}

func TestClassifyLogosNewAndChurn(t *testing.T) {
	var rows []Presence
	rows = append(rows, presences("c1", "2024-01", "2024-02", "2024-03")...)
	rows = append(rows, presences("c2", "2024-02")...) // joins feb, silent in march
	rows = append(rows, presences("c3", "2024-03")...) // joins in march

	win := Window{StartExtended: MustMonthKey("2024-01"), End: MustMonthKey("2024-03")}
	lastObserved := MustMonthKey("2024-06") // data continues beyond the window

	got := ClassifyLogos(rows, win, lastObserved)
	if len(got) != 3 {
		t.Fatalf("expected 3 months, got %d", len(got))
	}

	expect := []LogoMonth{
		{Month: MustMonthKey("2024-01"), NewLogos: 1, ChurnedLogos: 0},
		{Month: MustMonthKey("2024-02"), NewLogos: 1, ChurnedLogos: 1}, // c2 churns after feb
		{Month: MustMonthKey("2024-03"), NewLogos: 1, ChurnedLogos: 2}, // c1 and c3 absent in april
	}
	for i, want := range expect {
		if got[i] != want {
			t.Fatalf("month %d: expected %+v, got %+v", i, want, got[i])
		}
	}
}

func TestClassifyLogosLastObservedMonth(t *testing.T) {
	// Customer active only in the final month with any observed data:
	// counted new, never counted churned (no later month to confirm it).
	rows := presences("c1", "2024-03")
	win := Window{StartExtended: MustMonthKey("2024-01"), End: MustMonthKey("2024-03")}

	got := ClassifyLogos(rows, win, MustMonthKey("2024-03"))
	if len(got) != 1 {
		t.Fatalf("expected 1 month, got %d", len(got))
	}
	if got[0].NewLogos != 1 || got[0].ChurnedLogos != 0 {
		t.Fatalf("expected new=1 churned=0, got %+v", got[0])
	}
}

func TestClassifyLogosFiltersToVisibleWindow(t *testing.T) {
	// Lookback and lookahead rows inform classification but never show up
	// in the result.
	var rows []Presence
	rows = append(rows, presences("c1", "2024-01", "2024-02", "2024-03", "2024-04")...)

	win := Window{StartExtended: MustMonthKey("2024-02"), End: MustMonthKey("2024-03")}
	got := ClassifyLogos(rows, win, MustMonthKey("2024-06"))
	if len(got) != 2 {
		t.Fatalf("expected 2 months, got %d", len(got))
	}
	// c1 was present in january, so february is not a new logo; present in
	// april, so march is not churn.
	for _, lm := range got {
		if lm.NewLogos != 0 || lm.ChurnedLogos != 0 {
			t.Fatalf("boundary months misclassified: %+v", lm)
		}
	}
}

func TestClassifyLogosUnboundedStart(t *testing.T) {
	var rows []Presence
	rows = append(rows, presences("c1", "2024-01", "2024-02")...)
	win := Window{End: MustMonthKey("2024-02")} // AllTime window

	got := ClassifyLogos(rows, win, MustMonthKey("2024-02"))
	if len(got) != 2 {
		t.Fatalf("expected 2 months, got %d", len(got))
	}
	if got[0].NewLogos != 1 {
		t.Fatalf("first ever month should count c1 as new, got %+v", got[0])
	}
}

func TestClassifyLogosEmpty(t *testing.T) {
	if got := ClassifyLogos(nil, Window{End: MustMonthKey("2024-01")}, MonthKey{}); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := ClassifyLogos(presences("c1", "2024-01"), Window{}, MonthKey{}); got != nil {
		t.Fatalf("empty window should yield nil, got %+v", got)
	}
}
