package memory

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"saasboard/internal/core"
	"saasboard/internal/warehouse"
)

type RevenueRow = warehouse.RevenueRow

// Store is an in-memory warehouse for local runs and tests.
type Store struct {
	mu      sync.Mutex
	revenue []RevenueRow
	costs   []core.CostRecord
	cash    map[core.MonthKey]core.CashRecord
}

var (
	_ warehouse.Warehouse = (*Store)(nil)
	_ warehouse.Loader    = (*Store)(nil)
)

func New() *Store {
	return &Store{cash: make(map[core.MonthKey]core.CashRecord)}
}

// NewFromFiles seeds a store from CSV files under base (revenue.csv,
// costs.csv, cash.csv). Missing files are skipped; the store just starts
// empty for that fact.
func NewFromFiles(base string) *Store {
	s := New()
	for _, row := range readCSV(filepath.Join(base, "revenue.csv"), 7) {
		month, err := core.ParseMonthKey(row[1])
		if err != nil {
			continue
		}
		mrr, err := strconv.ParseFloat(row[6], 64)
		if err != nil {
			continue
		}
		s.AddRevenue(RevenueRow{
			CustomerID:   row[0],
			Month:        month,
			ProductID:    row[2],
			ProductName:  row[3],
			Country:      row[4],
			BillingCycle: row[5],
			MRR:          mrr,
		})
	}
	for _, row := range readCSV(filepath.Join(base, "costs.csv"), 3) {
		month, err := core.ParseMonthKey(row[0])
		if err != nil {
			continue
		}
		cogs, err1 := strconv.ParseFloat(row[1], 64)
		opex, err2 := strconv.ParseFloat(row[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		s.AddCost(core.CostRecord{Month: month, COGS: cogs, OpEx: opex})
	}
	for _, row := range readCSV(filepath.Join(base, "cash.csv"), 3) {
		month, err := core.ParseMonthKey(row[0])
		if err != nil {
			continue
		}
		burn, err1 := strconv.ParseFloat(row[1], 64)
		balance, err2 := strconv.ParseFloat(row[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		s.AddCash(core.CashRecord{Month: month, NetMonthlyBurn: burn, EndingCashBalance: balance})
	}
	return s
}

func (s *Store) AddRevenue(rows ...RevenueRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revenue = append(s.revenue, rows...)
}

func (s *Store) AddCost(rows ...core.CostRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs = append(s.costs, rows...)
}

func (s *Store) AddCash(rows ...core.CashRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.cash[r.Month] = r
	}
}

// ReplaceAll swaps the store contents for a fresh load set.
func (s *Store) ReplaceAll(_ context.Context, data warehouse.LoadSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revenue = append([]RevenueRow(nil), data.Revenue...)
	s.costs = append([]core.CostRecord(nil), data.Costs...)
	s.cash = make(map[core.MonthKey]core.CashRecord, len(data.Cash))
	for _, r := range data.Cash {
		s.cash[r.Month] = r
	}
	return nil
}

func (s *Store) RevenueRows(_ context.Context, f Filters, start, end core.MonthKey) ([]core.RevenueRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f = f.Normalized()
	// Identical (customer, month) rows collapse into one record, matching
	// the SQL backends' GROUP BY.
	sums := make(map[core.MonthKey]map[string]float64)
	for _, r := range s.revenue {
		if !matches(r, f) || !inWindow(r.Month, start, end) {
			continue
		}
		byCustomer, ok := sums[r.Month]
		if !ok {
			byCustomer = make(map[string]float64)
			sums[r.Month] = byCustomer
		}
		byCustomer[r.CustomerID] += r.MRR
	}

	var out []core.RevenueRecord
	for month, byCustomer := range sums {
		for id, mrr := range byCustomer {
			out = append(out, core.RevenueRecord{CustomerID: id, Month: month, MRR: mrr})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out, nil
}

func (s *Store) LatestRevenueMonth(_ context.Context, f Filters) (core.MonthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f = f.Normalized()
	var latest core.MonthKey
	for _, r := range s.revenue {
		if matches(r, f) && (latest.IsZero() || r.Month.After(latest)) {
			latest = r.Month
		}
	}
	return latest, nil
}

func (s *Store) CostRows(_ context.Context, start, end core.MonthKey) ([]core.CostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.CostRecord
	for _, c := range s.costs {
		if inWindow(c.Month, start, end) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

func (s *Store) CashRow(_ context.Context, month core.MonthKey) (core.CashRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.cash[month]
	return rec, ok, nil
}

func (s *Store) PresenceRows(_ context.Context, f Filters, start, end core.MonthKey) ([]core.Presence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f = f.Normalized()
	seen := make(map[core.Presence]struct{})
	var out []core.Presence
	for _, r := range s.revenue {
		if !matches(r, f) || !inWindow(r.Month, start, end) {
			continue
		}
		p := core.Presence{CustomerID: r.CustomerID, Month: r.Month}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out, nil
}

func (s *Store) DataBounds(_ context.Context) (core.MonthKey, core.MonthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var min, max core.MonthKey
	for _, r := range s.revenue {
		if min.IsZero() || r.Month.Before(min) {
			min = r.Month
		}
		if max.IsZero() || r.Month.After(max) {
			max = r.Month
		}
	}
	return min, max, nil
}

func (s *Store) Products(_ context.Context) ([]warehouse.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	var out []warehouse.Product
	for _, r := range s.revenue {
		if r.ProductID == "" {
			continue
		}
		if _, dup := seen[r.ProductID]; dup {
			continue
		}
		seen[r.ProductID] = struct{}{}
		out = append(out, warehouse.Product{ID: r.ProductID, Name: r.ProductName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Countries(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	var out []string
	for _, r := range s.revenue {
		if r.Country == "" {
			continue
		}
		if _, dup := seen[r.Country]; dup {
			continue
		}
		seen[r.Country] = struct{}{}
		out = append(out, r.Country)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Months(_ context.Context) ([]core.MonthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[core.MonthKey]struct{})
	var out []core.MonthKey
	for _, r := range s.revenue {
		if _, dup := seen[r.Month]; dup {
			continue
		}
		seen[r.Month] = struct{}{}
		out = append(out, r.Month)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) }) // newest first
	return out, nil
}

type Filters = warehouse.Filters

func matches(r RevenueRow, f Filters) bool {
	if f.ProductID != "" && r.ProductID != f.ProductID {
		return false
	}
	if f.Country != "" && r.Country != f.Country {
		return false
	}
	if f.BillingCycle != "" && r.BillingCycle != f.BillingCycle {
		return false
	}
	return true
}

func inWindow(m, start, end core.MonthKey) bool {
	if !start.IsZero() && m.Before(start) {
		return false
	}
	if !end.IsZero() && m.After(end) {
		return false
	}
	return true
}

func readCSV(path string, minFields int) [][]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = -1
	records, err := rd.ReadAll()
	if err != nil {
		return nil
	}
	var out [][]string
	for i, rec := range records {
		if i == 0 || len(rec) < minFields { // skip header
			continue
		}
		out = append(out, rec)
	}
	return out
}
