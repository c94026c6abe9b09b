package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"saasboard/internal/core"
	"saasboard/internal/warehouse"
)

// ReadDir parses a load set from CSV files under dir: revenue.csv,
// costs.csv and cash.csv. revenue.csv is required; the other two are
// optional. Unlike the lenient in-memory seed loader, a malformed row fails
// the whole load so bad data never reaches the warehouse.
func ReadDir(dir string) (warehouse.LoadSet, error) {
	var set warehouse.LoadSet

	revRows, err := readCSVFile(filepath.Join(dir, "revenue.csv"), 7)
	if err != nil {
		return warehouse.LoadSet{}, fmt.Errorf("revenue.csv: %w", err)
	}
	for i, row := range revRows {
		month, err := core.ParseMonthKey(row[1])
		if err != nil {
			return warehouse.LoadSet{}, fmt.Errorf("revenue.csv row %d: %w", i+2, err)
		}
		mrr, err := strconv.ParseFloat(row[6], 64)
		if err != nil {
			return warehouse.LoadSet{}, fmt.Errorf("revenue.csv row %d: bad mrr %q", i+2, row[6])
		}
		rec := warehouse.RevenueRow{
			CustomerID:   row[0],
			Month:        month,
			ProductID:    row[2],
			ProductName:  row[3],
			Country:      row[4],
			BillingCycle: row[5],
			MRR:          mrr,
		}
		if rec.CustomerID == "" {
			return warehouse.LoadSet{}, fmt.Errorf("revenue.csv row %d: %w", i+2, core.ErrEmptyCustomerID)
		}
		if rec.MRR < 0 {
			return warehouse.LoadSet{}, fmt.Errorf("revenue.csv row %d: %w", i+2, core.ErrNegativeMRR)
		}
		set.Revenue = append(set.Revenue, rec)
	}

	costRows, err := readCSVFile(filepath.Join(dir, "costs.csv"), 3)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return warehouse.LoadSet{}, fmt.Errorf("costs.csv: %w", err)
	}
	for i, row := range costRows {
		month, err := core.ParseMonthKey(row[0])
		if err != nil {
			return warehouse.LoadSet{}, fmt.Errorf("costs.csv row %d: %w", i+2, err)
		}
		cogs, err1 := strconv.ParseFloat(row[1], 64)
		opex, err2 := strconv.ParseFloat(row[2], 64)
		if err1 != nil || err2 != nil {
			return warehouse.LoadSet{}, fmt.Errorf("costs.csv row %d: bad amount", i+2)
		}
		set.Costs = append(set.Costs, core.CostRecord{Month: month, COGS: cogs, OpEx: opex})
	}

	cashRows, err := readCSVFile(filepath.Join(dir, "cash.csv"), 3)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return warehouse.LoadSet{}, fmt.Errorf("cash.csv: %w", err)
	}
	for i, row := range cashRows {
		month, err := core.ParseMonthKey(row[0])
		if err != nil {
			return warehouse.LoadSet{}, fmt.Errorf("cash.csv row %d: %w", i+2, err)
		}
		burn, err1 := strconv.ParseFloat(row[1], 64)
		balance, err2 := strconv.ParseFloat(row[2], 64)
		if err1 != nil || err2 != nil {
			return warehouse.LoadSet{}, fmt.Errorf("cash.csv row %d: bad amount", i+2)
		}
		set.Cash = append(set.Cash, core.CashRecord{Month: month, NetMonthlyBurn: burn, EndingCashBalance: balance})
	}

	return set, nil
}

// readCSVFile returns the data rows of a CSV file, skipping the header.
func readCSVFile(path string, wantFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = -1
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	var out [][]string
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		if len(rec) < wantFields {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", i+1, wantFields, len(rec))
		}
		out = append(out, rec)
	}
	return out, nil
}
