package etl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"saasboard/internal/amqp"
	"saasboard/internal/core"
	"saasboard/internal/warehouse/memory"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func writeValidDrop(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, "revenue.csv",
		"customer_id,month,product_id,product_name,country,billing_cycle,mrr\n"+
			"c1,2024-01,p1,Starter,DE,monthly,100\n"+
			"c2,2024-01,p2,Pro,US,annual,200\n"+
			"c1,2024-02,p1,Starter,DE,monthly,120\n")
	writeFile(t, dir, "costs.csv",
		"month,cogs,opex\n2024-02,40,80\n")
	writeFile(t, dir, "cash.csv",
		"month,net_monthly_burn,ending_cash_balance\n2024-02,500,4000\n")
}

func TestReadDir(t *testing.T) {
	dir := t.TempDir()
	writeValidDrop(t, dir)

	set, err := ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Revenue) != 3 {
		t.Fatalf("expected 3 revenue rows, got %d", len(set.Revenue))
	}
	if set.Revenue[0].CustomerID != "c1" || set.Revenue[0].MRR != 100 {
		t.Fatalf("unexpected first row %+v", set.Revenue[0])
	}
	if len(set.Costs) != 1 || set.Costs[0].OpEx != 80 {
		t.Fatalf("unexpected costs %+v", set.Costs)
	}
	if len(set.Cash) != 1 || set.Cash[0].EndingCashBalance != 4000 {
		t.Fatalf("unexpected cash %+v", set.Cash)
	}
}

func TestReadDirOptionalFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "revenue.csv",
		"customer_id,month,product_id,product_name,country,billing_cycle,mrr\n"+
			"c1,2024-01,p1,Starter,DE,monthly,100\n")

	set, err := ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Costs) != 0 || len(set.Cash) != 0 {
		t.Fatalf("expected empty optional facts, got %+v", set)
	}
}

func TestReadDirMissingRevenue(t *testing.T) {
	if _, err := ReadDir(t.TempDir()); err == nil {
		t.Fatal("expected error without revenue.csv")
	}
}

func TestReadDirRejectsBadRows(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		wantMsg string
	}{
		{"bad month", "c1,Jan-2024,p1,Starter,DE,monthly,100", "row 2"},
		{"bad mrr", "c1,2024-01,p1,Starter,DE,monthly,lots", "bad mrr"},
		{"negative mrr", "c1,2024-01,p1,Starter,DE,monthly,-5", "negative mrr"},
		{"empty customer", ",2024-01,p1,Starter,DE,monthly,100", "empty customer id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "revenue.csv",
				"customer_id,month,product_id,product_name,country,billing_cycle,mrr\n"+tt.row+"\n")
			_, err := ReadDir(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

type recordingPublisher struct {
	messages []*amqp.WarehouseRefreshMessage
}

func (p *recordingPublisher) PublishWarehouseRefresh(_ context.Context, msg *amqp.WarehouseRefreshMessage) error {
	p.messages = append(p.messages, msg)
	return nil
}

func TestRunnerLoadsAndPublishes(t *testing.T) {
	dir := t.TempDir()
	writeValidDrop(t, dir)

	store := memory.New()
	pub := &recordingPublisher{}
	runner := NewRunner(dir, store, pub)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	latest, err := store.LatestRevenueMonth(context.Background(), memory.Filters{})
	if err != nil {
		t.Fatalf("latest month: %v", err)
	}
	if latest != core.MustMonthKey("2024-02") {
		t.Fatalf("expected latest month 2024-02, got %v", latest)
	}

	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 refresh message, got %d", len(pub.messages))
	}
	if pub.messages[0].Source != "warehouse-load" {
		t.Fatalf("unexpected source %q", pub.messages[0].Source)
	}
}

func TestRunnerReplacesPreviousLoad(t *testing.T) {
	dir := t.TempDir()
	writeValidDrop(t, dir)

	store := memory.New()
	store.AddRevenue(memory.RevenueRow{CustomerID: "stale", Month: core.MustMonthKey("2020-01"), MRR: 999})

	runner := NewRunner(dir, store, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := store.RevenueRows(context.Background(), memory.Filters{}, core.MonthKey{}, core.MonthKey{})
	if err != nil {
		t.Fatalf("revenue rows: %v", err)
	}
	for _, r := range rows {
		if r.CustomerID == "stale" {
			t.Fatal("stale row survived the reload")
		}
	}
}

func TestRunnerRejectsEmptyLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "revenue.csv", "customer_id,month,product_id,product_name,country,billing_cycle,mrr\n")

	runner := NewRunner(dir, memory.New(), nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected error for empty load set")
	}
}
