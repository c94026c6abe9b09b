package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"saasboard/internal/core"
	"saasboard/internal/metrics"
	"saasboard/internal/warehouse/memory"
)

func month(s string) core.MonthKey {
	return core.MustMonthKey(s)
}

func seedStore() *memory.Store {
	s := memory.New()
	s.AddRevenue(
		memory.RevenueRow{CustomerID: "c1", Month: month("2024-01"), ProductID: "p1", ProductName: "Starter", Country: "DE", BillingCycle: "monthly", MRR: 100},
		memory.RevenueRow{CustomerID: "c1", Month: month("2024-02"), ProductID: "p1", ProductName: "Starter", Country: "DE", BillingCycle: "monthly", MRR: 100},
		memory.RevenueRow{CustomerID: "c1", Month: month("2024-03"), ProductID: "p1", ProductName: "Starter", Country: "DE", BillingCycle: "monthly", MRR: 150},
		memory.RevenueRow{CustomerID: "c2", Month: month("2024-01"), ProductID: "p2", ProductName: "Pro", Country: "US", BillingCycle: "annual", MRR: 200},
		memory.RevenueRow{CustomerID: "c2", Month: month("2024-02"), ProductID: "p2", ProductName: "Pro", Country: "US", BillingCycle: "annual", MRR: 200},
		memory.RevenueRow{CustomerID: "c3", Month: month("2024-03"), ProductID: "p1", ProductName: "Starter", Country: "US", BillingCycle: "monthly", MRR: 80},
	)
	s.AddCost(core.CostRecord{Month: month("2024-03"), COGS: 46, OpEx: 92})
	s.AddCash(core.CashRecord{Month: month("2024-03"), NetMonthlyBurn: 1000, EndingCashBalance: 5000})
	return s
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := seedStore()
	srv := NewServer(":0", metrics.NewService(store), store, Options{
		CacheTTL:        time.Minute,
		CacheMaxEntries: 10,
	})
	t.Cleanup(func() {
		srv.caches.Stop()
		srv.rateLimiter.stop()
	})
	return srv
}

func doGet(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	rec = doGet(t, srv, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rec.Code)
	}
}

func TestOverviewKpisEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/overview/kpis?month=2024-03&range=Last+12M")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var resp struct {
		ARR          *float64 `json:"arr"`
		NRR          *float64 `json:"nrr"`
		BurnMultiple *float64 `json:"burn_multiple"`
		RunwayMonths *float64 `json:"runway_months"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ARR == nil || *resp.ARR != 2760 {
		t.Fatalf("expected arr 2760, got %v", resp.ARR)
	}
	if resp.NRR == nil || *resp.NRR != 0.5 {
		t.Fatalf("expected nrr 0.5, got %v", resp.NRR)
	}
	if resp.RunwayMonths == nil || *resp.RunwayMonths != 5 {
		t.Fatalf("expected runway 5, got %v", resp.RunwayMonths)
	}
	// Net new ARR is zero here, so the burn multiple is not meaningful and
	// must come back as null.
	if resp.BurnMultiple != nil {
		t.Fatalf("expected null burn multiple, got %v", *resp.BurnMultiple)
	}
}

func TestOverviewKpisFilters(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/overview/kpis?month=2024-03&country=DE")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ARR *float64 `json:"arr"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ARR == nil || *resp.ARR != 1800 {
		t.Fatalf("expected DE arr 1800, got %v", resp.ARR)
	}
}

func TestOverviewKpisBadParams(t *testing.T) {
	srv := newTestServer(t)

	for _, target := range []string{
		"/api/overview/kpis?month=March-2024",
		"/api/overview/kpis?month=2024-3",
		"/api/overview/kpis?range=Fortnight",
	} {
		rec := doGet(t, srv, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestArrBridgeEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/overview/arr-bridge?month=2024-03")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var steps []struct {
		Label string   `json:"label"`
		Value *float64 `json:"value"`
		Kind  string   `json:"kind"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &steps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(steps) != 6 {
		t.Fatalf("expected 6 steps, got %d", len(steps))
	}
	if steps[0].Label != "Starting ARR" || *steps[0].Value != 300*12 {
		t.Fatalf("unexpected first step %+v", steps[0])
	}
	if steps[5].Kind != "total" || *steps[5].Value != 230*12 {
		t.Fatalf("unexpected last step %+v", steps[5])
	}
}

func TestTopRowEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/revenue/top-row?month=2024-03")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		MRR              *float64 `json:"mrr"`
		NewLogos         int      `json:"new_logos"`
		ChurnedLogos     int      `json:"churned_logos"`
		CACPaybackMonths *float64 `json:"cac_payback_months"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CACPaybackMonths == nil || *resp.CACPaybackMonths != 12 {
		t.Fatalf("expected cac payback 12, got %v", resp.CACPaybackMonths)
	}
	if resp.NewLogos != 3 || resp.ChurnedLogos != 1 {
		t.Fatalf("unexpected logos %+v", resp)
	}
}

func TestLogoFlowsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/revenue/logo-flows?month=2024-03")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var months []struct {
		Month        string `json:"month"`
		NewLogos     int    `json:"new_logos"`
		ChurnedLogos int    `json:"churned_logos"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &months); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(months) != 3 {
		t.Fatalf("expected 3 months, got %d", len(months))
	}
	if months[0].Month != "2024-01" || months[0].NewLogos != 2 {
		t.Fatalf("unexpected first month %+v", months[0])
	}
	if months[1].ChurnedLogos != 1 {
		t.Fatalf("expected 1 churn in 2024-02, got %+v", months[1])
	}
}

func TestDimensionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/dimensions/products")
	if rec.Code != http.StatusOK {
		t.Fatalf("products status = %d", rec.Code)
	}
	var products []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	rec = doGet(t, srv, "/api/dimensions/countries")
	var countries []string
	if err := json.Unmarshal(rec.Body.Bytes(), &countries); err != nil {
		t.Fatalf("decode countries: %v", err)
	}
	if len(countries) != 2 {
		t.Fatalf("expected 2 countries, got %v", countries)
	}

	rec = doGet(t, srv, "/api/dimensions/months")
	var monthList []string
	if err := json.Unmarshal(rec.Body.Bytes(), &monthList); err != nil {
		t.Fatalf("decode months: %v", err)
	}
	if len(monthList) != 3 || monthList[0] != "2024-03" {
		t.Fatalf("expected months newest first, got %v", monthList)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/overview/kpis", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestKpiCacheServesRepeatRequests(t *testing.T) {
	srv := newTestServer(t)

	first := doGet(t, srv, "/api/overview/kpis?month=2024-03")
	if srv.kpiCache.Size() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", srv.kpiCache.Size())
	}

	second := doGet(t, srv, "/api/overview/kpis?month=2024-03")
	if first.Body.String() != second.Body.String() {
		t.Fatalf("cached response differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestFlushCaches(t *testing.T) {
	srv := newTestServer(t)

	doGet(t, srv, "/api/overview/kpis?month=2024-03")
	doGet(t, srv, "/api/overview/arr-bridge?month=2024-03")
	doGet(t, srv, "/api/dimensions/countries")

	srv.FlushCaches()

	if srv.kpiCache.Size() != 0 || srv.bridgeCache.Size() != 0 || srv.dimCache.Size() != 0 {
		t.Fatalf("expected empty caches after flush, got %d/%d/%d",
			srv.kpiCache.Size(), srv.bridgeCache.Size(), srv.dimCache.Size())
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/overview/kpis?month=2024-03")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("missing nosniff header, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("missing frame options header, got %q", got)
	}
}
