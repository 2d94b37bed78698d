package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/malinka/malinka/internal/config"
	"github.com/malinka/malinka/internal/dashboard"
	"github.com/malinka/malinka/internal/health"
	"github.com/malinka/malinka/internal/metrics"
	"github.com/malinka/malinka/internal/store"
)

// newTestServer serves sample data until a reload reads dir.
func newTestServer(t *testing.T, dir string) (*Server, http.Handler) {
	t.Helper()
	st := store.New(store.NewCSVSource(dir))
	reg := dashboard.NewRegistry(dashboard.DefaultSettings())
	hc := health.NewChecker(st.Source(), nil, config.HealthConfig{Interval: time.Minute, FailureThreshold: 1})
	s := NewServer(st, reg, hc, metrics.New(), config.ListenConfig{Bind: "127.0.0.1", Port: 8050})
	return s, s.Handler()
}

// writeEmptyTables writes a header-only CSV for every table.
func writeEmptyTables(t *testing.T, dir string) {
	t.Helper()
	for _, table := range store.Tables {
		header := strings.Join(store.RequiredColumns(table), ",") + "\n"
		if err := os.WriteFile(filepath.Join(dir, table+".csv"), []byte(header), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListTabs(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	rr := do(h, "GET", "/api/tabs")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var nav []dashboard.NavItem
	if err := json.NewDecoder(rr.Body).Decode(&nav); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(nav) != 5 {
		t.Fatalf("expected 5 tabs, got %d", len(nav))
	}
	if nav[0].Path != "/" || nav[4].Slug != dashboard.SlugOperations {
		t.Errorf("unexpected navigation %+v", nav)
	}
}

func TestRenderTab(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	rr := do(h, "GET", "/api/tabs/overview")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var p dashboard.Page
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if p.Tab != dashboard.SlugOverview {
		t.Errorf("expected overview, got %s", p.Tab)
	}
	if !p.Fallback {
		t.Error("expected sample data before the first load")
	}
	if len(p.Sections) == 0 || p.Sections[0].Cards[0].Value != "1,700 ₽" {
		t.Errorf("unexpected cards %+v", p.Sections)
	}
}

func TestRenderTabFiltered(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	rr := do(h, "GET", "/api/tabs/sales?payment_method=cash")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var p dashboard.Page
	json.NewDecoder(rr.Body).Decode(&p)
	if !strings.Contains(p.Summary, "cash") {
		t.Errorf("expected filter summary to mention cash, got %q", p.Summary)
	}
}

func TestRenderTabErrors(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	if rr := do(h, "GET", "/api/tabs/finance"); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown tab, got %d", rr.Code)
	}
	if rr := do(h, "GET", "/api/tabs/sales?start=2025-02-01&end=2025-01-01"); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for reversed range, got %d", rr.Code)
	}
	if rr := do(h, "GET", "/api/tabs/sales?start=yesterday"); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", rr.Code)
	}

	rr := do(h, "GET", "/api/tabs/finance")
	var body map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	if body["error"] == "" {
		t.Error("expected JSON error body")
	}
}

func TestTabOptions(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	rr := do(h, "GET", "/api/tabs/customers/options")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var opts dashboard.Options
	if err := json.NewDecoder(rr.Body).Decode(&opts); err != nil {
		t.Fatal(err)
	}
	if !opts.Filterable || len(opts.Fields) != 4 {
		t.Errorf("expected 4 customer filter fields, got %+v", opts)
	}

	rr = do(h, "GET", "/api/tabs/operations/options")
	json.NewDecoder(rr.Body).Decode(&opts)
	if opts.Filterable {
		t.Error("expected operations to have no filters")
	}
}

func TestChartPNG(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	rr := do(h, "GET", "/api/tabs/sales/charts/payment_methods.png?width=400&height=300")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG signature")
	}

	if rr := do(h, "GET", "/api/tabs/sales/charts/nope.png"); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown chart, got %d", rr.Code)
	}
	if rr := do(h, "GET", "/api/tabs/sales/charts/payment_methods.png?width=5"); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for tiny width, got %d", rr.Code)
	}
}

func TestExportTab(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	rr := do(h, "GET", "/api/tabs/marketing/export.xlsx")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "malinka-marketing.xlsx") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	f, err := excelize.OpenReader(rr.Body)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue("KPI", "A1"); v != "📢 Маркетинговая аналитика" {
		t.Errorf("expected marketing title, got %q", v)
	}
}

func TestReloadAndReady(t *testing.T) {
	dir := t.TempDir()
	_, h := newTestServer(t, dir)

	if rr := do(h, "GET", "/ready"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 while serving sample data, got %d", rr.Code)
	}

	// Missing files fail the reload and keep the sample snapshot.
	if rr := do(h, "POST", "/api/reload"); rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for failed reload, got %d", rr.Code)
	}

	writeEmptyTables(t, dir)
	rr := do(h, "POST", "/api/reload")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&body)
	if body["status"] != "reloaded" {
		t.Errorf("expected reloaded, got %v", body["status"])
	}

	rr = do(h, "POST", "/api/reload")
	json.NewDecoder(rr.Body).Decode(&body)
	if body["status"] != "unchanged" {
		t.Errorf("expected unchanged on second reload, got %v", body["status"])
	}

	if rr := do(h, "GET", "/ready"); rr.Code != http.StatusOK {
		t.Errorf("expected 200 after load, got %d", rr.Code)
	}
	if rr := do(h, "GET", "/api/reload"); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET reload, got %d", rr.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	dir := t.TempDir()
	s, h := newTestServer(t, dir)

	// No checks yet: every table is unknown, which counts as healthy.
	if rr := do(h, "GET", "/health"); rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}

	s.healthCheck.CheckAll()
	rr := do(h, "GET", "/health")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with missing files, got %d", rr.Code)
	}
	var body struct {
		Status string                            `json:"status"`
		Tables map[string]map[string]interface{} `json:"tables"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "unhealthy" || len(body.Tables) != len(store.Tables) {
		t.Errorf("unexpected health body %+v", body)
	}

	writeEmptyTables(t, dir)
	s.healthCheck.CheckAll()
	if rr := do(h, "GET", "/health"); rr.Code != http.StatusOK {
		t.Errorf("expected 200 once files exist, got %d", rr.Code)
	}
}

func TestHealthEndpointTable(t *testing.T) {
	dir := t.TempDir()
	s, h := newTestServer(t, dir)
	s.healthCheck.CheckAll()

	rr := do(h, "GET", "/health?table="+store.TableSales)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for missing sales file, got %d", rr.Code)
	}
	var body struct {
		Table  string                 `json:"table"`
		Status string                 `json:"status"`
		Health map[string]interface{} `json:"health"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Table != store.TableSales || body.Status != "unhealthy" || body.Health["status"] != "unhealthy" {
		t.Errorf("unexpected table health %+v", body)
	}
	if body.Health["last_error"] == nil {
		t.Error("expected last_error for the failed check")
	}

	if rr := do(h, "GET", "/health?table=orders"); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown table, got %d", rr.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	rr := do(h, "GET", "/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["listen"] != "127.0.0.1:8050" {
		t.Errorf("unexpected listen %v", body["listen"])
	}
	data, ok := body["data"].(map[string]interface{})
	if !ok || data["source"] != "sample" || data["fallback"] != true {
		t.Errorf("unexpected data status %v", body["data"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	do(h, "GET", "/api/tabs/sales")
	rr := do(h, "GET", "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	out := rr.Body.String()
	if !strings.Contains(out, `malinka_tab_renders_total{tab="sales"} 1`) {
		t.Error("expected tab render counter")
	}
	if !strings.Contains(out, `route="/api/tabs/{tab}"`) {
		t.Error("expected request duration labelled by route template")
	}
}

func TestDashboardPages(t *testing.T) {
	_, h := newTestServer(t, t.TempDir())

	for _, path := range []string{"/", "/dashboard", "/customers", "/sales", "/marketing", "/operations"} {
		rr := do(h, "GET", path)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rr.Code)
			continue
		}
		if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("%s: expected HTML, got %s", path, ct)
		}
		if rr.Header().Get("X-Frame-Options") != "DENY" {
			t.Errorf("%s: expected security headers", path)
		}
	}
	if rr := do(h, "GET", "/finance"); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown page, got %d", rr.Code)
	}
}

func TestRecoverPanics(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir())
	h := s.recoverPanics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := do(h, "GET", "/")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestReloadNonFinitePrice(t *testing.T) {
	dir := t.TempDir()
	s, h := newTestServer(t, dir)
	writeEmptyTables(t, dir)
	products := "product_id,product_name,category,price,supplier_id\n1,Phone,Elec,NaN,1\n2,Laptop,Elec,900,1\n"
	sales := "transaction_id,customer_id,product_id,quantity,payment_method,transaction_date\n" +
		"10,1,1,1,card,2025-01-01 10:00:00\n11,1,2,1,card,2025-01-01 11:00:00\n"
	for table, content := range map[string]string{store.TableProducts: products, store.TableSales: sales} {
		if err := os.WriteFile(filepath.Join(dir, table+".csv"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if rr := do(h, "POST", "/api/reload"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if n := s.store.Snapshot().Skipped[store.TableProducts]; n != 1 {
		t.Errorf("expected 1 skipped product, got %d", n)
	}

	for _, tab := range []string{dashboard.SlugOverview, dashboard.SlugSales} {
		rr := do(h, "GET", "/api/tabs/"+tab)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", tab, rr.Code)
		}
		var page dashboard.Page
		if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
			t.Errorf("failed to decode %s page: %v", tab, err)
		}
	}
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, map[string]float64{"value": math.NaN()})

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
}
