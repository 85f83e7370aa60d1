package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"incidentdash/config"
	"incidentdash/core/dashboard"
	"incidentdash/core/loader"
	"incidentdash/core/store"
	"incidentdash/core/telemetry"
)

const testCSV = `"1","06/01/24","Exfiltration","TruePositive","7","1"
"2","06/01/24","Exfiltration","FalsePositive","5","1"
"3","06/02/24","Exfiltration","TruePositive","8","2"
"4","06/03/24","Exfiltration","BenignPositive","10","2"
"5","06/03/24","CommandAndControl","TruePositive","8","3"
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "incidents.csv")
	if err := os.WriteFile(csvPath, []byte(testCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	cfg := &config.AppConfig{
		DBDriver:   "sqlite",
		DBPath:     filepath.Join(dir, "api.db"),
		ListenAddr: "127.0.0.1:0",
		Loader:     config.LoaderConfig{CSVPath: csvPath},
		Chart:      config.ChartConfig{WidthPx: 320, HeightPx: 240},
	}
	db, err := store.NewDB(cfg, nil)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, nil); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	metrics := telemetry.NewMetrics()
	is := store.NewIncidentsStore(db, nil)
	runs := store.NewLoadRunsStore(db)
	l := loader.NewLoader(is, runs, metrics, nil)
	if _, err := l.Load(context.Background(), csvPath); err != nil {
		t.Fatalf("load: %v", err)
	}
	return NewServer(cfg, ServerDeps{
		DB:           db,
		DashboardSvc: dashboard.NewService(is, cfg.EffectiveWindow(), metrics, nil),
		Loader:       l,
		LoadRuns:     runs,
		Metrics:      metrics,
	}, nil)
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHomeListsCategories(t *testing.T) {
	s := newTestServer(t)
	rr := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `<option value="Exfiltration">`) || !strings.Contains(body, `value="grade"`) {
		t.Fatalf("expected category and field options, got %s", body)
	}
	if !strings.Contains(body, "Incident Severity</label>") || !strings.Contains(body, "Malicious Grade Type</label>") {
		t.Fatalf("expected metric labels, got %s", body)
	}
	if !strings.Contains(body, "Please select a category to analyze.") {
		t.Fatalf("expected default prompt, got %s", body)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers")
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/?notice=insufficient", nil))
	if body := rr.Body.String(); !strings.Contains(body, "Not enough data points") || strings.Contains(body, "Please select a category") {
		t.Fatalf("expected notice to replace the prompt, got %s", body)
	}
}

func TestSubmitSystemRedirects(t *testing.T) {
	s := newTestServer(t)
	rr := do(s, postForm("/submit_system", url.Values{"category": {"Exfiltration"}, "data_request": {"severity"}}))
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/api/incidents/severity/Exfiltration" {
		t.Fatalf("unexpected redirect %d %q", rr.Code, rr.Header().Get("Location"))
	}
	rr = do(s, postForm("/submit_system", url.Values{"category": {"Exfiltration"}}))
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/?notice=invalid" {
		t.Fatalf("expected redirect home on missing field, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestSubmitProjectionRedirects(t *testing.T) {
	s := newTestServer(t)
	rr := do(s, postForm("/submit_projection", url.Values{
		"category": {"Exfiltration"}, "data_request": {"grade"}, "date": {"2024-07-04"},
	}))
	want := "/api/incidents/grade/projection/Exfiltration?date=07%2F04%2F24"
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != want {
		t.Fatalf("unexpected redirect %d %q", rr.Code, rr.Header().Get("Location"))
	}
	rr = do(s, postForm("/submit_projection", url.Values{
		"category": {"Exfiltration"}, "data_request": {"grade"}, "date": {"07/04/24"},
	}))
	if rr.Header().Get("Location") != "/?notice=invalid" {
		t.Fatalf("expected redirect home on bad date, got %q", rr.Header().Get("Location"))
	}
}

func TestChartPages(t *testing.T) {
	s := newTestServer(t)
	rr := do(s, httptest.NewRequest(http.MethodGet, "/api/incidents/severity/Exfiltration", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `src="/fig/severity/Exfiltration"`) {
		t.Fatalf("unexpected history page %d %s", rr.Code, rr.Body.String())
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/api/incidents/severity/projection/Exfiltration?date=06%2F05%2F24", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected projection page, got %d", rr.Code)
	}
	// daily means 6, 8, 10 extrapolate to 14 two days later
	if !strings.Contains(rr.Body.String(), "the average Severity will be 14") {
		t.Fatalf("expected projected title, got %s", rr.Body.String())
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/api/incidents/severity/projection/CommandAndControl?date=06%2F05%2F24", nil))
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/?notice=insufficient" {
		t.Fatalf("expected redirect for insufficient data, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestFigureServesPNG(t *testing.T) {
	s := newTestServer(t)
	rr := do(s, httptest.NewRequest(http.MethodGet, "/fig/grade/Exfiltration", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "image/png" || rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("unexpected headers %v", rr.Header())
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected PNG body")
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/fig/severity/CommandAndControl?date=06%2F05%2F24", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for insufficient data, got %d", rr.Code)
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/fig/system/Exfiltration", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rr.Code)
	}
}

func TestSeriesJSON(t *testing.T) {
	s := newTestServer(t)
	rr := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/series/severity/Exfiltration?date=2024-06-05", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Mode   string `json:"mode"`
		Points []struct {
			Date  string  `json:"date"`
			Value float64 `json:"value"`
		} `json:"points"`
		Projection *struct {
			Value int `json:"value"`
		} `json:"projection"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Mode != "projected" || len(resp.Points) != 3 || resp.Points[0].Date != "06/01/24" || resp.Points[0].Value != 6 {
		t.Fatalf("unexpected series %+v", resp)
	}
	if resp.Projection == nil || resp.Projection.Value != 14 {
		t.Fatalf("unexpected projection %+v", resp.Projection)
	}

	if rr := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/series/system/Exfiltration", nil)); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rr.Code)
	}
	if rr := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/series/grade/Nope?date=06/05/24", nil)); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty category projection, got %d", rr.Code)
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "CommandAndControl") {
		t.Fatalf("unexpected categories %d %s", rr.Code, rr.Body.String())
	}
}

func TestLoadsEndpoints(t *testing.T) {
	s := newTestServer(t)
	rr := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/loads", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected reload to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	var sum loader.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.RowCount != 5 || sum.RunID == "" {
		t.Fatalf("unexpected summary %+v", sum)
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/loads", nil))
	var list struct {
		Items []store.LoadRun `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected startup and manual runs, got %d", len(list.Items))
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/loads/export", nil))
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if rr.Header().Get("Content-Type") != "text/csv; charset=utf-8" || len(lines) != 3 {
		t.Fatalf("expected header plus two CSV rows, got %q", rr.Body.String())
	}
	if !strings.HasPrefix(lines[0], "id,started_at,finished_at,source,status") {
		t.Fatalf("unexpected CSV header %q", lines[0])
	}
}

func TestUnknownPaths(t *testing.T) {
	s := newTestServer(t)
	rr := do(s, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil))
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), "not_found") {
		t.Fatalf("expected JSON 404, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestMetricsAndHealth(t *testing.T) {
	s := newTestServer(t)
	do(s, httptest.NewRequest(http.MethodGet, "/fig/severity/Exfiltration", nil))
	rr := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	if !strings.Contains(body, `incidentdash_chart_renders_total{mode="historical"} 1`) {
		t.Fatalf("expected chart counter, got %s", body)
	}
	if !strings.Contains(body, `route="/fig/{field}/{category}"`) {
		t.Fatalf("expected route-pattern label in http histogram")
	}
	rr = do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected healthy, got %d", rr.Code)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	s := &Server{}
	h := s.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
