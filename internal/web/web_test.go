package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"regcal/internal/config"
	"regcal/internal/schedule"
	"regcal/internal/semester"
)

func writeDoc(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	spring := map[string]any{
		"name":              "Spring 2026",
		"startDate":         "2026-02-02",
		"lastClassDate":     "2026-05-15",
		"finalPeriodStart":  "2026-05-18",
		"finalPeriodEnd":    "2026-05-22",
		"gradesDueHasFinal": "2026-05-26",
		"gradesDueNoFinal":  "2026-05-19",
		"holidays": []map[string]string{
			{"date": "2026-02-16", "name": "Presidents Day"},
			{"date": "2026-03-23", "name": "Spring Break Start"},
			{"date": "2026-03-27", "name": "Spring Break End"},
		},
	}
	fall := map[string]any{
		"name":          "Fall 2026",
		"startDate":     "2026-08-31",
		"lastClassDate": "2026-12-11",
		"holidays":      []map[string]string{},
	}
	th := map[string]any{
		"palette": map[string]map[string]string{
			"eecs": {"red": "#990000"},
		},
		"levels":   map[string]string{"High": "eecs-red"},
		"holidays": map[string]string{"default": "eecs-red"},
	}

	cfg := config.DefaultConfig()
	cfg.CacheDir = dir
	cfg.Semesters = []config.SourceConfig{
		{ID: "spring26", URL: writeDoc(t, dir, "spring26.json", spring)},
		{ID: "fall26", URL: writeDoc(t, dir, "fall26.json", fall)},
	}
	cfg.Theme = config.SourceConfig{ID: "theme", URL: writeDoc(t, dir, "theme.json", th)}
	cfg.Events = map[string][]string{"lecture": {"monday", "wednesday"}}
	cfg.Normalize()
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	fetcher := semester.NewFetcher(filepath.Join(cfg.CacheDir, "doc-cache"))
	srv := NewServer(cfg, fetcher)
	if err := srv.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return srv
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, h http.Handler) stateResponse {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/state = %d", rec.Code)
	}
	var st stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()
	rec := do(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("/health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestGridEndpoint(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	rec := do(t, h, http.MethodGet, "/api/grid", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/grid = %d: %s", rec.Code, rec.Body.String())
	}
	var grid schedule.RenderResult
	if err := json.Unmarshal(rec.Body.Bytes(), &grid); err != nil {
		t.Fatal(err)
	}
	if grid.SemesterName != "Spring 2026" {
		t.Fatalf("SemesterName = %q", grid.SemesterName)
	}
	// The config seeded lectures on Monday and Wednesday.
	if grid.HighestOrdinal[schedule.EventLecture] == 0 {
		t.Fatal("seeded lecture days produced no occurrences")
	}
}

func TestToggleEndpoint(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	rec := do(t, h, http.MethodPost, "/api/ledger/toggle",
		map[string]string{"type": "lab", "weekday": "Friday"})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle = %d: %s", rec.Code, rec.Body.String())
	}

	st := decodeState(t, h)
	if got := st.EventDays["lab"]; len(got) != 1 || got[0] != "Friday" {
		t.Fatalf("lab days = %v", got)
	}

	rec = do(t, h, http.MethodPost, "/api/ledger/toggle",
		map[string]string{"type": "seminar", "weekday": "Friday"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type = %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/ledger/toggle",
		map[string]string{"type": "lab", "weekday": "Saturday"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("weekend toggle = %d", rec.Code)
	}
}

func TestMidtermPlacement(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	// Outside the class period: accepted silently, nothing placed.
	rec := do(t, h, http.MethodPost, "/api/ledger/midterm",
		map[string]any{"id": 1, "date": "2026-07-04"})
	if rec.Code != http.StatusOK {
		t.Fatalf("midterm = %d", rec.Code)
	}
	if st := decodeState(t, h); len(st.Midterms) != 0 {
		t.Fatalf("out-of-period midterm placed: %v", st.Midterms)
	}

	rec = do(t, h, http.MethodPost, "/api/ledger/midterm",
		map[string]any{"id": 1, "date": "2026-03-04"})
	if rec.Code != http.StatusOK {
		t.Fatalf("midterm = %d", rec.Code)
	}
	if st := decodeState(t, h); st.Midterms["1"] != "2026-03-04" {
		t.Fatalf("midterms = %v", st.Midterms)
	}

	// Empty date unplaces.
	do(t, h, http.MethodPost, "/api/ledger/midterm", map[string]any{"id": 1, "date": ""})
	if st := decodeState(t, h); len(st.Midterms) != 0 {
		t.Fatalf("midterm not cleared: %v", st.Midterms)
	}

	rec = do(t, h, http.MethodPost, "/api/ledger/midterm",
		map[string]any{"id": 3, "date": "2026-03-04"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("midterm id 3 = %d", rec.Code)
	}
}

func TestRemoveRequiresMode(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	rec := do(t, h, http.MethodPost, "/api/ledger/remove",
		map[string]any{"date": "2026-02-09", "types": []string{"lecture"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("first removal without mode = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/ledger/remove",
		map[string]any{"date": "2026-02-09", "types": []string{"lecture"}, "mode": "shift"})
	if rec.Code != http.StatusOK {
		t.Fatalf("removal with mode = %d: %s", rec.Code, rec.Body.String())
	}

	st := decodeState(t, h)
	if st.RemovalMode != "shift" || st.Removed != 1 {
		t.Fatalf("state = %+v", st)
	}
}

func TestSemesterSwitchPreservesLedger(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	do(t, h, http.MethodPost, "/api/ledger/toggle",
		map[string]string{"type": "recitation", "weekday": "Friday"})

	rec := do(t, h, http.MethodPost, "/api/semester", map[string]string{"id": "fall26"})
	if rec.Code != http.StatusOK {
		t.Fatalf("semester switch = %d: %s", rec.Code, rec.Body.String())
	}

	st := decodeState(t, h)
	if st.Semester != "fall26" {
		t.Fatalf("active semester = %q", st.Semester)
	}
	if got := st.EventDays["recitation"]; len(got) != 1 || got[0] != "Friday" {
		t.Fatalf("ledger lost across switch: %v", st.EventDays)
	}

	rec = do(t, h, http.MethodPost, "/api/semester", map[string]string{"id": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown semester = %d", rec.Code)
	}
}

func TestICSEndpoint(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	rec := do(t, h, http.MethodGet, "/schedule.ics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/schedule.ics = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=spring-2026.ics" {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("BEGIN:VCALENDAR")) {
		t.Fatal("response is not an ICS document")
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "sekrit"}
	h := newTestServer(t, cfg).Handler()

	// /health stays open.
	if rec := do(t, h, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("/health = %d", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/api/grid", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated /api/grid = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/grid", nil)
	req.SetBasicAuth("admin", "sekrit")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated /api/grid = %d", rec.Code)
	}
}

func TestCalendarPage(t *testing.T) {
	h := newTestServer(t, testConfig(t)).Handler()

	rec := do(t, h, http.MethodGet, "/calendar", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/calendar = %d", rec.Code)
	}
	body := rec.Body.String()
	if !bytes.Contains([]byte(body), []byte(`data-ready="true"`)) {
		t.Fatal("page is missing the capture readiness marker")
	}
	if !bytes.Contains([]byte(body), []byte("Spring 2026")) {
		t.Fatal("page is missing the semester name")
	}
}
