// Package web serves the grid API, the ledger mutation endpoints, and
// the server-rendered calendar page. Every mutation recomputes the full
// grid under the state mutex before responding; there is no incremental
// update path.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"

	"regcal/internal/capture"
	"regcal/internal/config"
	"regcal/internal/export"
	appLog "regcal/internal/log"
	"regcal/internal/model"
	"regcal/internal/schedule"
	"regcal/internal/semester"
	"regcal/internal/theme"
)

// Server holds the session state: the active semester, the theme
// resolver, and the one mutable ledger. All access goes through mu.
type Server struct {
	cfg     *config.Config
	fetcher *semester.Fetcher
	mux     *http.ServeMux

	mu       sync.RWMutex
	activeID string
	sem      *model.Semester
	resolver *theme.Resolver
	ledger   *schedule.Ledger
	grid     *schedule.RenderResult
}

// NewServer constructs a Server; call Init before serving.
func NewServer(cfg *config.Config, fetcher *semester.Fetcher) *Server {
	s := &Server{
		cfg:     cfg,
		fetcher: fetcher,
		mux:     http.NewServeMux(),
		ledger:  schedule.NewLedger(),
	}
	s.registerRoutes()
	return s
}

// Init loads the theme and the active semester and seeds the ledger
// from the config's initial weekday selections. A theme failure is
// non-fatal: color resolution degrades to no-ops.
func (s *Server) Init(ctx context.Context) error {
	if s.cfg.Theme.URL != "" {
		th, err := semester.LoadTheme(ctx, s.fetcher, semester.Source{ID: s.cfg.Theme.ID, URL: s.cfg.Theme.URL})
		if err != nil {
			appLog.Error("theme unavailable; rendering without colors", err, "id", s.cfg.Theme.ID)
		} else {
			s.resolver = theme.NewResolver(th)
		}
	}

	seedLedger(s.ledger, s.cfg.Events)

	if err := s.loadSemester(ctx, s.cfg.Active); err != nil {
		return err
	}
	return nil
}

// Refresh re-fetches the active semester and the theme. Wired to the
// cron scheduler in serve mode.
func (s *Server) Refresh(ctx context.Context) {
	s.mu.RLock()
	active := s.activeID
	s.mu.RUnlock()

	if s.cfg.Theme.URL != "" {
		th, err := semester.LoadTheme(ctx, s.fetcher, semester.Source{ID: s.cfg.Theme.ID, URL: s.cfg.Theme.URL})
		if err != nil {
			appLog.Error("theme refresh failed; keeping previous theme", err)
		} else {
			s.mu.Lock()
			s.resolver = theme.NewResolver(th)
			s.mu.Unlock()
		}
	}

	if err := s.loadSemester(ctx, active); err != nil {
		appLog.Error("semester refresh failed; keeping previous data", err, "id", active)
	}
}

// Grid returns the current rendered grid.
func (s *Server) Grid() *schedule.RenderResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid
}

// Semester returns the active semester document.
func (s *Server) Semester() *model.Semester {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sem
}

// loadSemester fetches the semester with the given ID and recomputes.
// The ledger is deliberately left untouched across a switch; midterms
// outside the new class period simply stop rendering.
func (s *Server) loadSemester(ctx context.Context, id string) error {
	src, ok := s.sourceFor(id)
	if !ok {
		return fmt.Errorf("unknown semester %q", id)
	}
	sem, err := semester.LoadSemester(ctx, s.fetcher, src)
	if err != nil {
		return err
	}

	if missing := semester.MissingHolidays(sem, s.cfg.RequiredHolidays); len(missing) > 0 {
		appLog.Warn("semester is missing expected holidays", "id", id, "missing", strings.Join(missing, ", "))
	}

	s.mu.Lock()
	s.activeID = id
	s.sem = sem
	s.recomputeLocked()
	s.mu.Unlock()
	return nil
}

func (s *Server) sourceFor(id string) (semester.Source, bool) {
	for _, sc := range s.cfg.Semesters {
		if sc.ID == id {
			return semester.Source{ID: sc.ID, URL: sc.URL}, true
		}
	}
	return semester.Source{}, false
}

// recomputeLocked rebuilds the grid; the caller holds mu.
func (s *Server) recomputeLocked() {
	s.grid = schedule.Render(s.sem, s.resolver, s.ledger)
	for _, w := range s.grid.Warnings {
		appLog.Warn("render warning", "semester", s.activeID, "warning", w)
	}
}

// seedLedger applies the config's initial weekday selections.
func seedLedger(led *schedule.Ledger, events map[string][]string) {
	for name, days := range events {
		t := schedule.EventType(name)
		if !t.Valid() {
			appLog.Warn("ignoring unknown event type in config", "type", name)
			continue
		}
		for _, dayName := range days {
			wd, ok := parseWeekday(dayName)
			if !ok {
				appLog.Warn("ignoring unknown weekday in config", "type", name, "weekday", dayName)
				continue
			}
			if !led.HasEventOn(t, wd) {
				led.ToggleEventDay(t, wd)
			}
		}
	}
}

func parseWeekday(name string) (time.Weekday, bool) {
	for wd := time.Monday; wd <= time.Friday; wd++ {
		if strings.EqualFold(name, wd.String()) {
			return wd, true
		}
	}
	return 0, false
}

// Handler returns the http.Handler: request logging around the mux,
// plus basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return handlers.CombinedLoggingHandler(os.Stderr, h)
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="regcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves until ctx is canceled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, s *Server) error {
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/grid", s.handleGrid)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.HandleFunc("/api/classdays", s.handleClassDays)
	s.mux.HandleFunc("/api/ledger/toggle", s.handleToggle)
	s.mux.HandleFunc("/api/ledger/final", s.handleFinal)
	s.mux.HandleFunc("/api/ledger/midterm", s.handleMidterm)
	s.mux.HandleFunc("/api/ledger/remove", s.handleRemove)
	s.mux.HandleFunc("/api/semester", s.handleSemester)
	s.mux.HandleFunc("/api/capture", s.handleCapture)
	s.mux.HandleFunc("/calendar", s.handleCalendar)
	s.mux.HandleFunc("/schedule.ics", s.handleICS)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	s.mu.RLock()
	grid := s.grid
	s.mu.RUnlock()
	if grid == nil {
		writeError(w, http.StatusServiceUnavailable, "no semester loaded")
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// stateResponse is the JSON shape for /api/state.
type stateResponse struct {
	Semester    string              `json:"semester"`
	HasFinal    bool                `json:"has_final"`
	EventDays   map[string][]string `json:"event_days"`
	Midterms    map[string]string   `json:"midterms"`
	RemovalMode string              `json:"removal_mode"`
	Removed     int                 `json:"removed"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := stateResponse{
		Semester:    s.activeID,
		HasFinal:    s.ledger.HasFinal(),
		EventDays:   make(map[string][]string),
		Midterms:    make(map[string]string),
		RemovalMode: string(s.ledger.RemovalPolicy()),
		Removed:     s.ledger.RemovedCount(),
	}
	for _, t := range schedule.EventTypes {
		for _, wd := range s.ledger.EventDays(t) {
			resp.EventDays[string(t)] = append(resp.EventDays[string(t)], wd.String())
		}
	}
	for _, id := range []int{1, 2} {
		if d := s.ledger.MidtermDate(id); d != "" {
			resp.Midterms[fmt.Sprint(id)] = d
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClassDays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	s.mu.RLock()
	sem := s.sem
	s.mu.RUnlock()
	if sem == nil {
		writeError(w, http.StatusServiceUnavailable, "no semester loaded")
		return
	}
	writeJSON(w, http.StatusOK, semester.CountClassDays(sem))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    string `json:"type"`
		Weekday string `json:"weekday"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	t := schedule.EventType(req.Type)
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "unknown event type")
		return
	}
	wd, ok := parseWeekday(req.Weekday)
	if !ok {
		writeError(w, http.StatusBadRequest, "weekday must be Monday..Friday")
		return
	}

	s.mu.Lock()
	s.ledger.ToggleEventDay(t, wd)
	s.recomputeLocked()
	grid := s.grid
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleFinal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HasFinal bool `json:"hasFinal"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	s.ledger.SetHasFinal(req.HasFinal)
	s.recomputeLocked()
	grid := s.grid
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleMidterm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   int    `json:"id"`
		Date string `json:"date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID != 1 && req.ID != 2 {
		writeError(w, http.StatusBadRequest, "midterm id must be 1 or 2")
		return
	}

	s.mu.Lock()
	switch {
	case req.Date == "":
		s.ledger.ClearMidterm(req.ID)
		s.recomputeLocked()
	case semester.NewClassifier(s.sem).InClassPeriod(req.Date):
		s.ledger.PlaceMidterm(req.ID, req.Date)
		s.recomputeLocked()
	default:
		// Outside the class period: rejected silently, no state change.
	}
	grid := s.grid
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date  string   `json:"date"`
		Types []string `json:"types"`
		Mode  string   `json:"mode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Date == "" || len(req.Types) == 0 {
		writeError(w, http.StatusBadRequest, "date and types are required")
		return
	}

	occs := make([]schedule.Occurrence, 0, len(req.Types))
	for _, name := range req.Types {
		t := schedule.EventType(name)
		if !t.Valid() {
			writeError(w, http.StatusBadRequest, "unknown event type")
			return
		}
		occs = append(occs, schedule.Occurrence{Date: req.Date, Type: t})
	}

	s.mu.Lock()
	err := s.ledger.Remove(schedule.RemovalMode(req.Mode), occs...)
	if err == nil {
		s.recomputeLocked()
	}
	grid := s.grid
	s.mu.Unlock()

	if errors.Is(err, schedule.ErrRemovalModeRequired) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleSemester(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.loadSemester(r.Context(), req.ID); err != nil {
		var dle *semester.DataLoadError
		if errors.As(err, &dle) {
			writeError(w, http.StatusBadGateway, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, s.Grid())
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	sem := s.sem
	led := s.ledger
	s.mu.RUnlock()
	if sem == nil {
		writeError(w, http.StatusServiceUnavailable, "no semester loaded")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename(sem))
	if err := export.WriteSchedule(w, sem, led); err != nil {
		appLog.Error("ics export failed", err, "semester", s.activeID)
	}
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	out := s.previewPath()
	err := capture.GridPNG(r.Context(), capture.Options{
		URL:        "http://" + s.cfg.Listen + "/calendar",
		OutputPath: out,
		Width:      s.cfg.Preview.Width,
		Height:     s.cfg.Preview.Height,
	})
	if err != nil {
		appLog.Error("capture failed", err)
		writeError(w, http.StatusInternalServerError, "capture failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"preview": "/preview.png"})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.previewPath())
}

func (s *Server) previewPath() string {
	return filepath.Join(s.cfg.CacheDir, "preview.png")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
