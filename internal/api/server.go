package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/malinka/malinka/internal/chart"
	"github.com/malinka/malinka/internal/config"
	"github.com/malinka/malinka/internal/dashboard"
	"github.com/malinka/malinka/internal/export"
	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/health"
	"github.com/malinka/malinka/internal/metrics"
	"github.com/malinka/malinka/internal/store"
)

const (
	minChartSize  = 200
	maxChartSize  = 2400
	reloadTimeout = time.Minute
)

// Server is the dashboard HTTP server.
type Server struct {
	store       *store.Store
	registry    *dashboard.Registry
	healthCheck *health.Checker
	metrics     *metrics.Collector
	httpServer  *http.Server
	startTime   time.Time
	listenCfg   config.ListenConfig
	reloadMu    sync.Mutex // serializes data reloads
}

// NewServer creates a new dashboard server.
func NewServer(st *store.Store, reg *dashboard.Registry, hc *health.Checker, m *metrics.Collector, lc config.ListenConfig) *Server {
	return &Server{
		store:       st,
		registry:    reg,
		healthCheck: hc,
		metrics:     m,
		startTime:   time.Now(),
		listenCfg:   lc,
	}
}

// Handler builds the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.observe)

	// JSON API
	r.HandleFunc("/api/tabs", s.listTabs).Methods("GET")
	r.HandleFunc("/api/tabs/{tab}", s.renderTab).Methods("GET")
	r.HandleFunc("/api/tabs/{tab}/options", s.tabOptions).Methods("GET")
	r.HandleFunc("/api/tabs/{tab}/charts/{chart}.png", s.chartPNG).Methods("GET")
	r.HandleFunc("/api/tabs/{tab}/export.xlsx", s.exportTab).Methods("GET")
	r.HandleFunc("/api/reload", s.reloadHandler).Methods("POST")

	// Server status
	r.HandleFunc("/status", s.statusHandler).Methods("GET")

	// Health & readiness
	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/ready", s.readyHandler).Methods("GET")

	// Prometheus metrics
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Dashboard pages; the client picks the tab from the path.
	r.HandleFunc("/", s.dashboardHandler).Methods("GET")
	r.HandleFunc("/dashboard", s.dashboardHandler).Methods("GET")
	for _, item := range s.registry.Nav() {
		if item.Path != "/" {
			r.HandleFunc(item.Path, s.dashboardHandler).Methods("GET")
		}
	}

	return s.securityHeaders(s.recoverPanics(r))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.listenCfg.Addr()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	slog.Info("dashboard listening", "addr", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "err", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Reload re-reads the data source and records the outcome.
func (s *Server) Reload(ctx context.Context) (bool, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	changed, err := s.store.Reload(ctx)
	if s.metrics != nil {
		switch {
		case err != nil:
			s.metrics.Reload(metrics.ReloadFailed)
		case changed:
			s.metrics.Reload(metrics.ReloadChanged)
		default:
			s.metrics.Reload(metrics.ReloadUnchanged)
		}
	}
	return changed, err
}

// --- Tab Handlers ---

func (s *Server) listTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Nav())
}

func (s *Server) tabOptions(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.resolve(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tab.Options(s.store.Snapshot()))
}

func (s *Server) renderTab(w http.ResponseWriter, r *http.Request) {
	p, ok := s.render(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) chartPNG(w http.ResponseWriter, r *http.Request) {
	p, ok := s.render(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["chart"]
	cfg, found := p.Chart(id)
	if !found {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}

	width, err := chartSize(r, "width", chart.DefaultWidth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	height, err := chartSize(r, "height", chart.DefaultHeight)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderPNG(cfg, width, height, &buf); err != nil {
		slog.Error("chart render failed", "tab", p.Tab, "chart", id, "err", err)
		writeError(w, http.StatusInternalServerError, "chart render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) exportTab(w http.ResponseWriter, r *http.Request) {
	p, ok := s.render(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(p, &buf); err != nil {
		slog.Error("export failed", "tab", p.Tab, "err", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="malinka-%s.xlsx"`, p.Tab))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), reloadTimeout)
	defer cancel()

	changed, err := s.Reload(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}

	ds := s.store.Snapshot()
	status := "unchanged"
	if changed {
		status = "reloaded"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      status,
		"source":      ds.Source,
		"fingerprint": ds.Fingerprint,
		"loaded_at":   ds.LoadedAt,
	})
}

// resolve looks up the {tab} route variable, answering 404 when it names
// no tab.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (dashboard.Tab, bool) {
	tab, err := s.registry.Resolve(mux.Vars(r)["tab"])
	if errors.Is(err, dashboard.ErrUnknownTab) {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return tab, true
}

// render resolves the tab and renders it for the request's filter query.
func (s *Server) render(w http.ResponseWriter, r *http.Request) (dashboard.Page, bool) {
	tab, ok := s.resolve(w, r)
	if !ok {
		return dashboard.Page{}, false
	}
	f, err := filter.Parse(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return dashboard.Page{}, false
	}

	p := tab.Render(s.store.Snapshot(), f)
	if s.metrics != nil {
		s.metrics.TabRendered(tab.Slug())
	}
	return p, true
}

func chartSize(r *http.Request, param string, def int) (int, error) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minChartSize || n > maxChartSize {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", param, minChartSize, maxChartSize)
	}
	return n, nil
}

// --- Health Handlers ---

// healthHandler reports every table, or the one named by ?table=.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if table := r.URL.Query().Get("table"); table != "" {
		s.tableHealth(w, table)
		return
	}

	statuses := s.healthCheck.GetAllStatuses()
	allHealthy := s.healthCheck.OverallHealthy()

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]interface{}{
		"status": boolToStatus(allHealthy),
		"tables": statuses,
	})
}

func (s *Server) tableHealth(w http.ResponseWriter, table string) {
	if !store.IsTable(table) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown table %q", table))
		return
	}
	healthy := s.healthCheck.IsHealthy(table)
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"table":  table,
		"status": boolToStatus(healthy),
		"health": s.healthCheck.GetStatus(table),
	})
}

// readyHandler reports ready once data from the configured source is being
// served. Sample data keeps the dashboard usable but is not ready.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Snapshot()
	if ds != nil && !ds.Fallback {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status": "not_ready",
		"reason": "serving sample data",
	})
}

// --- Status Handler ---

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	ds := s.store.Snapshot()
	settings := s.registry.Settings()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
		"memory_mb":      float64(mem.Alloc) / 1024 / 1024,
		"listen":         s.listenCfg.Addr(),
		"data": map[string]interface{}{
			"configured":  s.store.Source().Describe(),
			"source":      ds.Source,
			"fallback":    ds.Fallback,
			"fingerprint": ds.Fingerprint,
			"loaded_at":   ds.LoadedAt,
			"rows":        ds.RowCounts(),
			"skipped":     ds.Skipped,
		},
		"dashboard": map[string]interface{}{
			"year":                settings.Year,
			"top_n":               settings.TopN,
			"low_stock_threshold": settings.LowStockThreshold,
			"overdue_hours":       settings.OverdueHours,
			"refresh_interval":    settings.RefreshInterval.String(),
		},
	})
}

// --- Middleware ---

// securityHeaders adds security-related HTTP headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// recoverPanics turns a handler panic into a 500 response.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// observe records request durations by route template.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.metrics.ObserveRequest(route, r.Method, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// --- Helpers ---

// writeJSON buffers the encoded body; a value that fails to encode is
// answered with 500.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("encoding response failed", "status", status, "err", err)
		buf.Reset()
		status = http.StatusInternalServerError
		fmt.Fprintf(&buf, "{\"error\":%q}\n", "encoding response failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func boolToStatus(b bool) string {
	if b {
		return "healthy"
	}
	return "unhealthy"
}
