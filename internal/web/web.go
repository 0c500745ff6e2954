// Package web serves the planner over HTTP: a JSON view of the collected
// day, the rendered PDF and a manual generate trigger.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dailyplanner/internal/config"
	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
	"dailyplanner/internal/planner"
)

const dataCacheTTL = 30 * time.Second

// Server provides the HTTP API.
type Server struct {
	cfg     *config.Config
	planner *planner.Planner
	mux     *http.ServeMux
	now     func() time.Time

	// In-memory cache of collected data per day, so that reloading the
	// JSON view or the PDF does not hit every source again.
	cacheMu sync.Mutex
	cache   map[model.Date]*dataCache
}

type dataCache struct {
	data      *model.PlannerData
	err       error
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, p *planner.Planner) *Server {
	s := &Server{
		cfg:     cfg,
		planner: p,
		mux:     http.NewServeMux(),
		now:     time.Now,
		cache:   make(map[model.Date]*dataCache),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler with request logging and, when
// configured, basic auth.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestLogger(h)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
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
			w.Header().Set("WWW-Authenticate", `Basic realm="Daily Planner", charset="UTF-8"`)
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

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger tags every request with an X-Request-ID and logs it once
// the response is written.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request", "id", id, "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "took", time.Since(start).Round(time.Millisecond))
	})
}

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/planner", s.handlePlanner)
	s.mux.HandleFunc("GET /planner.pdf", s.handlePDF)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// plannerResponse is the JSON response shape for /api/planner.
type plannerResponse struct {
	*model.PlannerData
	Timezone     string   `json:"timezone"`
	DayStartHour int      `json:"day_start_hour"`
	DayEndHour   int      `json:"day_end_hour"`
	SourceErrors []string `json:"source_errors,omitempty"`
}

// handlePlanner returns the collected events and todos for a day.
//
// GET /api/planner?date=2026-02-16 (default: today)
func (s *Server) handlePlanner(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}
	data, srcErr := s.collect(r.Context(), day)
	resp := plannerResponse{
		PlannerData:  data,
		Timezone:     s.cfg.Timezone,
		DayStartHour: s.cfg.DayStartHour,
		DayEndHour:   s.cfg.DayEndHour,
		SourceErrors: splitErrors(srcErr),
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePDF renders the planner for a day without writing it to disk.
//
// GET /planner.pdf?date=2026-02-16 (default: today)
func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}
	data, _ := s.collect(r.Context(), day)
	body, err := s.planner.Render(data)
	if err != nil {
		appLog.Error("render failed", err, "date", day)
		writeError(w, http.StatusInternalServerError, "failed to render planner")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", planner.DocumentName(day)+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type generateResponse struct {
	Date         model.Date `json:"date"`
	Path         string     `json:"path"`
	Events       int        `json:"events"`
	Todos        int        `json:"todos"`
	Bytes        int        `json:"bytes"`
	Uploaded     bool       `json:"uploaded"`
	SourceErrors []string   `json:"source_errors,omitempty"`
}

// handleGenerate runs a full generation (write + optional upload).
//
// POST /api/generate?date=2026-02-16&upload=0
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}
	upload := s.cfg.Remarkable.Upload
	switch r.URL.Query().Get("upload") {
	case "0", "false":
		upload = false
	case "1", "true":
		upload = true
	}

	res, err := s.planner.Generate(r.Context(), planner.Options{Date: day, Upload: upload})
	if err != nil {
		appLog.Error("generate failed", err, "date", day)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.invalidate(day)
	writeJSON(w, http.StatusOK, generateResponse{
		Date:         res.Date,
		Path:         res.Path,
		Events:       res.Events,
		Todos:        res.Todos,
		Bytes:        res.Bytes,
		Uploaded:     res.Uploaded,
		SourceErrors: splitErrors(res.SourceErrors),
	})
}

func (s *Server) parseDay(w http.ResponseWriter, r *http.Request) (model.Date, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return s.planner.Today(), true
	}
	day, err := model.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return model.Date{}, false
	}
	return day, true
}

// collect returns cached data for day when it is younger than
// dataCacheTTL.
func (s *Server) collect(ctx context.Context, day model.Date) (*model.PlannerData, error) {
	now := s.now()
	s.cacheMu.Lock()
	c := s.cache[day]
	s.cacheMu.Unlock()
	if c != nil && now.Sub(c.updatedAt) < dataCacheTTL {
		return c.data, c.err
	}

	data, err := s.planner.Collect(ctx, planner.Options{Date: day})
	if data == nil {
		data = model.NewPlannerData(day)
	}

	s.cacheMu.Lock()
	s.cache[day] = &dataCache{data: data, err: err, updatedAt: now}
	s.cacheMu.Unlock()
	return data, err
}

func (s *Server) invalidate(day model.Date) {
	s.cacheMu.Lock()
	delete(s.cache, day)
	s.cacheMu.Unlock()
}

// splitErrors flattens a joined error into its messages.
func splitErrors(err error) []string {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range j.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	return []string{err.Error()}
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
