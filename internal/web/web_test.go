package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"dailyplanner/internal/config"
	"dailyplanner/internal/model"
	"dailyplanner/internal/planner"
)

var today = model.Date{Year: 2026, Month: time.February, Day: 16}

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) Fetch(ctx context.Context, day model.Date, data *model.PlannerData) error {
	c.calls.Add(1)
	data.Events = append(data.Events, model.Event{
		Title: "Standup", Start: &model.Clock{Hour: 9}, End: &model.Clock{Hour: 9, Minute: 15}, CalendarName: "Work",
	})
	due := day
	data.Todos = append(data.Todos, model.Todo{Description: "Ship it", Due: &due})
	return c.err
}

func newTestServer(t *testing.T, auth *config.BasicAuthConfig) (*Server, *countingSource) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.OutputDir = t.TempDir()
	cfg.Remarkable.Upload = false
	cfg.BasicAuth = auth

	src := &countingSource{}
	clock := func() time.Time { return time.Date(2026, time.February, 16, 8, 0, 0, 0, time.UTC) }
	p, err := planner.New(cfg, planner.WithClock(clock), planner.WithSource(src))
	if err != nil {
		t.Fatalf("planner.New: %v", err)
	}
	return NewServer(cfg, p), src
}

func do(t *testing.T, h http.Handler, method, target string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &config.BasicAuthConfig{Username: "u", Password: "p"})
	rec := do(t, s.Handler(), http.MethodGet, "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", func(r *http.Request) {
		r.Header.Set("X-Request-ID", "abc-123")
	})
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t, &config.BasicAuthConfig{Username: "u", Password: "p"})
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/api/planner"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no creds: %d", rec.Code)
	}
	wrong := func(r *http.Request) { r.SetBasicAuth("u", "nope") }
	if rec := do(t, h, http.MethodGet, "/api/planner", wrong); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong creds: %d", rec.Code)
	}
	right := func(r *http.Request) { r.SetBasicAuth("u", "p") }
	if rec := do(t, h, http.MethodGet, "/api/planner", right); rec.Code != http.StatusOK {
		t.Fatalf("right creds: %d", rec.Code)
	}
}

func TestPlannerJSON(t *testing.T) {
	s, src := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/planner?date=2026-02-16")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Date   string `json:"date"`
		Events []struct {
			Title string `json:"title"`
			Start string `json:"start"`
		} `json:"events"`
		Todos        []json.RawMessage `json:"todos"`
		Timezone     string            `json:"timezone"`
		DayStartHour int               `json:"day_start_hour"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Date != "2026-02-16" || body.Timezone != "UTC" || body.DayStartHour != 7 {
		t.Errorf("unexpected header fields: %+v", body)
	}
	if len(body.Events) != 1 || body.Events[0].Title != "Standup" || body.Events[0].Start != "09:00" {
		t.Errorf("events = %+v", body.Events)
	}
	if len(body.Todos) != 1 {
		t.Errorf("todos = %d", len(body.Todos))
	}
	if src.calls.Load() != 1 {
		t.Errorf("source calls = %d", src.calls.Load())
	}
}

func TestPlannerCache(t *testing.T) {
	s, src := newTestServer(t, nil)
	now := time.Date(2026, time.February, 16, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	h := s.Handler()

	do(t, h, http.MethodGet, "/api/planner")
	do(t, h, http.MethodGet, "/planner.pdf")
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("calls within TTL = %d, want 1", got)
	}

	do(t, h, http.MethodGet, "/api/planner?date=2026-02-17")
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("other date should miss the cache, calls = %d", got)
	}

	now = now.Add(dataCacheTTL + time.Second)
	do(t, h, http.MethodGet, "/api/planner")
	if got := src.calls.Load(); got != 3 {
		t.Fatalf("expired entry should refetch, calls = %d", got)
	}
}

func TestPlannerSourceErrors(t *testing.T) {
	s, src := newTestServer(t, nil)
	src.err = errors.New("tracks down")
	rec := do(t, s.Handler(), http.MethodGet, "/api/planner")

	var body struct {
		SourceErrors []string `json:"source_errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.SourceErrors) != 1 || body.SourceErrors[0] != "counting: tracks down" {
		t.Errorf("source_errors = %v", body.SourceErrors)
	}
}

func TestBadDate(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, target := range []string{"/api/planner?date=16.02.2026", "/planner.pdf?date=tomorrow"} {
		if rec := do(t, s.Handler(), http.MethodGet, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestPDF(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/planner.pdf?date=2026-02-16")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `inline; filename="2026-02-16 Daily Planner.pdf"` {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}
}

func TestGenerate(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/api/generate"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/generate = %d, want 405", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/api/generate?date=2026-02-16&upload=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body generateResponse
	if err := json.NewDecoder(io.Reader(rec.Body)).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Date != today || body.Events != 1 || body.Uploaded {
		t.Errorf("unexpected response: %+v", body)
	}
	if _, err := os.Stat(body.Path); err != nil {
		t.Errorf("generated file missing: %v", err)
	}
}

func TestSplitErrors(t *testing.T) {
	if splitErrors(nil) != nil {
		t.Error("nil error should give nil")
	}
	err := errors.Join(errors.New("a"), errors.Join(errors.New("b"), errors.New("c")))
	got := splitErrors(err)
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("splitErrors = %v", got)
	}
}
