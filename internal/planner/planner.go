// Package planner wires sources, layout, rendering and upload into one
// generation run.
package planner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"dailyplanner/internal/caldav"
	"dailyplanner/internal/config"
	"dailyplanner/internal/ics"
	"dailyplanner/internal/layout"
	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
	"dailyplanner/internal/render"
	"dailyplanner/internal/source"
	"dailyplanner/internal/tracks"
	"dailyplanner/internal/tz"
)

// Uploader sends a finished PDF somewhere. *remarkable.Uploader
// satisfies it.
type Uploader interface {
	Upload(ctx context.Context, pdfPath, documentName string) error
}

// Options select what one run does.
type Options struct {
	// Date is the target day; zero means today in the configured zone.
	Date model.Date
	// Output is the PDF path; empty means <output_dir>/planner-<date>.pdf.
	Output string

	SkipCalDAV bool
	SkipTracks bool
	SkipICS    bool

	Upload bool
}

// Result summarizes one Generate run.
type Result struct {
	Date     model.Date
	Path     string
	Events   int
	Todos    int
	Bytes    int
	Uploaded bool
	// SourceErrors holds per-source failures. They do not fail the run.
	SourceErrors error
}

// Planner is safe for concurrent use; every run builds its own color
// assignment and data.
type Planner struct {
	cfg      *config.Config
	resolver tz.Resolver
	client   *http.Client
	uploader Uploader
	now      func() time.Time

	// extra sources are appended after the configured ones.
	extra []source.Source
}

type Option func(*Planner)

// WithHTTPClient sets the client used by every network source.
func WithHTTPClient(c *http.Client) Option { return func(p *Planner) { p.client = c } }

// WithUploader sets the upload target. Without one, uploads are skipped.
func WithUploader(u Uploader) Option { return func(p *Planner) { p.uploader = u } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(p *Planner) { p.now = now } }

// WithSource adds a source on top of the configured ones.
func WithSource(s source.Source) Option {
	return func(p *Planner) { p.extra = append(p.extra, s) }
}

// New validates cfg and builds a planner.
func New(cfg *config.Config, opts ...Option) (*Planner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resolver, err := tz.LoadResolver(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	p := &Planner{cfg: cfg, resolver: resolver, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Today is the current civil date in the display zone.
func (p *Planner) Today() model.Date {
	return model.DateOf(p.now().In(p.resolver.Location()))
}

// Sources builds the providers enabled by cfg and not skipped by opts.
func (p *Planner) Sources(opts Options) ([]source.Source, error) {
	var out []source.Source
	policy := p.cfg.Policy()

	if !opts.SkipCalDAV && p.cfg.CalDAV.Enabled() {
		c := p.cfg.CalDAV
		client, err := caldav.NewClient(c.URL, c.Username, c.Password, p.client)
		if err != nil {
			return nil, err
		}
		out = append(out, &caldav.Source{
			Client:    client,
			Calendars: c.Calendars,
			Resolver:  p.resolver,
			Policy:    policy,
		})
	}
	if !opts.SkipICS && len(p.cfg.ICS) > 0 {
		subs := make([]ics.Subscription, 0, len(p.cfg.ICS))
		for _, s := range p.cfg.ICS {
			subs = append(subs, ics.Subscription{ID: s.ID, Name: s.Name, URL: s.URL})
		}
		out = append(out, &ics.SubscriptionSource{
			Fetcher:       ics.NewFetcher(p.client),
			Subscriptions: subs,
			Resolver:      p.resolver,
			Policy:        policy,
		})
	}
	if !opts.SkipTracks && p.cfg.Tracks.Enabled() {
		t := p.cfg.Tracks
		out = append(out, &tracks.Source{BaseURL: t.URL, Username: t.Username, Password: t.Password, Client: p.client})
	}
	return append(out, p.extra...), nil
}

func (p *Planner) day(opts Options) model.Date {
	if opts.Date.IsZero() {
		return p.Today()
	}
	return opts.Date
}

// Collect gathers the day's events and todos. Source failures are logged
// and returned alongside whatever the healthy sources produced.
func (p *Planner) Collect(ctx context.Context, opts Options) (*model.PlannerData, error) {
	day := p.day(opts)
	sources, err := p.Sources(opts)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		appLog.Warn("no sources configured; the page will be empty", "date", day)
	}

	data, results := source.Collect(ctx, day, sources...)
	for _, r := range results {
		appLog.Info("source collected", "source", r.Name, "events", r.Events, "todos", r.Todos, "took", r.Duration.Round(time.Millisecond))
	}
	return data, source.Errors(results)
}

// Layout computes the page primitives for data.
func (p *Planner) Layout(data *model.PlannerData) ([]layout.Primitive, error) {
	return layout.Layout(layout.Input{
		Data:         data,
		DayStartHour: p.cfg.DayStartHour,
		DayEndHour:   p.cfg.DayEndHour,
		Colors:       layout.NewColorAssigner(),
		GeneratedAt:  p.now().In(p.resolver.Location()),
	})
}

// Render lays out data and returns the PDF bytes.
func (p *Planner) Render(data *model.PlannerData) ([]byte, error) {
	prims, err := p.Layout(data)
	if err != nil {
		return nil, err
	}
	return p.pdf(data.Date).Bytes(prims)
}

func (p *Planner) pdf(day model.Date) render.PDF {
	return render.PDF{Title: DocumentName(day), Created: p.now()}
}

// DocumentName is the title used for the PDF and the uploaded document.
func DocumentName(day model.Date) string {
	return day.String() + " Daily Planner"
}

// OutputPath is where a run writes the PDF for day.
func (p *Planner) OutputPath(opts Options, day model.Date) string {
	if opts.Output != "" {
		return opts.Output
	}
	return filepath.Join(p.cfg.OutputDir, fmt.Sprintf("planner-%s.pdf", day))
}

// Generate runs collect, layout, render, write and, when asked, upload.
// Source errors are reported in the Result; layout, write and upload
// errors fail the run.
func (p *Planner) Generate(ctx context.Context, opts Options) (*Result, error) {
	day := p.day(opts)
	opts.Date = day
	appLog.Info("generating planner", "date", day)

	data, srcErr := p.Collect(ctx, opts)
	if data == nil {
		return nil, srcErr
	}
	res := &Result{
		Date:         day,
		Path:         p.OutputPath(opts, day),
		Events:       len(data.Events),
		Todos:        len(data.Todos),
		SourceErrors: srcErr,
	}

	prims, err := p.Layout(data)
	if err != nil {
		return res, fmt.Errorf("layout: %w", err)
	}
	pdf := p.pdf(day)
	body, err := pdf.Bytes(prims)
	if err != nil {
		return res, fmt.Errorf("render: %w", err)
	}
	if err := render.WriteFile(res.Path, body); err != nil {
		return res, fmt.Errorf("write %s: %w", res.Path, err)
	}
	res.Bytes = len(body)
	appLog.Info("planner written", "path", res.Path, "size", humanize.Bytes(uint64(len(body))),
		"events", res.Events, "todos", res.Todos)

	if !opts.Upload {
		return res, nil
	}
	if p.uploader == nil {
		appLog.Warn("upload requested but no uploader configured")
		return res, nil
	}
	if err := p.uploader.Upload(ctx, res.Path, DocumentName(day)); err != nil {
		return res, fmt.Errorf("upload: %w", err)
	}
	res.Uploaded = true
	return res, nil
}
