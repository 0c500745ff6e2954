// Package source defines the provider interface the planner collects from.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
)

// Source contributes events or todos for one day. Fetch appends to data
// and may return a partial error after appending what it could.
type Source interface {
	Name() string
	Fetch(ctx context.Context, day model.Date, data *model.PlannerData) error
}

// Result is the outcome of one source during Collect.
type Result struct {
	Name     string
	Events   int
	Todos    int
	Duration time.Duration
	Err      error
}

// Collect runs every source concurrently and merges what they produced
// into a fresh PlannerData. Each source writes into its own buffer; the
// buffers are appended in the order sources were given, so the event
// order (and with it calendar coloring) does not depend on timing.
//
// A failing source never aborts the others. Its error is reported in the
// matching Result.
func Collect(ctx context.Context, day model.Date, sources ...Source) (*model.PlannerData, []Result) {
	parts := make([]*model.PlannerData, len(sources))
	results := make([]Result, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		parts[i] = model.NewPlannerData(day)
		g.Go(func() error {
			start := time.Now()
			err := src.Fetch(ctx, day, parts[i])
			results[i] = Result{
				Name:     src.Name(),
				Events:   len(parts[i].Events),
				Todos:    len(parts[i].Todos),
				Duration: time.Since(start),
				Err:      err,
			}
			if err != nil {
				appLog.Warn("source finished with errors", "source", src.Name(), "error", err)
			} else {
				appLog.Debug("source finished", "source", src.Name(), "events", results[i].Events, "todos", results[i].Todos)
			}
			return nil
		})
	}
	_ = g.Wait()

	data := model.NewPlannerData(day)
	for _, p := range parts {
		data.Events = append(data.Events, p.Events...)
		data.Todos = append(data.Todos, p.Todos...)
	}
	return data, results
}

// Errors flattens the failed results into one error, or nil.
func Errors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}
