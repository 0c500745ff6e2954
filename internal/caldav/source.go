package caldav

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dailyplanner/internal/ics"
	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
	"dailyplanner/internal/tz"
)

// Source feeds one CalDAV account into the planner.
//
// Calendars entries starting with "http" are used as collection URLs
// directly. Any other entry is a display-name filter applied to
// discovered calendars. With no entries at all, every discovered calendar
// is read.
type Source struct {
	Client    *Client
	Calendars []string
	Resolver  tz.Resolver
	Policy    ics.RecurrencePolicy
}

func (s *Source) Name() string { return "caldav" }

func (s *Source) Fetch(ctx context.Context, day model.Date, data *model.PlannerData) error {
	cals, err := s.selectCalendars(ctx)
	if len(cals) == 0 {
		appLog.Warn("caldav: no calendars to process")
		return err
	}
	errs := []error{err}

	start, end := s.Resolver.Window(day)
	norm := ics.Normalizer{Resolver: s.Resolver, Day: day, Policy: s.Policy}
	for _, cal := range cals {
		name := cal.DisplayName()
		bodies, err := s.Client.Query(ctx, cal, start, end)
		if err != nil {
			appLog.Error("caldav query failed", err, "calendar", name)
			errs = append(errs, fmt.Errorf("calendar %s: %w", name, err))
			continue
		}

		var raws []ics.RawOccurrence
		for _, body := range bodies {
			occ, err := ics.ParseICS(name, body)
			if err != nil {
				appLog.Warn("caldav: skipping unparsable object", "calendar", name, "error", err)
				continue
			}
			raws = append(raws, occ...)
		}
		events := norm.NormalizeAll(raws)
		data.Events = append(data.Events, events...)
		appLog.Info("caldav calendar processed", "calendar", name, "objects", len(bodies), "events", len(events))
	}
	return errors.Join(errs...)
}

func (s *Source) selectCalendars(ctx context.Context) ([]Calendar, error) {
	var (
		out     []Calendar
		filters = map[string]bool{}
	)
	for _, c := range s.Calendars {
		c = strings.TrimSpace(c)
		switch {
		case c == "":
		case strings.HasPrefix(c, "http"):
			out = append(out, Calendar{URL: c})
		default:
			filters[c] = true
		}
	}
	if len(out) > 0 && len(filters) == 0 {
		return out, nil
	}

	found, err := s.Client.Discover(ctx)
	if err != nil {
		appLog.Error("caldav discovery failed", err)
		return out, fmt.Errorf("discover: %w", err)
	}
	for _, cal := range found {
		if len(filters) > 0 && !filters[cal.Name] {
			appLog.Debug("caldav: skipping calendar", "calendar", cal.DisplayName())
			continue
		}
		out = append(out, cal)
	}
	return out, nil
}
