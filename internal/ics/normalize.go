package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
	"dailyplanner/internal/tz"
)

// ErrMissingStart is returned for VEVENTs without DTSTART.
var ErrMissingStart = errors.New("occurrence has no start")

// RecurrencePolicy decides what happens to a recurring event whose rule
// cannot be evaluated.
type RecurrencePolicy int

const (
	// KeepOnFailure keeps the occurrence at its original, un-shifted time.
	// A recurring appointment may then show on a day it does not fall on.
	KeepOnFailure RecurrencePolicy = iota
	// DropOnFailure skips the occurrence.
	DropOnFailure
)

// ParseRecurrencePolicy accepts "keep" or "drop"; empty means keep.
func ParseRecurrencePolicy(s string) (RecurrencePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return KeepOnFailure, nil
	case "drop":
		return DropOnFailure, nil
	default:
		return KeepOnFailure, fmt.Errorf("unknown recurrence failure policy %q", s)
	}
}

func (p RecurrencePolicy) String() string {
	if p == DropOnFailure {
		return "drop"
	}
	return "keep"
}

// Normalizer turns raw occurrences into events for a single target day.
type Normalizer struct {
	Resolver tz.Resolver
	Day      model.Date
	Policy   RecurrencePolicy
}

// Normalize evaluates one raw occurrence against the target day.
//
// keep reports whether the event belongs on the page. err explains a
// problem with the record: with keep=false the record was malformed and
// skipped, with keep=true the recurrence rule failed and the event was kept
// un-shifted under KeepOnFailure. keep=false with a nil err simply means the
// occurrence is on another day.
//
// Non-recurring events are kept only on the civil date they start on, even
// when they span several days.
func (n Normalizer) Normalize(raw RawOccurrence) (ev model.Event, keep bool, err error) {
	if raw.Start.IsZero() {
		return model.Event{}, false, ErrMissingStart
	}

	start, startVal, err := n.Resolver.ToInstant(raw.Start)
	if err != nil {
		return model.Event{}, false, fmt.Errorf("start: %w", err)
	}

	var end *time.Time
	if raw.End != nil && !raw.End.IsZero() {
		e, _, err := n.Resolver.ToInstant(*raw.End)
		if err != nil {
			return model.Event{}, false, fmt.Errorf("end: %w", err)
		}
		end = &e
	}

	var warn error
	if raw.RRule == "" {
		if model.DateOf(start) != n.Day {
			return model.Event{}, false, nil
		}
	} else {
		dayStart, dayEnd := n.Resolver.Window(n.Day)
		// Close the upper bound: an occurrence at the next midnight belongs
		// to the next day.
		occ, ok, rerr := OccursOn(raw.RRule, start, dayStart, dayEnd.Add(-time.Nanosecond), n.exdates(raw)...)
		switch {
		case rerr != nil:
			if n.Policy == DropOnFailure {
				return model.Event{}, false, rerr
			}
			warn = rerr
		case !ok:
			return model.Event{}, false, nil
		default:
			if end != nil {
				shifted := occ.Add(end.Sub(start))
				end = &shifted
			}
			start = occ
		}
	}

	ev = model.Event{
		Title:        raw.Title,
		Location:     raw.Location,
		Description:  raw.Description,
		CalendarName: raw.CalendarName,
	}
	if startVal.IsDate() {
		ev.AllDay = true
		return ev, true, warn
	}

	startClock := model.ClockOf(start)
	ev.Start = &startClock
	if end != nil {
		endClock := model.ClockOf(*end)
		if model.DateOf(*end).After(model.DateOf(start)) {
			endClock = model.Clock{Hour: 24}
		}
		ev.End = &endClock
	}
	return ev, true, warn
}

func (n Normalizer) exdates(raw RawOccurrence) []time.Time {
	out := make([]time.Time, 0, len(raw.ExDates))
	for _, ex := range raw.ExDates {
		t, _, err := n.Resolver.ToInstant(ex)
		if err != nil {
			appLog.Debug("ignoring malformed EXDATE", "uid", raw.UID, "value", ex.Text)
			continue
		}
		out = append(out, t)
	}
	return out
}

// NormalizeAll normalizes a batch, logging and skipping bad records, and
// returns the day's events in input order with duplicates removed.
//
// Instances overridden by a RECURRENCE-ID VEVENT are excluded from their
// series; the override itself is normalized like any single event.
func (n Normalizer) NormalizeAll(raws []RawOccurrence) []model.Event {
	overrides := make(map[string][]tz.Raw)
	for _, raw := range raws {
		if raw.RecurrenceID != nil && raw.UID != "" {
			overrides[raw.UID] = append(overrides[raw.UID], *raw.RecurrenceID)
		}
	}

	seen := make(map[string]struct{})
	out := make([]model.Event, 0)
	for _, raw := range raws {
		if raw.RRule != "" && raw.RecurrenceID == nil {
			if ov := overrides[raw.UID]; len(ov) > 0 {
				raw.ExDates = append(append([]tz.Raw{}, raw.ExDates...), ov...)
			}
		}

		ev, keep, err := n.Normalize(raw)
		if err != nil {
			if keep {
				appLog.Warn("recurrence check failed, keeping original occurrence", "title", raw.Title,
					"calendar", raw.CalendarName, "rrule", raw.RRule, "err", err)
			} else {
				appLog.Warn("skipping calendar entry", "title", raw.Title,
					"calendar", raw.CalendarName, "uid", raw.UID, "err", err)
			}
		}
		if !keep {
			continue
		}

		key := eventKey(ev)
		if _, dup := seen[key]; dup {
			appLog.Debug("dropping duplicate event", "title", ev.Title, "calendar", ev.CalendarName)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
		appLog.Debug("added event", "title", ev.Title, "calendar", ev.CalendarName)
	}
	return out
}

func eventKey(ev model.Event) string {
	var b strings.Builder
	b.WriteString(ev.CalendarName)
	b.WriteByte(0)
	b.WriteString(ev.Title)
	b.WriteByte(0)
	if ev.AllDay {
		b.WriteString("allday")
	}
	if ev.Start != nil {
		b.WriteString(ev.Start.String())
	}
	b.WriteByte('-')
	if ev.End != nil {
		b.WriteString(ev.End.String())
	}
	b.WriteByte(0)
	b.WriteString(ev.Location)
	return b.String()
}
