// Package tz resolves the mixed temporal shapes found in calendar and todo
// records (bare dates, floating timestamps, zoned timestamps) into instants
// in the planner's display timezone.
package tz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
)

// ErrMalformedTemporalValue is returned for date/time text that cannot be parsed.
var ErrMalformedTemporalValue = errors.New("malformed temporal value")

// Kind tags the shape of a parsed Value.
type Kind int

const (
	CivilDate Kind = iota
	NaiveTimestamp
	ZonedTimestamp
)

func (k Kind) String() string {
	switch k {
	case CivilDate:
		return "date"
	case NaiveTimestamp:
		return "naive"
	case ZonedTimestamp:
		return "zoned"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Raw is a temporal value exactly as it appears in a source record.
type Raw struct {
	Text string
	// TZID is the zone identifier parameter attached to the value, if any.
	TZID string
	// DateOnly is set when the source explicitly typed the value as a date.
	DateOnly bool
}

func (r Raw) IsZero() bool { return strings.TrimSpace(r.Text) == "" }

// Value is a parsed temporal value. Exactly one of Date, Wall or At is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Date model.Date
	// Wall holds the wall-clock fields of a naive timestamp in UTC.
	Wall time.Time
	At   time.Time
}

// IsDate reports whether v is a bare civil date.
func (v Value) IsDate() bool { return v.Kind == CivilDate }

var (
	dateLayouts  = []string{"20060102", time.DateOnly}
	naiveLayouts = []string{
		"20060102T150405",
		"20060102T1504",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
	}
	zonedLayouts = []string{
		"20060102T150405Z",
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	}
)

// Parse turns raw text into a Value. A TZID attached to a floating timestamp
// makes it zoned; an unknown TZID leaves it naive.
func Parse(raw Raw) (Value, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return Value{}, fmt.Errorf("%w: empty value", ErrMalformedTemporalValue)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return Value{Kind: CivilDate, Date: model.DateOf(t)}, nil
		}
	}
	if raw.DateOnly {
		return Value{}, fmt.Errorf("%w: %q is not a date", ErrMalformedTemporalValue, text)
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return Value{Kind: ZonedTimestamp, At: t}, nil
		}
	}

	for _, layout := range naiveLayouts {
		wall, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		if raw.TZID != "" {
			loc, lerr := time.LoadLocation(raw.TZID)
			if lerr == nil {
				return Value{Kind: ZonedTimestamp, At: reanchor(wall, loc)}, nil
			}
			appLog.Debug("unknown TZID, treating value as floating", "tzid", raw.TZID, "value", text)
		}
		return Value{Kind: NaiveTimestamp, Wall: wall}, nil
	}

	return Value{}, fmt.Errorf("%w: %q", ErrMalformedTemporalValue, text)
}

// ParseDate extracts the civil date from a date or date-time string; any
// time portion is ignored.
func ParseDate(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	v, err := Parse(Raw{Text: s, DateOnly: true})
	if err != nil {
		return model.Date{}, err
	}
	return v.Date, nil
}

func reanchor(wall time.Time, loc *time.Location) time.Time {
	return time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), loc)
}

// Resolver converts values into instants in one display location.
type Resolver struct {
	loc *time.Location
}

// NewResolver returns a Resolver for loc; nil means time.Local.
func NewResolver(loc *time.Location) Resolver {
	if loc == nil {
		loc = time.Local
	}
	return Resolver{loc: loc}
}

// LoadResolver loads the named IANA zone.
func LoadResolver(name string) (Resolver, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Resolver{}, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return NewResolver(loc), nil
}

func (r Resolver) Location() *time.Location { return r.loc }

// Window returns the half-open [start of day, start of next day) range for
// day. Around DST changes the window is 23 or 25 hours long.
func (r Resolver) Window(day model.Date) (time.Time, time.Time) {
	return day.In(r.loc), day.AddDays(1).In(r.loc)
}

// Instant resolves v: dates become local midnight, naive timestamps are read
// as local wall time, zoned timestamps are converted.
func (r Resolver) Instant(v Value) time.Time {
	switch v.Kind {
	case CivilDate:
		return v.Date.In(r.loc)
	case NaiveTimestamp:
		return reanchor(v.Wall, r.loc)
	default:
		return v.At.In(r.loc)
	}
}

// ToInstant parses and resolves raw in one step.
func (r Resolver) ToInstant(raw Raw) (time.Time, Value, error) {
	v, err := Parse(raw)
	if err != nil {
		return time.Time{}, Value{}, err
	}
	return r.Instant(v), v, nil
}
