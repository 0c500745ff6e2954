package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned by ParseDate for values that are not YYYY-MM-DD.
var ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")

// Date is a civil calendar date with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// In returns midnight at the start of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Clock is a time of day. Hour 24 with Minute 0 marks the end of the day,
// used for events that run past midnight.
type Clock struct {
	Hour   int
	Minute int
}

// ClockOf returns the wall-clock time of t in t's own location.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Hours returns the clock as fractional hours since midnight.
func (c Clock) Hours() float64 {
	return float64(c.Hour) + float64(c.Minute)/60.0
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Event is one occurrence on the planner's target date, already normalized
// into the display timezone.
//
// AllDay events carry no clock times. Timed events always have Start; End is
// nil when the source had no end.
type Event struct {
	Title        string `json:"title"`
	AllDay       bool   `json:"all_day"`
	Start        *Clock `json:"start,omitempty"`
	End          *Clock `json:"end,omitempty"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description,omitempty"`
	CalendarName string `json:"calendar"`
}

// Todo is a single task from the GTD source.
type Todo struct {
	Description string `json:"description"`
	Context     string `json:"context,omitempty"`
	Project     string `json:"project,omitempty"`
	Due         *Date  `json:"due,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Priority    int    `json:"priority,omitempty"`
}

// PlannerData aggregates everything drawn on one day's page. Sources append
// to it during collection; afterwards it is only read.
type PlannerData struct {
	Date   Date    `json:"date"`
	Events []Event `json:"events"`
	Todos  []Todo  `json:"todos"`
}

// NewPlannerData returns an empty aggregate for day.
func NewPlannerData(day Date) *PlannerData {
	return &PlannerData{
		Date:   day,
		Events: []Event{},
		Todos:  []Todo{},
	}
}

// AllDayEvents returns the all-day events in insertion order.
func (p *PlannerData) AllDayEvents() []Event {
	out := make([]Event, 0)
	for _, ev := range p.Events {
		if ev.AllDay {
			out = append(out, ev)
		}
	}
	return out
}

// TimedEvents returns the timed events in insertion order.
func (p *PlannerData) TimedEvents() []Event {
	out := make([]Event, 0)
	for _, ev := range p.Events {
		if !ev.AllDay {
			out = append(out, ev)
		}
	}
	return out
}
