package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-02-16")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Date{Year: 2026, Month: time.February, Day: 16}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := ParseDate("16.02.2026"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("got error %v, want %v", err, ErrInvalidDate)
	}
}

func TestDateCompare(t *testing.T) {
	a := Date{2026, time.February, 16}
	tests := []struct {
		name string
		b    Date
		want int
	}{
		{"same", Date{2026, time.February, 16}, 0},
		{"earlier day", Date{2026, time.February, 15}, 1},
		{"later month", Date{2026, time.March, 1}, -1},
		{"earlier year", Date{2025, time.December, 31}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare(%v) = %d, want %d", tt.b, got, tt.want)
			}
		})
	}
}

func TestDateAddDaysCrossesMonth(t *testing.T) {
	d := Date{2026, time.February, 27}
	if got := d.AddDays(2); got != (Date{2026, time.March, 1}) {
		t.Errorf("got %v", got)
	}
	if got := d.AddDays(-27); got != (Date{2026, time.January, 31}) {
		t.Errorf("got %v", got)
	}
}

func TestDateIn(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	d := Date{2026, time.March, 29}
	got := d.In(loc)
	if got.Hour() != 0 || DateOf(got) != d {
		t.Errorf("got %v", got)
	}
}

func TestPlannerDataSplitsEvents(t *testing.T) {
	nine := Clock{Hour: 9}
	p := NewPlannerData(Date{2026, time.February, 16})
	p.Events = append(p.Events,
		Event{Title: "Holiday", AllDay: true},
		Event{Title: "Standup", Start: &nine},
		Event{Title: "Birthday", AllDay: true},
	)
	if got := len(p.AllDayEvents()); got != 2 {
		t.Errorf("all-day count = %d, want 2", got)
	}
	timed := p.TimedEvents()
	if len(timed) != 1 || timed[0].Title != "Standup" {
		t.Errorf("timed = %+v", timed)
	}
}

func TestClock(t *testing.T) {
	c := Clock{Hour: 9, Minute: 30}
	if c.Hours() != 9.5 {
		t.Errorf("Hours() = %v", c.Hours())
	}
	if c.String() != "09:30" {
		t.Errorf("String() = %q", c.String())
	}
}
