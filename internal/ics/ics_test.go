package ics

import (
	"strings"
	"testing"
	"time"

	"dailyplanner/internal/model"
)

func helsinki(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return loc
}

// calendar wraps VEVENT lines into a CRLF-terminated VCALENDAR payload.
func calendar(events ...[]string) []byte {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//dailyplanner//test//EN"}
	for _, ev := range events {
		lines = append(lines, "BEGIN:VEVENT")
		lines = append(lines, ev...)
		lines = append(lines, "END:VEVENT")
	}
	lines = append(lines, "END:VCALENDAR")
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

var target = model.Date{Year: 2026, Month: time.February, Day: 16} // a Monday
