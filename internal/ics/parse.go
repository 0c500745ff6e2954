package ics

import (
	"bytes"
	"errors"
	"strings"

	ical "github.com/arran4/golang-ical"

	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/tz"
)

// RawOccurrence is a VEVENT as found in a calendar payload, before any
// timezone resolution or recurrence evaluation.
type RawOccurrence struct {
	CalendarName string

	UID   string
	Title string

	Location    string
	Description string

	// Start is zero when the VEVENT had no DTSTART.
	Start tz.Raw
	End   *tz.Raw

	RRule   string
	ExDates []tz.Raw

	// RecurrenceID is set on VEVENTs that override one instance of a
	// recurring series.
	RecurrenceID *tz.Raw
}

const untitled = "Untitled"

var textUnescaper = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

// ParseICS parses one iCalendar payload into raw occurrences attributed to
// calendarName. VEVENTs are never dropped here; missing or malformed fields
// surface later when the occurrence is normalized.
func ParseICS(calendarName string, body []byte) ([]RawOccurrence, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "calendar", calendarName)
		return nil, err
	}

	out := make([]RawOccurrence, 0)
	for _, ve := range cal.Events() {
		out = append(out, parseVEvent(calendarName, ve))
	}

	appLog.Debug("ics parse completed", "calendar", calendarName, "event_count", len(out))
	return out, nil
}

func parseVEvent(calendarName string, ve *ical.VEvent) RawOccurrence {
	occ := RawOccurrence{CalendarName: calendarName, Title: untitled}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		occ.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && strings.TrimSpace(p.Value) != "" {
		occ.Title = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		occ.Location = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		occ.Description = unescapeText(p.Value)
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		occ.Start = rawFromProperty(p)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		end := rawFromProperty(p)
		occ.End = &end
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		occ.RRule = strings.TrimSpace(p.Value)
	}

	// EXDATE can repeat and each may hold a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		base := rawFromProperty(p)
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ex := base
			ex.Text = part
			occ.ExDates = append(occ.ExDates, ex)
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		rid := rawFromProperty(p)
		occ.RecurrenceID = &rid
	}

	return occ
}

// rawFromProperty keeps the property text together with its TZID and
// VALUE=DATE parameters.
func rawFromProperty(p *ical.IANAProperty) tz.Raw {
	raw := tz.Raw{Text: strings.TrimSpace(p.Value)}
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			raw.DateOnly = true
		}
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			raw.TZID = strings.Trim(tzs[0], `"`)
		}
	}
	return raw
}

func unescapeText(s string) string {
	return strings.TrimSpace(textUnescaper.Replace(s))
}
