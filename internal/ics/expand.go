package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrRecurrenceEvaluation wraps any failure to parse or enumerate an RRULE.
var ErrRecurrenceEvaluation = errors.New("recurrence evaluation failed")

// OccursOn reports the earliest occurrence of rule, anchored at anchor, that
// falls inside [windowStart, windowEnd]. Both bounds are inclusive. Instants
// in exdates are excluded from the series.
//
// The series is enumerated in anchor's location, so wall-clock times stay
// stable across DST changes.
func OccursOn(rule string, anchor, windowStart, windowEnd time.Time, exdates ...time.Time) (time.Time, bool, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return time.Time{}, false, fmt.Errorf("%w: empty rule", ErrRecurrenceEvaluation)
	}
	if windowEnd.Before(windowStart) {
		return time.Time{}, false, fmt.Errorf("%w: window end %s before start %s", ErrRecurrenceEvaluation,
			windowEnd.Format(time.RFC3339), windowStart.Format(time.RFC3339))
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: parse %q: %v", ErrRecurrenceEvaluation, rule, err)
	}
	// Seed from the event's DTSTART rather than whatever the text carried,
	// so weekday/monthday defaults derive from the real anchor.
	opt.Dtstart = anchor

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: build %q: %v", ErrRecurrenceEvaluation, rule, err)
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex.In(anchor.Location()))
	}

	occ := set.Between(windowStart.In(anchor.Location()), windowEnd.In(anchor.Location()), true)
	if len(occ) == 0 {
		return time.Time{}, false, nil
	}
	return occ[0], true, nil
}
