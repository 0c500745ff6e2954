package ics

import (
	"errors"
	"testing"

	"dailyplanner/internal/model"
	"dailyplanner/internal/tz"
)

func newNormalizer(t *testing.T, policy RecurrencePolicy) Normalizer {
	t.Helper()
	return Normalizer{Resolver: tz.NewResolver(helsinki(t)), Day: target, Policy: policy}
}

func clockPtr(h, m int) *model.Clock {
	return &model.Clock{Hour: h, Minute: m}
}

func rawPtr(text string) *tz.Raw {
	return &tz.Raw{Text: text}
}

func TestNormalizeSingleEvents(t *testing.T) {
	n := newNormalizer(t, KeepOnFailure)

	tests := []struct {
		name      string
		raw       RawOccurrence
		wantKeep  bool
		wantStart *model.Clock
		wantEnd   *model.Clock
		wantAll   bool
	}{
		{
			name:      "timed on target day",
			raw:       RawOccurrence{Title: "Dentist", Start: tz.Raw{Text: "20260216T140000"}, End: rawPtr("20260216T150000")},
			wantKeep:  true,
			wantStart: clockPtr(14, 0),
			wantEnd:   clockPtr(15, 0),
		},
		{
			name:     "other day is skipped",
			raw:      RawOccurrence{Title: "Later", Start: tz.Raw{Text: "20260217T140000"}},
			wantKeep: false,
		},
		{
			name:     "all-day",
			raw:      RawOccurrence{Title: "Holiday", Start: tz.Raw{Text: "20260216", DateOnly: true}, End: rawPtr("20260217")},
			wantKeep: true,
			wantAll:  true,
		},
		{
			name:      "utc converted into display zone",
			raw:       RawOccurrence{Title: "Call", Start: tz.Raw{Text: "20260216T070000Z"}},
			wantKeep:  true,
			wantStart: clockPtr(9, 0),
		},
		{
			name:     "utc value on previous utc day lands on target",
			raw:      RawOccurrence{Title: "Early", Start: tz.Raw{Text: "20260215T230000Z"}},
			wantKeep: true,
			// 01:00 in Helsinki on the 16th.
			wantStart: clockPtr(1, 0),
		},
		{
			name:      "end past midnight becomes end of day",
			raw:       RawOccurrence{Title: "Party", Start: tz.Raw{Text: "20260216T220000"}, End: rawPtr("20260217T020000")},
			wantKeep:  true,
			wantStart: clockPtr(22, 0),
			wantEnd:   clockPtr(24, 0),
		},
		{
			name:     "multi-day event shows only on its start date",
			raw:      RawOccurrence{Title: "Conference", Start: tz.Raw{Text: "20260215", DateOnly: true}, End: rawPtr("20260218")},
			wantKeep: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, keep, err := n.Normalize(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if keep != tt.wantKeep {
				t.Fatalf("keep = %v, want %v", keep, tt.wantKeep)
			}
			if !keep {
				return
			}
			if ev.AllDay != tt.wantAll {
				t.Errorf("AllDay = %v, want %v", ev.AllDay, tt.wantAll)
			}
			if ev.AllDay && (ev.Start != nil || ev.End != nil) {
				t.Errorf("all-day event must not carry times: %+v", ev)
			}
			if !ev.AllDay && ev.Start == nil {
				t.Fatal("timed event without start")
			}
			if tt.wantStart != nil && *ev.Start != *tt.wantStart {
				t.Errorf("start = %v, want %v", ev.Start, tt.wantStart)
			}
			if tt.wantEnd == nil && ev.End != nil {
				t.Errorf("end = %v, want none", ev.End)
			}
			if tt.wantEnd != nil && (ev.End == nil || *ev.End != *tt.wantEnd) {
				t.Errorf("end = %v, want %v", ev.End, tt.wantEnd)
			}
		})
	}
}

func TestNormalizeMalformed(t *testing.T) {
	n := newNormalizer(t, KeepOnFailure)

	_, keep, err := n.Normalize(RawOccurrence{Title: "No start"})
	if keep || !errors.Is(err, ErrMissingStart) {
		t.Errorf("keep=%v err=%v, want ErrMissingStart", keep, err)
	}

	_, keep, err = n.Normalize(RawOccurrence{Title: "Bad", Start: tz.Raw{Text: "2026-02-31T25:00"}})
	if keep || !errors.Is(err, tz.ErrMalformedTemporalValue) {
		t.Errorf("keep=%v err=%v, want ErrMalformedTemporalValue", keep, err)
	}

	_, keep, err = n.Normalize(RawOccurrence{Title: "Bad end", Start: tz.Raw{Text: "20260216T090000"}, End: rawPtr("whenever")})
	if keep || !errors.Is(err, tz.ErrMalformedTemporalValue) {
		t.Errorf("keep=%v err=%v, want ErrMalformedTemporalValue", keep, err)
	}
}

func TestNormalizeRecurring(t *testing.T) {
	n := newNormalizer(t, KeepOnFailure)

	t.Run("shifted with duration preserved", func(t *testing.T) {
		raw := RawOccurrence{
			Title: "Standup",
			Start: tz.Raw{Text: "20260202T091500"},
			End:   rawPtr("20260202T094500"),
			RRule: "FREQ=WEEKLY",
		}
		ev, keep, err := n.Normalize(raw)
		if err != nil || !keep {
			t.Fatalf("keep=%v err=%v", keep, err)
		}
		if *ev.Start != (model.Clock{Hour: 9, Minute: 15}) || *ev.End != (model.Clock{Hour: 9, Minute: 45}) {
			t.Errorf("got %v-%v", ev.Start, ev.End)
		}
	})

	t.Run("no end stays without end", func(t *testing.T) {
		raw := RawOccurrence{Title: "Reminder", Start: tz.Raw{Text: "20260202T120000"}, RRule: "FREQ=DAILY"}
		ev, keep, err := n.Normalize(raw)
		if err != nil || !keep {
			t.Fatalf("keep=%v err=%v", keep, err)
		}
		if ev.End != nil {
			t.Errorf("end = %v, want none", ev.End)
		}
	})

	t.Run("miss is skipped", func(t *testing.T) {
		raw := RawOccurrence{Title: "Tuesdays", Start: tz.Raw{Text: "20260203T100000"}, RRule: "FREQ=WEEKLY"}
		_, keep, err := n.Normalize(raw)
		if err != nil || keep {
			t.Errorf("keep=%v err=%v", keep, err)
		}
	})

	t.Run("all-day on the following day does not leak", func(t *testing.T) {
		raw := RawOccurrence{Title: "Trash day", Start: tz.Raw{Text: "20260210", DateOnly: true}, RRule: "FREQ=WEEKLY"}
		_, keep, err := n.Normalize(raw)
		if err != nil || keep {
			t.Errorf("keep=%v err=%v", keep, err)
		}
	})

	t.Run("recurring all-day stays all-day", func(t *testing.T) {
		raw := RawOccurrence{Title: "Gym", Start: tz.Raw{Text: "20260209", DateOnly: true}, RRule: "FREQ=WEEKLY"}
		ev, keep, err := n.Normalize(raw)
		if err != nil || !keep || !ev.AllDay {
			t.Errorf("ev=%+v keep=%v err=%v", ev, keep, err)
		}
	})
}

func TestNormalizeRecurrenceFailurePolicy(t *testing.T) {
	raw := RawOccurrence{
		Title: "Broken",
		Start: tz.Raw{Text: "20260110T080000"},
		End:   rawPtr("20260110T090000"),
		RRule: "FREQ=FORTNIGHTLY",
	}

	t.Run("keep", func(t *testing.T) {
		ev, keep, err := newNormalizer(t, KeepOnFailure).Normalize(raw)
		if !keep {
			t.Fatal("expected the occurrence to be kept")
		}
		if !errors.Is(err, ErrRecurrenceEvaluation) {
			t.Errorf("err = %v, want ErrRecurrenceEvaluation", err)
		}
		if *ev.Start != (model.Clock{Hour: 8}) {
			t.Errorf("kept occurrence should be un-shifted, got %v", ev.Start)
		}
	})

	t.Run("drop", func(t *testing.T) {
		_, keep, err := newNormalizer(t, DropOnFailure).Normalize(raw)
		if keep {
			t.Fatal("expected the occurrence to be dropped")
		}
		if !errors.Is(err, ErrRecurrenceEvaluation) {
			t.Errorf("err = %v, want ErrRecurrenceEvaluation", err)
		}
	})
}

func TestNormalizeAll(t *testing.T) {
	n := newNormalizer(t, KeepOnFailure)

	raws := []RawOccurrence{
		{CalendarName: "Work", UID: "a", Title: "Standup", Start: tz.Raw{Text: "20260216T090000"}, End: rawPtr("20260216T091500")},
		{CalendarName: "Work", UID: "bad", Title: "Broken", Start: tz.Raw{Text: "yesterday"}},
		{CalendarName: "Work", UID: "a", Title: "Standup", Start: tz.Raw{Text: "20260216T090000"}, End: rawPtr("20260216T091500")},
		{CalendarName: "Home", UID: "series", Title: "Piano", Start: tz.Raw{Text: "20260202T170000"}, RRule: "FREQ=WEEKLY"},
		{CalendarName: "Home", UID: "series", Title: "Piano (moved)", Start: tz.Raw{Text: "20260216T180000"},
			RecurrenceID: rawPtr("20260216T170000")},
		{CalendarName: "Home", UID: "h", Title: "Holiday", Start: tz.Raw{Text: "20260216", DateOnly: true}},
	}

	got := n.NormalizeAll(raws)
	titles := make([]string, 0, len(got))
	for _, ev := range got {
		titles = append(titles, ev.Title)
	}
	want := []string{"Standup", "Piano (moved)", "Holiday"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestParseRecurrencePolicy(t *testing.T) {
	for in, want := range map[string]RecurrencePolicy{"": KeepOnFailure, "keep": KeepOnFailure, "DROP": DropOnFailure} {
		got, err := ParseRecurrencePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseRecurrencePolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRecurrencePolicy("maybe"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
