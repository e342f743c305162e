package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/example/tutorrec/internal/appointment"
)

// Tuesday.
var reference = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

func TestFirstOccurrence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		slot string
		want time.Time
	}{
		{"09:00-10:00 TUE", time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)},
		{"18:30-19:00 WED", time.Date(2024, time.January, 3, 18, 30, 0, 0, time.UTC)},
		{"08:00-09:00 MON", time.Date(2024, time.January, 8, 8, 0, 0, 0, time.UTC)},
		{"13:30-14:00 SUN", time.Date(2024, time.January, 7, 13, 30, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, err := FirstOccurrence(appointment.MustParse(tc.slot), reference)
		if err != nil {
			t.Fatalf("FirstOccurrence(%s): %v", tc.slot, err)
		}
		if !got.Equal(tc.want) {
			t.Errorf("FirstOccurrence(%s) = %v, want %v", tc.slot, got, tc.want)
		}
	}
}

func TestExport_WritesWeeklyEvents(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{UID: "p-1-mon", Summary: "Alice", Description: "Sec 3 maths", Slot: appointment.MustParse("08:00-09:30 MON")},
		{UID: "p-2-fri", Summary: "Bob", Slot: appointment.MustParse("16:00-17:00 FRI")},
	}

	var buf bytes.Buffer
	if err := Export(&buf, entries, Options{Name: "Tuition", Reference: reference}); err != nil {
		t.Fatalf("Export: %v", err)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("ParseCalendar: %v\n%s", err, buf.String())
	}

	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.Id() != "p-1-mon" {
		t.Fatalf("unexpected UID %q", first.Id())
	}
	start, err := first.GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt: %v", err)
	}
	if !start.Equal(time.Date(2024, time.January, 8, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	end, err := first.GetEndAt()
	if err != nil {
		t.Fatalf("GetEndAt: %v", err)
	}
	if end.Sub(start) != 90*time.Minute {
		t.Fatalf("unexpected duration %v", end.Sub(start))
	}

	rule := first.GetProperty(ics.ComponentPropertyRrule)
	if rule == nil || !strings.Contains(rule.Value, "FREQ=WEEKLY") || !strings.Contains(rule.Value, "BYDAY=MO") {
		t.Fatalf("unexpected RRULE %v", rule)
	}
	if summary := first.GetProperty(ics.ComponentPropertySummary); summary == nil || summary.Value != "Alice" {
		t.Fatalf("unexpected summary %v", summary)
	}
	if !strings.Contains(buf.String(), "Tuition") {
		t.Fatalf("expected calendar name in output")
	}
}

func TestExport_UsesUTCWeekdayForRule(t *testing.T) {
	t.Parallel()

	// A fixed offset has no IANA name, so the event is written in UTC and
	// 07:00 Monday in UTC+9 becomes 22:00 Sunday.
	tokyo := time.FixedZone("JST", 9*60*60)
	entries := []Entry{{UID: "early", Summary: "Early", Slot: appointment.MustParse("07:00-08:00 MON")}}

	var buf bytes.Buffer
	if err := Export(&buf, entries, Options{Reference: reference, Location: tokyo}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(buf.String(), "BYDAY=SU") {
		t.Fatalf("expected BYDAY=SU in output:\n%s", buf.String())
	}
}

func TestExport_KeepsWallClockAcrossDST(t *testing.T) {
	t.Parallel()

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	// Clocks in Berlin move forward on 2026-03-29.
	ref := time.Date(2026, time.March, 16, 8, 0, 0, 0, berlin)
	entries := []Entry{{UID: "lesson", Summary: "Alice", Slot: appointment.MustParse("10:00-11:00 MON")}}

	var buf bytes.Buffer
	if err := Export(&buf, entries, Options{Reference: ref, Location: berlin}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"DTSTART;TZID=Europe/Berlin:20260316T100000",
		"DTEND;TZID=Europe/Berlin:20260316T110000",
		"X-WR-TIMEZONE:Europe/Berlin",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	event := cal.Events()[0]
	start, err := event.GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt: %v", err)
	}
	prop := event.GetProperty(ics.ComponentPropertyRrule)
	if prop == nil || !strings.Contains(prop.Value, "BYDAY=MO") {
		t.Fatalf("unexpected RRULE %v", prop)
	}
	option, err := rrule.StrToROption(prop.Value)
	if err != nil {
		t.Fatalf("StrToROption: %v", err)
	}
	option.Dtstart = start
	option.Count = 4
	rule, err := rrule.NewRRule(*option)
	if err != nil {
		t.Fatalf("NewRRule: %v", err)
	}

	occurrences := rule.All()
	if len(occurrences) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(occurrences))
	}
	for _, occurrence := range occurrences {
		local := occurrence.In(berlin)
		if local.Weekday() != time.Monday || local.Hour() != 10 || local.Minute() != 0 {
			t.Fatalf("expected Monday 10:00 in Berlin, got %v", local)
		}
	}
}

func TestExport_RequiresReference(t *testing.T) {
	t.Parallel()

	if err := Export(&bytes.Buffer{}, nil, Options{}); err == nil {
		t.Fatalf("expected error without reference time")
	}
}
