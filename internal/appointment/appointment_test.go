package appointment

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParse_ValidAppointment(t *testing.T) {
	t.Parallel()

	a, err := Parse("13:30-14:00 SUN")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if a.Day() != time.Sunday {
		t.Fatalf("expected Sunday, got %v", a.Day())
	}
	if a.Start() != NewTimeOfDay(13, 30) || a.End() != NewTimeOfDay(14, 0) {
		t.Fatalf("unexpected bounds %s-%s", a.Start(), a.End())
	}
	if a.String() != "13:30-14:00 SUN" {
		t.Fatalf("unexpected canonical text %q", a.String())
	}
	if a.Duration() != 30*time.Minute {
		t.Fatalf("unexpected duration %v", a.Duration())
	}
}

func TestParse_InvalidAppointmentCarriesConstraints(t *testing.T) {
	t.Parallel()

	_, err := Parse("")
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	var fErr *FormatError
	if !errors.As(err, &fErr) {
		t.Fatalf("expected *FormatError, got %T", err)
	}
	if fErr.Message != MessageConstraints {
		t.Fatalf("unexpected message %q", fErr.Message)
	}
}

func TestParseNullable(t *testing.T) {
	t.Parallel()

	if _, err := ParseNullable(nil); !errors.Is(err, ErrNullInput) {
		t.Fatalf("expected ErrNullInput, got %v", err)
	}

	text := "09:00-10:00 mon"
	a, err := ParseNullable(&text)
	if err != nil {
		t.Fatalf("ParseNullable returned error: %v", err)
	}
	if a.String() != "09:00-10:00 MON" {
		t.Fatalf("unexpected canonical text %q", a.String())
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  bool
	}{
		{"", false},
		{" ", false},
		{"FRI", false},
		{"23:15-23:16", false},
		{"3:15-4:30 FRI", false},
		{"3:15-04:30 FRI", false},
		{"12:34-13:33 FOB", false},
		{"00:00-00:12FRI", false},
		{"0000-1234 FRI", false},
		{"23:59-24:59 MON", false},
		{"22:60-23:40 MON", false},
		{"25:61-26:20 MON", false},
		{"22:30-26:70 MON", false},
		{"23:00-22:00 MON", false},
		{"23:59-23:59 MON", false},
		{"10:00-11:00 MONDAY", false},
		{"10:00-11:00 M0N", false},
		{"13:59-14:00 TUE", true},
		{"03:59-04:59 WED", true},
		{"02:00-03:00 THU", true},
		{"12:00-13:00 FRI", true},
		{"13:30-14:00 SUN", true},
		{"00:00-23:59 SAT", true},
		{"03:15-04:30 fri", true},
		{"03:15-04:30 fRI", true},
		{"03:15-04:30 Fri", true},
		{"03:15-04:30 fRi", true},
		{"03:15-04:30   fri", true},
		{"03:15-04:30\tfri", true},
	}

	for _, tc := range cases {
		if got := IsValid(tc.input); got != tc.want {
			t.Errorf("IsValid(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParse_RoundTripsCanonicalText(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"03:15-04:30 fRi", "13:30-14:00 SUN", "00:00-00:01 wed"} {
		a := MustParse(input)
		if a.String() != strings.ToUpper(input) {
			t.Fatalf("expected %q, got %q", strings.ToUpper(input), a.String())
		}
		again := MustParse(a.String())
		if !again.Equal(a) || again.String() != a.String() {
			t.Fatalf("reparsing %q produced %q", a.String(), again.String())
		}
	}
}

func TestAppointment_Equal(t *testing.T) {
	t.Parallel()

	a := MustParse("13:30-14:00 SUN")

	if !a.Equal(MustParse("13:30-14:00 SUN")) {
		t.Fatalf("expected equal appointments")
	}
	if !a.Equal(MustParse("13:30-14:00 sun")) {
		t.Fatalf("expected case-insensitive equality")
	}
	if a.Equal(MustParse("13:30-14:30 FRI")) {
		t.Fatalf("expected different appointments")
	}
	if a.Equal(MustParse("13:30-14:30 SAT")) {
		t.Fatalf("expected different appointments")
	}
}

func TestAppointment_OverlapsWith(t *testing.T) {
	t.Parallel()

	base := MustParse("10:00-12:00 FRI")

	cases := []struct {
		other string
		want  bool
	}{
		{"11:00-13:00 FRI", true},
		{"10:00-11:00 FRI", true},
		{"11:00-12:00 FRI", true},
		{"10:00-12:00 FRI", true},
		{"09:00-13:00 FRI", true},
		{"10:30-11:30 FRI", true},
		{"12:00-14:00 FRI", false},
		{"08:00-10:00 FRI", false},
		{"10:00-12:00 SUN", false},
		{"11:00-11:30 THU", false},
	}

	for _, tc := range cases {
		other := MustParse(tc.other)
		if got := base.OverlapsWith(other); got != tc.want {
			t.Errorf("%s overlaps %s = %v, want %v", base, other, got, tc.want)
		}
		if base.OverlapsWith(other) != other.OverlapsWith(base) {
			t.Errorf("overlap between %s and %s is not symmetric", base, other)
		}
	}
}

func TestHasOverlapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		items []string
		want  bool
	}{
		{"empty", nil, false},
		{"single", []string{"10:00-11:00 MON"}, false},
		{"disjoint", []string{"10:00-11:00 MON", "12:00-13:00 MON", "14:00-15:00 MON"}, false},
		{"touching", []string{"10:00-11:00 MON", "11:00-12:00 MON"}, false},
		{"different days", []string{"10:00-11:00 MON", "10:00-11:00 TUE"}, false},
		{"duplicates collapse", []string{"10:00-11:00 MON", "10:00-11:00 mon"}, false},
		{"overlap", []string{"10:00-11:00 MON", "12:00-13:00 MON", "10:30-10:45 MON"}, true},
	}

	for _, tc := range cases {
		items := make([]Appointment, 0, len(tc.items))
		for _, text := range tc.items {
			items = append(items, MustParse(text))
		}
		if got := HasOverlapping(items); got != tc.want {
			t.Errorf("%s: HasOverlapping = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSort_OrdersByDayThenStart(t *testing.T) {
	t.Parallel()

	items := []Appointment{
		MustParse("09:00-10:00 SUN"),
		MustParse("14:00-15:00 TUE"),
		MustParse("08:00-09:00 TUE"),
		MustParse("18:00-19:00 MON"),
		MustParse("07:00-08:00 SAT"),
		MustParse("10:00-11:00 MON"),
	}
	Sort(items)

	want := []string{
		"10:00-11:00 MON",
		"18:00-19:00 MON",
		"08:00-09:00 TUE",
		"14:00-15:00 TUE",
		"07:00-08:00 SAT",
		"09:00-10:00 SUN",
	}
	for i, item := range items {
		if item.String() != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, item, want[i])
		}
	}
}

func TestWeekdayTables(t *testing.T) {
	t.Parallel()

	for i, abbrev := range []string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"} {
		day, ok := WeekdayFromAbbrev(strings.ToLower(abbrev))
		if !ok {
			t.Fatalf("expected %s to be a weekday", abbrev)
		}
		if DayNumber(day) != i+1 {
			t.Fatalf("%s: day number %d, want %d", abbrev, DayNumber(day), i+1)
		}
		if Abbrev(day) != abbrev {
			t.Fatalf("Abbrev(%v) = %s, want %s", day, Abbrev(day), abbrev)
		}
	}
	if _, ok := WeekdayFromAbbrev("FOB"); ok {
		t.Fatalf("expected FOB to be rejected")
	}
}
