// Package appointment models weekly tutoring slots and keeps collections of
// them free of overlaps.
package appointment

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MessageConstraints describes the accepted appointment format.
const MessageConstraints = "Appointment should be of the format 'HH:MM-HH:MM DAY' " +
	"and adhere to the following constraints:\n" +
	"1. HH:MM follows 24 hour time; " +
	"HH is from 00 to 23, " +
	"MM is from 00 to 59.\n" +
	"2. This is followed by a DAY. " +
	"DAY must be one of: 'MON', 'TUE', 'WED', 'THU', 'FRI', 'SAT', 'SUN'\n"

var validationPattern = regexp.MustCompile(`^(\d{2}):(\d{2})-(\d{2}):(\d{2})\s+([A-Za-z]{3})$`)

// TimeOfDay is a wall-clock time with minute resolution, stored as minutes
// since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay. It does not range check.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Appointment is a weekly time slot such as "13:30-14:00 SUN". The zero value
// is not a valid appointment.
type Appointment struct {
	value string
	start TimeOfDay
	end   TimeOfDay
	day   time.Weekday
}

// Parse validates text and builds an Appointment. The canonical form is the
// upper-cased input.
func Parse(text string) (Appointment, error) {
	start, end, day, ok := parseParts(text)
	if !ok {
		return Appointment{}, &FormatError{Input: text, Message: MessageConstraints}
	}
	return Appointment{
		value: strings.ToUpper(text),
		start: start,
		end:   end,
		day:   day,
	}, nil
}

// ParseNullable is Parse for optional text. A nil pointer yields ErrNullInput.
func ParseNullable(text *string) (Appointment, error) {
	if text == nil {
		return Appointment{}, ErrNullInput
	}
	return Parse(*text)
}

// MustParse is like Parse but panics on invalid input.
func MustParse(text string) Appointment {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// IsValid reports whether text is a well formed appointment.
func IsValid(text string) bool {
	_, _, _, ok := parseParts(text)
	return ok
}

func parseParts(text string) (TimeOfDay, TimeOfDay, time.Weekday, bool) {
	m := validationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, 0, false
	}

	start, ok := parseTime(m[1], m[2])
	if !ok {
		return 0, 0, 0, false
	}
	end, ok := parseTime(m[3], m[4])
	if !ok {
		return 0, 0, 0, false
	}
	if start >= end {
		return 0, 0, 0, false
	}

	day, ok := WeekdayFromAbbrev(m[5])
	if !ok {
		return 0, 0, 0, false
	}
	return start, end, day, true
}

func parseTime(hourText, minuteText string) (TimeOfDay, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return NewTimeOfDay(hour, minute), true
}

// Start returns the start time.
func (a Appointment) Start() TimeOfDay { return a.start }

// End returns the end time.
func (a Appointment) End() TimeOfDay { return a.end }

// Day returns the weekday.
func (a Appointment) Day() time.Weekday { return a.day }

// Duration returns the length of the slot.
func (a Appointment) Duration() time.Duration {
	return time.Duration(a.end-a.start) * time.Minute
}

// IsZero reports whether a is the zero value.
func (a Appointment) IsZero() bool { return a.value == "" }

// String returns the canonical text.
func (a Appointment) String() string { return a.value }

// Equal reports whether both appointments have the same canonical text.
func (a Appointment) Equal(other Appointment) bool {
	return a.value == other.value
}

// OverlapsWith reports whether both slots fall on the same day and share a
// non-empty stretch of time. Slots that only touch do not overlap.
func (a Appointment) OverlapsWith(other Appointment) bool {
	if a.day != other.day {
		return false
	}
	return a.start < other.end && other.start < a.end
}

// Compare orders by day (Monday first) and then by start time.
func (a Appointment) Compare(other Appointment) int {
	if d := DayNumber(a.day) - DayNumber(other.day); d != 0 {
		if d < 0 {
			return -1
		}
		return 1
	}
	switch {
	case a.start < other.start:
		return -1
	case a.start > other.start:
		return 1
	}
	return 0
}

// HasOverlapping reports whether any two distinct appointments in items
// overlap. Equal entries are collapsed first.
//
// The scan is quadratic; a person or a book holds few enough slots that an
// interval tree would not pay for itself.
func HasOverlapping(items []Appointment) bool {
	unique := dedupe(items)
	for i := 0; i < len(unique)-1; i++ {
		for j := i + 1; j < len(unique); j++ {
			if unique[i].OverlapsWith(unique[j]) {
				return true
			}
		}
	}
	return false
}

// Sort orders items in place by Compare.
func Sort(items []Appointment) {
	slices.SortStableFunc(items, Appointment.Compare)
}

func dedupe(items []Appointment) []Appointment {
	seen := make(map[string]struct{}, len(items))
	out := make([]Appointment, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.value]; ok {
			continue
		}
		seen[item.value] = struct{}{}
		out = append(out, item)
	}
	return out
}
