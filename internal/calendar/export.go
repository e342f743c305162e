// Package calendar renders the weekly timetable as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/example/tutorrec/internal/appointment"
)

const (
	defaultProductID = "-//TutorRec//Timetable//EN"
	localTimeFormat  = "20060102T150405"
)

// Entry is one booked slot to publish.
type Entry struct {
	UID         string
	Summary     string
	Description string
	Slot        appointment.Appointment
}

// Options controls how entries are anchored and labelled.
type Options struct {
	// Name is published as the calendar display name when set.
	Name string
	// ProductID defaults to "-//TutorRec//Timetable//EN".
	ProductID string
	// Reference is the instant from which the first occurrence is searched.
	Reference time.Time
	// Location interprets slot times; defaults to Reference's location.
	// Events are written with a TZID when it is a named IANA zone, so weekly
	// recurrences keep their wall-clock time across DST changes. Other
	// locations are written in UTC.
	Location *time.Location
}

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Export writes a VCALENDAR holding one weekly recurring VEVENT per entry.
func Export(w io.Writer, entries []Entry, opts Options) error {
	if opts.Reference.IsZero() {
		return fmt.Errorf("calendar: reference time is required")
	}
	loc := opts.Location
	if loc == nil {
		loc = opts.Reference.Location()
	}
	productID := opts.ProductID
	if productID == "" {
		productID = defaultProductID
	}

	tzid := zoneID(loc)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetName(opts.Name)
	}
	if tzid != "" {
		cal.SetXWRTimezone(tzid)
	}

	for _, entry := range entries {
		if entry.Slot.IsZero() {
			return fmt.Errorf("calendar: entry %q has no slot", entry.UID)
		}
		start, err := FirstOccurrence(entry.Slot, opts.Reference.In(loc))
		if err != nil {
			return err
		}

		end := start.Add(entry.Slot.Duration())

		event := cal.AddEvent(entry.UID)
		event.SetDtStampTime(opts.Reference)
		// BYDAY names the weekday of DTSTART as written.
		weekday := start.Weekday()
		if tzid != "" {
			event.SetProperty(ics.ComponentPropertyDtStart, start.Format(localTimeFormat), ics.WithTZID(tzid))
			event.SetProperty(ics.ComponentPropertyDtEnd, end.Format(localTimeFormat), ics.WithTZID(tzid))
		} else {
			event.SetStartAt(start)
			event.SetEndAt(end)
			weekday = start.UTC().Weekday()
		}
		event.SetSummary(entry.Summary)
		if entry.Description != "" {
			event.SetDescription(entry.Description)
		}

		rule := rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{rruleWeekdays[weekday]},
		}
		event.AddProperty(ics.ComponentPropertyRrule, rule.RRuleString())
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("calendar: write: %w", err)
	}
	return nil
}

// zoneID returns loc's IANA name, or "" when loc is UTC or has no loadable
// name (fixed offsets, time.Local).
func zoneID(loc *time.Location) string {
	name := loc.String()
	if loc == time.UTC || name == "UTC" || name == "Local" || name == "" {
		return ""
	}
	if _, err := time.LoadLocation(name); err != nil {
		return ""
	}
	return name
}

// FirstOccurrence returns the first start of slot on or after the calendar
// day of reference, in reference's location.
func FirstOccurrence(slot appointment.Appointment, reference time.Time) (time.Time, error) {
	dayStart := time.Date(reference.Year(), reference.Month(), reference.Day(),
		slot.Start().Hour(), slot.Start().Minute(), 0, 0, reference.Location())

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[slot.Day()]},
		Dtstart:   dayStart,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: recurrence for %s: %w", slot, err)
	}
	return r.After(dayStart, true), nil
}
