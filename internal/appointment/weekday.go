package appointment

import (
	"strings"
	"time"
)

var weekdayAbbrevs = [...]struct {
	abbrev string
	day    time.Weekday
}{
	{"MON", time.Monday},
	{"TUE", time.Tuesday},
	{"WED", time.Wednesday},
	{"THU", time.Thursday},
	{"FRI", time.Friday},
	{"SAT", time.Saturday},
	{"SUN", time.Sunday},
}

// WeekdayFromAbbrev maps a three letter day such as "fri" to its weekday.
func WeekdayFromAbbrev(abbrev string) (time.Weekday, bool) {
	upper := strings.ToUpper(abbrev)
	for _, entry := range weekdayAbbrevs {
		if entry.abbrev == upper {
			return entry.day, true
		}
	}
	return time.Sunday, false
}

// Abbrev returns the three letter upper-case name of day.
func Abbrev(day time.Weekday) string {
	return weekdayAbbrevs[DayNumber(day)-1].abbrev
}

// DayNumber numbers weekdays from Monday=1 to Sunday=7.
func DayNumber(day time.Weekday) int {
	if day == time.Sunday {
		return 7
	}
	return int(day)
}
