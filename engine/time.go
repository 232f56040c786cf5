package engine

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATES - Day-first textual dates from the fact table
// =============================================================================

// dayFirstLayouts are tried in order. ISO dates are accepted as well since
// some loads already normalise the column.
var dayFirstLayouts = []string{
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a day-first date such as "31-01-2025" into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q (expected day-first, e.g. 31-01-2025)", s)
}

// DateOnly truncates t to midnight UTC of the same calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// WEEKDAYS
// =============================================================================

// Weekdays lists the seven weekday selector values, Monday first.
var Weekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// ParseWeekday accepts a full English weekday name, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.TrimSpace(name)
	for _, wd := range Weekdays {
		if strings.EqualFold(wd.String(), n) {
			return wd, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: %q", ErrUnknownWeekday, name)
}
