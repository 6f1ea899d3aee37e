// Package dates holds the calendar-day arithmetic used by the date-relative
// queries. A calendar day is represented as midnight UTC.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the YYYY-MM-DD form used in keys, URLs and dump files.
const Layout = "2006-01-02"

// Date returns the calendar day y-m-d.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate keeps only the calendar day of t, as seen in t's own location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Today returns the calendar day of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Truncate(now.In(loc))
}

// Clock returns "today" on each call. Handlers take one so tests can pin the date.
type Clock func() time.Time

// WallClock reports today's date in loc using the system clock.
func WallClock(loc *time.Location) Clock {
	return func() time.Time {
		return Today(time.Now(), loc)
	}
}

// Fixed always reports day.
func Fixed(day time.Time) Clock {
	day = Truncate(day)
	return func() time.Time {
		return day
	}
}

// AddDays moves day forward by n calendar days.
func AddDays(day time.Time, n int) time.Time {
	return Truncate(day).AddDate(0, 0, n)
}

// MonthRange returns the half-open window [start, end) covering the month.
func MonthRange(year int, month time.Month) (start, end time.Time) {
	start = Date(year, month, 1)
	return start, start.AddDate(0, 1, 0)
}

// ValidMonth reports whether month is 1..12.
func ValidMonth(month int) bool {
	return month >= 1 && month <= 12
}

// NewsletterMonth formats the "YYYY-MM" tag for a newsletter issue.
func NewsletterMonth(year int, month time.Month) string {
	return fmt.Sprintf("%d-%02d", year, int(month))
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Truncate(t), nil
}

// Format writes day as YYYY-MM-DD.
func Format(day time.Time) string {
	return day.Format(Layout)
}

// ParseYearMonth reads year and month path values such as "2024" and "3".
func ParseYearMonth(year, month string) (int, time.Month, error) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 || y > 9999 {
		return 0, 0, fmt.Errorf("invalid year %q", year)
	}
	m, err := strconv.Atoi(month)
	if err != nil || !ValidMonth(m) {
		return 0, 0, fmt.Errorf("invalid month %q", month)
	}
	return y, time.Month(m), nil
}

// ParseMonthTag reads a "YYYY-MM" newsletter tag.
func ParseMonthTag(tag string) (int, time.Month, error) {
	y, m, ok := strings.Cut(tag, "-")
	if !ok || len(y) != 4 || len(m) != 2 {
		return 0, 0, fmt.Errorf("invalid month %q", tag)
	}
	return ParseYearMonth(y, m)
}
