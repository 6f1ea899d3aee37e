// Package keys parses the identifiers content is imported under.
//
// News items are keyed YYYY-MM-DD-<slug>, sponsored news items
// YYYY-MM-DD-<sponsor> and events <user-group>/<YYYY-MM-DD>.
package keys

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ukpython/ukpython/pkg/ukpython/dates"
)

var datedKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)

// ParseError reports a key that does not have the expected shape.
type ParseError struct {
	Key    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse key %q: %s", e.Key, e.Reason)
}

// Dated is a key split into its leading date and the remainder after it.
type Dated struct {
	Date time.Time
	Rest string
}

// ParseDated splits a YYYY-MM-DD-<rest> key. Rest is everything after the
// third dash, embedded dashes included.
func ParseDated(key string) (Dated, error) {
	m := datedKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return Dated{}, &ParseError{Key: key, Reason: "does not match YYYY-MM-DD-<name>"}
	}
	date, err := calendarDay(m[1], m[2], m[3])
	if err != nil {
		return Dated{}, &ParseError{Key: key, Reason: err.Error()}
	}
	return Dated{Date: date, Rest: m[4]}, nil
}

// FormatDated builds a YYYY-MM-DD-<rest> key.
func FormatDated(date time.Time, rest string) string {
	return dates.Format(date) + "-" + rest
}

// Event is a parsed <user-group>/<YYYY-MM-DD> event key.
type Event struct {
	UserGroup string
	Date      time.Time
}

// ParseEvent splits an event key on its last slash.
func ParseEvent(key string) (Event, error) {
	i := strings.LastIndex(key, "/")
	if i <= 0 || i == len(key)-1 {
		return Event{}, &ParseError{Key: key, Reason: "does not match <user-group>/YYYY-MM-DD"}
	}
	date, err := dates.Parse(key[i+1:])
	if err != nil {
		return Event{}, &ParseError{Key: key, Reason: "invalid date"}
	}
	return Event{UserGroup: key[:i], Date: date}, nil
}

// FormatEvent builds a <user-group>/<YYYY-MM-DD> key.
func FormatEvent(userGroup string, date time.Time) string {
	return userGroup + "/" + dates.Format(date)
}

// calendarDay rejects dates such as 2024-02-30 that time.Date would roll over.
func calendarDay(year, month, day string) (time.Time, error) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	date := dates.Date(y, time.Month(m), d)
	if date.Year() != y || int(date.Month()) != m || date.Day() != d {
		return time.Time{}, fmt.Errorf("%s-%s-%s is not a calendar date", year, month, day)
	}
	return date, nil
}
