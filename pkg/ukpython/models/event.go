package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Event.Time layouts. Times are stored as TimeLayout unless they carry seconds.
const (
	TimeLayout        = "15:04"
	TimeLayoutSeconds = "15:04:05"
)

// Event is a meeting run by a user group. Date and Time are nil while
// the event is unscheduled.
type Event struct {
	Record
	UserGroupID uint       `gorm:"not null;index" json:"user_group_id"`
	Name        string     `gorm:"not null" json:"name"`
	URL         string     `json:"url,omitempty"`
	Date        *time.Time `gorm:"type:date;index" json:"date"`
	Time        *string    `gorm:"type:varchar(8)" json:"time"`
	Venue       string     `json:"venue,omitempty"`

	// Relationships
	UserGroup *UserGroup `gorm:"foreignKey:UserGroupID" json:"user_group,omitempty"`
}

func (e *Event) String() string {
	return e.Name
}

// BeforeSave validates the event and normalises its date to a calendar day
func (e *Event) BeforeSave(tx *gorm.DB) error {
	if err := e.validate(); err != nil {
		return fmt.Errorf("event: %w", err)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("event %s: %w", e.Key, ErrNameRequired)
	}
	if e.Time != nil {
		clock, err := parseClock(*e.Time)
		if err != nil {
			return fmt.Errorf("event %s: %w", e.Key, ErrInvalidTime)
		}
		t := formatClock(clock)
		e.Time = &t
	}
	if e.Date != nil {
		d := calendarDate(*e.Date)
		e.Date = &d
	}
	return nil
}

// StartsAt combines the event's date and time in loc.
// ok is false for unscheduled events; allDay is true when only the date is known.
func (e *Event) StartsAt(loc *time.Location) (start time.Time, allDay bool, ok bool) {
	if e.Date == nil {
		return time.Time{}, false, false
	}
	y, m, d := e.Date.Date()
	if e.Time == nil {
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true, true
	}
	clock, err := parseClock(*e.Time)
	if err != nil {
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true, true
	}
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, loc), false, true
}

func parseClock(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(TimeLayoutSeconds, s)
}

func formatClock(t time.Time) string {
	if t.Second() != 0 {
		return t.Format(TimeLayoutSeconds)
	}
	return t.Format(TimeLayout)
}

// OrderEvents applies the default (date, time) event ordering.
func OrderEvents(db *gorm.DB) *gorm.DB {
	return db.Order("events.date ASC").Order("events.time ASC")
}
