package events

import (
	"time"

	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/dates"
	"github.com/ukpython/ukpython/pkg/ukpython/listing"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

// NextMonthDays is the length of the "coming month" window.
const NextMonthDays = 30

// ScheduledInMonth matches events dated within the calendar month.
func ScheduledInMonth(year int, month time.Month) listing.Scope {
	start, end := dates.MonthRange(year, month)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("events.date >= ? AND events.date < ?", start, end)
	}
}

// FutureEvents matches events dated today or later.
func FutureEvents(today time.Time) listing.Scope {
	today = dates.Truncate(today)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("events.date >= ?", today)
	}
}

// PastEvents matches events dated before today.
func PastEvents(today time.Time) listing.Scope {
	today = dates.Truncate(today)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("events.date < ?", today)
	}
}

// FutureEventsInNextMonth matches events in [today, today+30 days).
func FutureEventsInNextMonth(today time.Time) listing.Scope {
	today = dates.Truncate(today)
	end := dates.AddDays(today, NextMonthDays)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("events.date >= ? AND events.date < ?", today, end)
	}
}

// ForUserGroup matches the events of one group.
func ForUserGroup(userGroupID uint) listing.Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("events.user_group_id = ?", userGroupID)
	}
}

// InMonth returns the month's events in (date, time) order.
func InMonth(db *gorm.DB, year int, month time.Month) ([]models.Event, error) {
	return listing.All[models.Event](db, ScheduledInMonth(year, month), models.OrderEvents)
}

// Upcoming returns every event dated today or later in (date, time) order.
func Upcoming(db *gorm.DB, today time.Time) ([]models.Event, error) {
	return listing.All[models.Event](db, FutureEvents(today), models.OrderEvents)
}

// UpcomingInNextMonth returns the events of the coming 30 days in (date, time) order.
func UpcomingInNextMonth(db *gorm.DB, today time.Time) ([]models.Event, error) {
	return listing.All[models.Event](db, FutureEventsInNextMonth(today), models.OrderEvents)
}
