package usergroups

import (
	"time"

	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/dates"
	"github.com/ukpython/ukpython/pkg/ukpython/events"
	"github.com/ukpython/ukpython/pkg/ukpython/listing"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

// UpcomingWindowDays bounds OtherFutureEvents.
const UpcomingWindowDays = 60

// WithoutEventsIn excludes groups that have at least one event in the month.
// Groups that have never had an event are kept.
func WithoutEventsIn(year int, month time.Month) listing.Scope {
	return func(db *gorm.DB) *gorm.DB {
		scheduled := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Event{}).
			Select("events.user_group_id").
			Scopes(events.ScheduledInMonth(year, month))
		return db.Where("user_groups.id NOT IN (?)", scheduled)
	}
}

// NoEventsScheduled returns every group with no event in the month, ordered by name.
func NoEventsScheduled(db *gorm.DB, year int, month time.Month) ([]models.UserGroup, error) {
	return listing.All[models.UserGroup](db, WithoutEventsIn(year, month), models.OrderUserGroups)
}

// FutureEvents returns the group's events dated today or later.
func FutureEvents(db *gorm.DB, group *models.UserGroup, today time.Time) ([]models.Event, error) {
	return listing.All[models.Event](db,
		events.ForUserGroup(group.ID),
		events.FutureEvents(today),
		models.OrderEvents,
	)
}

// PastEvents returns the group's events dated before today.
func PastEvents(db *gorm.DB, group *models.UserGroup, today time.Time) ([]models.Event, error) {
	return listing.All[models.Event](db,
		events.ForUserGroup(group.ID),
		events.PastEvents(today),
		models.OrderEvents,
	)
}

// Upcoming splits a group's future events into the next one and the others
// falling within the following 60 days. Both come from the same ordered result,
// so Others never repeats Next.
type Upcoming struct {
	Next   *models.Event
	Others []models.Event
}

// SplitUpcoming derives Upcoming from future events already in (date, time) order.
func SplitUpcoming(future []models.Event, today time.Time) Upcoming {
	up := Upcoming{Others: []models.Event{}}
	if len(future) == 0 {
		return up
	}
	up.Next = &future[0]

	cutoff := dates.AddDays(today, UpcomingWindowDays)
	for _, ev := range future[1:] {
		if ev.Date == nil || ev.Date.After(cutoff) {
			break
		}
		up.Others = append(up.Others, ev)
	}
	return up
}

// UpcomingEvents loads the group's future events once and splits them.
func UpcomingEvents(db *gorm.DB, group *models.UserGroup, today time.Time) (Upcoming, error) {
	future, err := FutureEvents(db, group, today)
	if err != nil {
		return Upcoming{}, err
	}
	return SplitUpcoming(future, today), nil
}

// NextEvent returns the group's first future event, or nil when none is scheduled.
func NextEvent(db *gorm.DB, group *models.UserGroup, today time.Time) (*models.Event, error) {
	up, err := UpcomingEvents(db, group, today)
	if err != nil {
		return nil, err
	}
	return up.Next, nil
}

// OtherFutureEvents returns the future events within 60 days, minus the next one.
func OtherFutureEvents(db *gorm.DB, group *models.UserGroup, today time.Time) ([]models.Event, error) {
	up, err := UpcomingEvents(db, group, today)
	if err != nil {
		return nil, err
	}
	return up.Others, nil
}
