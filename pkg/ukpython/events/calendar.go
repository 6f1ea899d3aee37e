package events

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

const productID = "-//UK Python//Community Events//EN"

// Calendar builds an iCalendar feed of scheduled events. Events with only a
// date become all-day entries; events with a time start at that time in loc.
func Calendar(name string, evs []models.Event, groups map[uint]models.UserGroup, loc *time.Location, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)
	if loc != nil {
		cal.SetXWRTimezone(loc.String())
	}

	for _, ev := range evs {
		start, allDay, ok := ev.StartsAt(loc)
		if !ok {
			continue
		}

		vev := cal.AddEvent(ev.Key + "@uk.python.org")
		vev.SetDtStampTime(stamp)
		if allDay {
			vev.SetAllDayStartAt(start)
			vev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		} else {
			vev.SetStartAt(start)
		}

		summary := ev.Name
		if g, found := groups[ev.UserGroupID]; found {
			summary = g.Name + ": " + ev.Name
		}
		vev.SetSummary(summary)
		if ev.Venue != "" {
			vev.SetLocation(ev.Venue)
		}
		if ev.URL != "" {
			vev.SetURL(ev.URL)
		}
	}

	return cal
}
