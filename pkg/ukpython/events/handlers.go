package events

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/dates"
	"github.com/ukpython/ukpython/pkg/ukpython/listing"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

// Handler handles event requests
type Handler struct {
	db    *gorm.DB
	today dates.Clock
	loc   *time.Location
}

// NewHandler creates a new events handler
func NewHandler(db *gorm.DB, today dates.Clock, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{db: db, today: today, loc: loc}
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID            uint    `json:"id"`
	Key           string  `json:"key"`
	Name          string  `json:"name"`
	URL           string  `json:"url,omitempty"`
	Date          *string `json:"date"`
	Time          *string `json:"time"`
	Venue         string  `json:"venue,omitempty"`
	UserGroupKey  string  `json:"user_group_key,omitempty"`
	UserGroupName string  `json:"user_group_name,omitempty"`
}

// NewEventResponse converts an event. group may be nil when it is not loaded.
func NewEventResponse(ev models.Event, group *models.UserGroup) EventResponse {
	resp := EventResponse{
		ID:    ev.ID,
		Key:   ev.Key,
		Name:  ev.Name,
		URL:   ev.URL,
		Time:  ev.Time,
		Venue: ev.Venue,
	}
	if ev.Date != nil {
		d := dates.Format(*ev.Date)
		resp.Date = &d
	}
	if group != nil {
		resp.UserGroupKey = group.Key
		resp.UserGroupName = group.Name
	}
	return resp
}

// OwningGroups loads the user groups of evs keyed by ID.
func OwningGroups(db *gorm.DB, evs []models.Event) (map[uint]models.UserGroup, error) {
	groups := make(map[uint]models.UserGroup)
	if len(evs) == 0 {
		return groups, nil
	}

	ids := make([]uint, 0, len(evs))
	for _, ev := range evs {
		ids = append(ids, ev.UserGroupID)
	}

	var found []models.UserGroup
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for _, g := range found {
		groups[g.ID] = g
	}
	return groups, nil
}

func (h *Handler) responses(evs []models.Event) ([]EventResponse, error) {
	groups, err := OwningGroups(h.db, evs)
	if err != nil {
		return nil, err
	}
	out := make([]EventResponse, len(evs))
	for i, ev := range evs {
		var group *models.UserGroup
		if g, ok := groups[ev.UserGroupID]; ok {
			group = &g
		}
		out[i] = NewEventResponse(ev, group)
	}
	return out, nil
}

// List returns a page of events. The scope query value selects
// future (default), past, next-month or all events.
// @Summary List events
// @Description Get a page of events
// @Tags events
// @Produce json
// @Param scope query string false "future, past, next-month or all" default(future)
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Success 200 {object} listing.Page[EventResponse]
// @Failure 400 {object} map[string]string "Invalid query"
// @Router /events [get]
func (h *Handler) List(c *gin.Context) {
	params, err := listing.ParseParams(c.Query("page"), c.Query("per_page"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	today := h.today()
	var filter listing.Scope
	order := models.OrderEvents
	switch c.DefaultQuery("scope", "future") {
	case "future":
		filter = FutureEvents(today)
	case "next-month":
		filter = FutureEventsInNextMonth(today)
	case "past":
		filter = PastEvents(today)
		order = func(db *gorm.DB) *gorm.DB {
			return db.Order("events.date DESC").Order("events.time DESC")
		}
	case "all":
		filter = func(db *gorm.DB) *gorm.DB { return db }
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scope"})
		return
	}

	page, err := listing.Find[models.Event](h.db, params, filter, order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	items, err := h.responses(page.Items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user groups"})
		return
	}

	c.JSON(http.StatusOK, listing.Page[EventResponse]{
		Items:   items,
		Page:    page.Page,
		PerPage: page.PerPage,
		Total:   page.Total,
	})
}

// ListByMonth returns every event scheduled in a calendar month
// @Summary List events in a month
// @Tags events
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month"
// @Success 200 {array} EventResponse
// @Failure 400 {object} map[string]string "Invalid month"
// @Router /events/month/{year}/{month} [get]
func (h *Handler) ListByMonth(c *gin.Context) {
	year, month, err := dates.ParseYearMonth(c.Param("year"), c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evs, err := InMonth(h.db, year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	items, err := h.responses(evs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user groups"})
		return
	}

	c.JSON(http.StatusOK, items)
}

// Get returns a single event by key. Event keys contain a slash, so the
// key is taken from a wildcard segment.
// @Summary Get an event
// @Tags events
// @Produce json
// @Param key path string true "Event key, group/YYYY-MM-DD"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/key/{key} [get]
func (h *Handler) Get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	var ev models.Event
	if err := h.db.Where(map[string]interface{}{"key": key}).Take(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch event"})
		return
	}

	items, err := h.responses([]models.Event{ev})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user group"})
		return
	}

	c.JSON(http.StatusOK, items[0])
}

// Feed serves upcoming events as an iCalendar feed
func (h *Handler) Feed(c *gin.Context) {
	evs, err := Upcoming(h.db, h.today())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	groups, err := OwningGroups(h.db, evs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user groups"})
		return
	}

	cal := Calendar("UK Python events", evs, groups, h.loc, time.Now())
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(cal.Serialize()))
}

// RegisterRoutes registers event API routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/events", h.List)
	rg.GET("/events/month/:year/:month", h.ListByMonth)
	rg.GET("/events/key/*key", h.Get)
}

// RegisterFeedRoutes registers the public calendar feed
func (h *Handler) RegisterFeedRoutes(r gin.IRoutes) {
	r.GET("/events.ics", h.Feed)
}
