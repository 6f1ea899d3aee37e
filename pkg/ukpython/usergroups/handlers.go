package usergroups

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/dates"
	"github.com/ukpython/ukpython/pkg/ukpython/events"
	"github.com/ukpython/ukpython/pkg/ukpython/listing"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

// Handler handles user group requests
type Handler struct {
	db    *gorm.DB
	today dates.Clock
	loc   *time.Location
}

// NewHandler creates a new user groups handler
func NewHandler(db *gorm.DB, today dates.Clock, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{db: db, today: today, loc: loc}
}

// UserGroupResponse represents a user group in API responses
type UserGroupResponse struct {
	ID   uint   `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// UserGroupDetailResponse adds the group's schedule
type UserGroupDetailResponse struct {
	UserGroupResponse
	NextEvent         *events.EventResponse  `json:"next_event"`
	OtherFutureEvents []events.EventResponse `json:"other_future_events"`
	PastEvents        []events.EventResponse `json:"past_events"`
}

func newUserGroupResponse(g models.UserGroup) UserGroupResponse {
	return UserGroupResponse{ID: g.ID, Key: g.Key, Name: g.Name, URL: g.URL}
}

func eventResponses(evs []models.Event, group *models.UserGroup) []events.EventResponse {
	out := make([]events.EventResponse, len(evs))
	for i, ev := range evs {
		out[i] = events.NewEventResponse(ev, group)
	}
	return out
}

// List returns a page of user groups ordered by name. With
// without_events_in=YYYY-MM it returns every group with no event in that month.
// @Summary List user groups
// @Description Get user groups ordered by name, or every group with no event in a month
// @Tags user-groups
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Param without_events_in query string false "Month tag YYYY-MM"
// @Success 200 {object} listing.Page[UserGroupResponse]
// @Failure 400 {object} map[string]string "Invalid query"
// @Router /user-groups [get]
func (h *Handler) List(c *gin.Context) {
	if tag := c.Query("without_events_in"); tag != "" {
		h.listWithoutEvents(c, tag)
		return
	}

	params, err := listing.ParseParams(c.Query("page"), c.Query("per_page"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := listing.Find[models.UserGroup](h.db, params, models.OrderUserGroups)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user groups"})
		return
	}

	items := make([]UserGroupResponse, len(page.Items))
	for i, g := range page.Items {
		items[i] = newUserGroupResponse(g)
	}

	c.JSON(http.StatusOK, listing.Page[UserGroupResponse]{
		Items:   items,
		Page:    page.Page,
		PerPage: page.PerPage,
		Total:   page.Total,
	})
}

func (h *Handler) listWithoutEvents(c *gin.Context, tag string) {
	year, month, err := dates.ParseMonthTag(tag)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groups, err := NoEventsScheduled(h.db, year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user groups"})
		return
	}

	items := make([]UserGroupResponse, len(groups))
	for i, g := range groups {
		items[i] = newUserGroupResponse(g)
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) lookup(c *gin.Context) (*models.UserGroup, bool) {
	var group models.UserGroup
	if err := h.db.Where(map[string]interface{}{"key": c.Param("key")}).Take(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User group not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user group"})
		return nil, false
	}
	return &group, true
}

// Get returns a user group with its next event, the other events of the
// coming 60 days and its past events
// @Summary Get a user group
// @Description Get a user group with its next event, other events of the coming 60 days and past events
// @Tags user-groups
// @Produce json
// @Param key path string true "User group key"
// @Success 200 {object} UserGroupDetailResponse
// @Failure 404 {object} map[string]string "User group not found"
// @Router /user-groups/{key} [get]
func (h *Handler) Get(c *gin.Context) {
	group, ok := h.lookup(c)
	if !ok {
		return
	}

	today := h.today()
	upcoming, err := UpcomingEvents(h.db, group, today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}
	past, err := PastEvents(h.db, group, today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	resp := UserGroupDetailResponse{
		UserGroupResponse: newUserGroupResponse(*group),
		OtherFutureEvents: eventResponses(upcoming.Others, group),
		PastEvents:        eventResponses(past, group),
	}
	if upcoming.Next != nil {
		next := events.NewEventResponse(*upcoming.Next, group)
		resp.NextEvent = &next
	}

	c.JSON(http.StatusOK, resp)
}

// Feed serves a group's upcoming events as an iCalendar feed
// @Summary User group calendar
// @Description Get a user group's upcoming events as an iCalendar feed
// @Tags user-groups
// @Produce text/calendar
// @Param key path string true "User group key"
// @Success 200 {string} string "iCalendar feed"
// @Failure 404 {object} map[string]string "User group not found"
// @Router /user-groups/{key}/events.ics [get]
func (h *Handler) Feed(c *gin.Context) {
	group, ok := h.lookup(c)
	if !ok {
		return
	}

	future, err := FutureEvents(h.db, group, h.today())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	groups := map[uint]models.UserGroup{group.ID: *group}
	cal := events.Calendar(group.Name, future, groups, h.loc, time.Now())
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(cal.Serialize()))
}

// RegisterRoutes registers user group routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/user-groups", h.List)
	rg.GET("/user-groups/:key", h.Get)
	rg.GET("/user-groups/:key/events.ics", h.Feed)
}
