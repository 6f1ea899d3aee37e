package news

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/content"
	"github.com/ukpython/ukpython/pkg/ukpython/dates"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

const summaryLength = 200

// Handler handles news requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new news handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// NewsItemResponse represents a news item in API responses
type NewsItemResponse struct {
	ID              uint    `json:"id"`
	Key             string  `json:"key"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	Date            string  `json:"date"`
	NewsletterMonth *string `json:"newsletter_month"`
	NewsletterOnly  bool    `json:"newsletter_only"`
	Summary         string  `json:"summary,omitempty"`
	Body            string  `json:"body,omitempty"`
}

// SponsoredNewsItemResponse represents a sponsored news item in API responses
type SponsoredNewsItemResponse struct {
	ID              uint    `json:"id"`
	Key             string  `json:"key"`
	Date            string  `json:"date"`
	NewsletterMonth *string `json:"newsletter_month"`
	SponsorKey      string  `json:"sponsor_key,omitempty"`
	SponsorName     string  `json:"sponsor_name,omitempty"`
	Body            string  `json:"body"`
}

// NewsletterResponse is one newsletter issue
type NewsletterResponse struct {
	Month     string                      `json:"month"`
	News      []NewsItemResponse          `json:"news"`
	Sponsored []SponsoredNewsItemResponse `json:"sponsored"`
}

// NewNewsItemResponse converts a news item, including its body when withBody is set
func NewNewsItemResponse(item models.NewsItem, withBody bool) NewsItemResponse {
	resp := NewsItemResponse{
		ID:              item.ID,
		Key:             item.Key,
		Title:           item.Title,
		Slug:            item.Slug,
		Date:            dates.Format(item.Date),
		NewsletterMonth: item.NewsletterMonth,
		NewsletterOnly:  item.NewsletterOnly,
	}
	if withBody {
		resp.Body = content.Sanitize(item.Body)
	} else {
		resp.Summary = content.Summary(item.Body, summaryLength)
	}
	return resp
}

// NewSponsoredNewsItemResponse converts a sponsored news item. sponsor may be nil.
func NewSponsoredNewsItemResponse(item models.SponsoredNewsItem, sponsor *models.Sponsor) SponsoredNewsItemResponse {
	resp := SponsoredNewsItemResponse{
		ID:              item.ID,
		Key:             item.Key,
		Date:            dates.Format(item.Date),
		NewsletterMonth: item.NewsletterMonth,
		Body:            content.Sanitize(item.Body),
	}
	if sponsor != nil {
		resp.SponsorKey = sponsor.Key
		resp.SponsorName = sponsor.Name
	}
	return resp
}

// List returns the news items shown on the website, newest first.
// The optional limit query value caps the number of items.
// @Summary List news
// @Description Get the news items shown on the website, newest first
// @Tags news
// @Produce json
// @Param limit query int false "Maximum number of items"
// @Success 200 {array} NewsItemResponse
// @Failure 400 {object} map[string]string "Invalid limit"
// @Router /news [get]
func (h *Handler) List(c *gin.Context) {
	var numItems *int
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		numItems = &n
	}

	items, err := WebsiteItems(h.db, numItems)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch news"})
		return
	}

	resp := make([]NewsItemResponse, len(items))
	for i, item := range items {
		resp[i] = NewNewsItemResponse(item, false)
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns a single news item by key
// @Summary Get a news item
// @Tags news
// @Produce json
// @Param key path string true "News item key"
// @Success 200 {object} NewsItemResponse
// @Failure 404 {object} map[string]string "News item not found"
// @Router /news/{key} [get]
func (h *Handler) Get(c *gin.Context) {
	var item models.NewsItem
	if err := h.db.Where(map[string]interface{}{"key": c.Param("key")}).Take(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "News item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch news item"})
		return
	}

	c.JSON(http.StatusOK, NewNewsItemResponse(item, true))
}

// Newsletter returns the news and sponsored news of one issue
// @Summary Get a newsletter issue
// @Description Get the news and sponsored news tagged for a month
// @Tags news
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month"
// @Success 200 {object} NewsletterResponse
// @Failure 400 {object} map[string]string "Invalid month"
// @Router /newsletter/{year}/{month} [get]
func (h *Handler) Newsletter(c *gin.Context) {
	year, month, err := dates.ParseYearMonth(c.Param("year"), c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := NewsletterItems(h.db, year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch news"})
		return
	}
	sponsored, err := NewsletterSponsoredItems(h.db, year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sponsored news"})
		return
	}

	sponsors, err := owningSponsors(h.db, sponsored)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sponsors"})
		return
	}

	resp := NewsletterResponse{
		Month:     dates.NewsletterMonth(year, month),
		News:      make([]NewsItemResponse, len(items)),
		Sponsored: make([]SponsoredNewsItemResponse, len(sponsored)),
	}
	for i, item := range items {
		resp.News[i] = NewNewsItemResponse(item, true)
	}
	for i, item := range sponsored {
		var sponsor *models.Sponsor
		if s, ok := sponsors[item.SponsorID]; ok {
			sponsor = &s
		}
		resp.Sponsored[i] = NewSponsoredNewsItemResponse(item, sponsor)
	}

	c.JSON(http.StatusOK, resp)
}

func owningSponsors(db *gorm.DB, items []models.SponsoredNewsItem) (map[uint]models.Sponsor, error) {
	sponsors := make(map[uint]models.Sponsor)
	if len(items) == 0 {
		return sponsors, nil
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.SponsorID)
	}
	var found []models.Sponsor
	if err := db.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for _, s := range found {
		sponsors[s.ID] = s
	}
	return sponsors, nil
}

// RegisterRoutes registers news routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/news", h.List)
	rg.GET("/news/:key", h.Get)
	rg.GET("/newsletter/:year/:month", h.Newsletter)
}
