package sponsors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/listing"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
	"github.com/ukpython/ukpython/pkg/ukpython/news"
)

// Handler handles sponsor requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new sponsors handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// SponsorResponse represents a sponsor in API responses
type SponsorResponse struct {
	ID   uint   `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// SponsorDetailResponse adds the sponsor's news items
type SponsorDetailResponse struct {
	SponsorResponse
	NewsItems []news.SponsoredNewsItemResponse `json:"news_items"`
}

func newSponsorResponse(s models.Sponsor) SponsorResponse {
	return SponsorResponse{ID: s.ID, Key: s.Key, Name: s.Name, URL: s.URL}
}

// List returns a page of sponsors
// @Summary List sponsors
// @Tags sponsors
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Success 200 {object} listing.Page[SponsorResponse]
// @Failure 400 {object} map[string]string "Invalid query"
// @Router /sponsors [get]
func (h *Handler) List(c *gin.Context) {
	params, err := listing.ParseParams(c.Query("page"), c.Query("per_page"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := listing.Find[models.Sponsor](h.db, params, models.OrderSponsors)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sponsors"})
		return
	}

	items := make([]SponsorResponse, len(page.Items))
	for i, s := range page.Items {
		items[i] = newSponsorResponse(s)
	}

	c.JSON(http.StatusOK, listing.Page[SponsorResponse]{
		Items:   items,
		Page:    page.Page,
		PerPage: page.PerPage,
		Total:   page.Total,
	})
}

// Get returns a sponsor with its sponsored news, newest first
// @Summary Get a sponsor
// @Description Get a sponsor with its sponsored news
// @Tags sponsors
// @Produce json
// @Param key path string true "Sponsor key"
// @Success 200 {object} SponsorDetailResponse
// @Failure 404 {object} map[string]string "Sponsor not found"
// @Router /sponsors/{key} [get]
func (h *Handler) Get(c *gin.Context) {
	var sponsor models.Sponsor
	if err := h.db.Where(map[string]interface{}{"key": c.Param("key")}).Take(&sponsor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sponsor not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sponsor"})
		return
	}

	items, err := listing.All[models.SponsoredNewsItem](h.db,
		func(db *gorm.DB) *gorm.DB { return db.Where("sponsor_id = ?", sponsor.ID) },
		models.OrderSponsoredNewsItems,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sponsored news"})
		return
	}

	resp := SponsorDetailResponse{
		SponsorResponse: newSponsorResponse(sponsor),
		NewsItems:       make([]news.SponsoredNewsItemResponse, len(items)),
	}
	for i, item := range items {
		resp.NewsItems[i] = news.NewSponsoredNewsItemResponse(item, &sponsor)
	}

	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers sponsor routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sponsors", h.List)
	rg.GET("/sponsors/:key", h.Get)
}
