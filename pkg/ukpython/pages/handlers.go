package pages

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/content"
	"github.com/ukpython/ukpython/pkg/ukpython/listing"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

// Handler handles page requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new pages handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// PageResponse represents a page in API responses
type PageResponse struct {
	ID    uint   `json:"id"`
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// List returns a page of pages, without bodies
// @Summary List pages
// @Tags pages
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Success 200 {object} listing.Page[PageResponse]
// @Failure 400 {object} map[string]string "Invalid query"
// @Router /pages [get]
func (h *Handler) List(c *gin.Context) {
	params, err := listing.ParseParams(c.Query("page"), c.Query("per_page"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := listing.Find[models.Page](h.db, params, models.OrderPages)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pages"})
		return
	}

	items := make([]PageResponse, len(page.Items))
	for i, p := range page.Items {
		items[i] = PageResponse{ID: p.ID, Key: p.Key, Title: p.Title}
	}

	c.JSON(http.StatusOK, listing.Page[PageResponse]{
		Items:   items,
		Page:    page.Page,
		PerPage: page.PerPage,
		Total:   page.Total,
	})
}

// Get returns a single page with its sanitized body
// @Summary Get a page
// @Tags pages
// @Produce json
// @Param key path string true "Page key"
// @Success 200 {object} PageResponse
// @Failure 404 {object} map[string]string "Page not found"
// @Router /pages/{key} [get]
func (h *Handler) Get(c *gin.Context) {
	var p models.Page
	if err := h.db.Where(map[string]interface{}{"key": c.Param("key")}).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch page"})
		return
	}

	c.JSON(http.StatusOK, PageResponse{
		ID:    p.ID,
		Key:   p.Key,
		Title: p.Title,
		Body:  content.Sanitize(p.Body),
	})
}

// RegisterRoutes registers page routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/pages", h.List)
	rg.GET("/pages/:key", h.Get)
}
