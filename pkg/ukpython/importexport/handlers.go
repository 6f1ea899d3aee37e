package importexport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/auth"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

// Handler handles the admin import/export requests
type Handler struct {
	db       *gorm.DB
	importer *Importer
	dumpDir  string
	logger   *zap.Logger
}

// NewHandler creates a new import/export handler working on dumpDir
func NewHandler(db *gorm.DB, importer *Importer, dumpDir string, logger *zap.Logger) *Handler {
	return &Handler{db: db, importer: importer, dumpDir: dumpDir, logger: logger}
}

// StatsResponse represents content statistics
type StatsResponse struct {
	UserGroups         int64 `json:"user_groups"`
	Events             int64 `json:"events"`
	UnscheduledEvents  int64 `json:"unscheduled_events"`
	NewsItems          int64 `json:"news_items"`
	NewsletterOnlyNews int64 `json:"newsletter_only_news"`
	Sponsors           int64 `json:"sponsors"`
	SponsoredNewsItems int64 `json:"sponsored_news_items"`
	Pages              int64 `json:"pages"`
}

// Import reloads the dump tree into the database
// @Summary Import content
// @Description Reload the dump tree into the database
// @Tags admin
// @Produce json
// @Success 200 {object} ImportResult
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 403 {object} map[string]string "Admin access required"
// @Failure 500 {object} map[string]string "Import failed"
// @Security BearerAuth
// @Router /admin/import [post]
func (h *Handler) Import(c *gin.Context) {
	username, _ := auth.GetUsername(c)
	h.logger.Info("content import requested", zap.String("username", username), zap.String("root", h.dumpDir))

	result, err := h.importer.Load(h.dumpDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import content"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export writes the database back to the dump tree
// @Summary Export content
// @Description Write the database back to the dump tree
// @Tags admin
// @Produce json
// @Success 200 {object} ExportResult
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 403 {object} map[string]string "Admin access required"
// @Failure 500 {object} map[string]string "Export failed"
// @Security BearerAuth
// @Router /admin/export [post]
func (h *Handler) Export(c *gin.Context) {
	username, _ := auth.GetUsername(c)
	h.logger.Info("content export requested", zap.String("username", username), zap.String("root", h.dumpDir))

	result, err := h.importer.Dump(h.dumpDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export content"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stats returns record counts per content type
// @Summary Content statistics
// @Tags admin
// @Produce json
// @Success 200 {object} StatsResponse
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 403 {object} map[string]string "Admin access required"
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	var stats StatsResponse

	h.db.Model(&models.UserGroup{}).Count(&stats.UserGroups)
	h.db.Model(&models.Event{}).Count(&stats.Events)
	h.db.Model(&models.Event{}).Where("date IS NULL").Count(&stats.UnscheduledEvents)
	h.db.Model(&models.NewsItem{}).Count(&stats.NewsItems)
	h.db.Model(&models.NewsItem{}).Where("newsletter_only = ?", true).Count(&stats.NewsletterOnlyNews)
	h.db.Model(&models.Sponsor{}).Count(&stats.Sponsors)
	h.db.Model(&models.SponsoredNewsItem{}).Count(&stats.SponsoredNewsItems)
	h.db.Model(&models.Page{}).Count(&stats.Pages)

	c.JSON(http.StatusOK, stats)
}

// RegisterRoutes registers admin routes. The group must already require an admin token.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import", h.Import)
	rg.POST("/export", h.Export)
	rg.GET("/stats", h.Stats)
}
