package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/auth"
	"github.com/ukpython/ukpython/pkg/ukpython/dates"
	"github.com/ukpython/ukpython/pkg/ukpython/events"
	"github.com/ukpython/ukpython/pkg/ukpython/importexport"
	"github.com/ukpython/ukpython/pkg/ukpython/logging"
	"github.com/ukpython/ukpython/pkg/ukpython/metrics"
	"github.com/ukpython/ukpython/pkg/ukpython/news"
	"github.com/ukpython/ukpython/pkg/ukpython/pages"
	"github.com/ukpython/ukpython/pkg/ukpython/sponsors"
	"github.com/ukpython/ukpython/pkg/ukpython/usergroups"
)

// server holds what the HTTP routes are built from.
type server struct {
	db       *gorm.DB
	importer *importexport.Importer
	manager  *auth.Manager
	today    dates.Clock
	loc      *time.Location
	dumpDir  string
	logger   *zap.Logger
}

// setupRouter registers every route on a new gin engine
func setupRouter(s server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(s.logger), metrics.Middleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", metrics.Handler())

	eventsHandler := events.NewHandler(s.db, s.today, s.loc)
	eventsHandler.RegisterFeedRoutes(r)

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"service": "ukpython",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(s.manager, s.logger)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Content routes (public, read only)
		usergroups.NewHandler(s.db, s.today, s.loc).RegisterRoutes(api)
		eventsHandler.RegisterRoutes(api)
		news.NewHandler(s.db).RegisterRoutes(api)
		sponsors.NewHandler(s.db).RegisterRoutes(api)
		pages.NewHandler(s.db).RegisterRoutes(api)

		// Admin routes (admin token required)
		adminGroup := api.Group("/admin")
		adminGroup.Use(s.manager.Middleware(), auth.RequireAdmin())
		importexport.NewHandler(s.db, s.importer, s.dumpDir, s.logger).RegisterRoutes(adminGroup)
	}

	return r
}
