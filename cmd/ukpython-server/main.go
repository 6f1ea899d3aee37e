package main

import (
	"flag"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ukpython/ukpython/pkg/ukpython/auth"
	"github.com/ukpython/ukpython/pkg/ukpython/config"
	"github.com/ukpython/ukpython/pkg/ukpython/database"
	"github.com/ukpython/ukpython/pkg/ukpython/dates"
	"github.com/ukpython/ukpython/pkg/ukpython/importexport"
	"github.com/ukpython/ukpython/pkg/ukpython/logging"
)

// @title UK Python API
// @version 1.0
// @description User groups, events, news, sponsors and pages of the UK Python community site.

// @license.name MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Admin JWT. Format: "Bearer {token}"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err))
	}

	// Connect to database and run auto-migrations
	if err := database.Connect(cfg.DBPath, cfg.DBDebug); err != nil {
		logger.Fatal("failed to connect to database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	db := database.GetDB()

	importer := importexport.NewImporter(db, logger)
	if _, err := importer.Load(cfg.DumpDir); err != nil {
		logger.Fatal("initial content load failed", zap.String("dir", cfg.DumpDir), zap.Error(err))
	}

	if cfg.ReloadCron != "" {
		scheduler := cron.New(cron.WithLocation(loc))
		_, err := scheduler.AddFunc(cfg.ReloadCron, func() {
			// failures are logged by the importer; the previous content stays in place
			importer.Load(cfg.DumpDir)
		})
		if err != nil {
			logger.Fatal("invalid reload schedule", zap.String("schedule", cfg.ReloadCron), zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("content reload scheduled", zap.String("schedule", cfg.ReloadCron))
	}

	today := dates.WallClock(loc)
	manager := auth.NewManager(cfg.JWTSecret, cfg.AdminUsername, cfg.AdminPasswordHash)
	if cfg.AdminPasswordHash == "" {
		logger.Warn("no admin password hash configured, admin login is disabled")
	}

	gin.SetMode(cfg.GinMode)
	r := setupRouter(server{
		db:       db,
		importer: importer,
		manager:  manager,
		today:    today,
		loc:      loc,
		dumpDir:  cfg.DumpDir,
		logger:   logger,
	})

	logger.Info("starting ukpython server",
		zap.String("port", cfg.Port),
		zap.String("base_url", cfg.BaseURL),
		zap.String("timezone", loc.String()),
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
