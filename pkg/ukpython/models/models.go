package models

import "gorm.io/gorm"

// AllModels returns all models for migration
// Note: owners are migrated before the entities that reference them
func AllModels() []interface{} {
	return []interface{}{
		&UserGroup{},
		&Event{},
		&Sponsor{},
		&SponsoredNewsItem{},
		&NewsItem{},
		&Page{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
