package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// UserGroup is a local Python user group. It owns its events.
type UserGroup struct {
	Record
	Name string `gorm:"not null" json:"name"`
	URL  string `json:"url,omitempty"`

	// Relationships
	Events []Event `gorm:"foreignKey:UserGroupID;constraint:OnDelete:CASCADE" json:"events,omitempty"`
}

func (g *UserGroup) String() string {
	return g.Name
}

// BeforeSave rejects groups without a key or name
func (g *UserGroup) BeforeSave(tx *gorm.DB) error {
	if err := g.validate(); err != nil {
		return fmt.Errorf("user group: %w", err)
	}
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("user group %s: %w", g.Key, ErrNameRequired)
	}
	return nil
}

// BeforeDelete removes the group's events. SQLite leaves foreign keys
// unenforced unless the connection enables them, so the cascade is explicit.
func (g *UserGroup) BeforeDelete(tx *gorm.DB) error {
	if g.ID == 0 {
		return nil
	}
	return tx.Where("user_group_id = ?", g.ID).Delete(&Event{}).Error
}

// OrderUserGroups applies the default user group ordering.
func OrderUserGroups(db *gorm.DB) *gorm.DB {
	return db.Order("user_groups.name ASC")
}
