package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Page is a standalone page of site content
type Page struct {
	Record
	Content
	Title string `gorm:"not null" json:"title"`
}

func (p *Page) String() string {
	return p.Title
}

// BeforeSave rejects pages without a key or title
func (p *Page) BeforeSave(tx *gorm.DB) error {
	if err := p.validate(); err != nil {
		return fmt.Errorf("page: %w", err)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("page %s: %w", p.Key, ErrTitleRequired)
	}
	return nil
}

// OrderPages orders pages by key.
func OrderPages(db *gorm.DB) *gorm.DB {
	return db.Order("pages.`key` ASC")
}
