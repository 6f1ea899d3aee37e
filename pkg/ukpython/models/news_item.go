package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// NewsItem is a dated news post. NewsletterMonth tags the newsletter issue
// ("YYYY-MM") it belongs to; NewsletterOnly hides it from the website.
type NewsItem struct {
	Record
	Content
	Title           string    `gorm:"not null" json:"title"`
	Slug            string    `gorm:"not null;index" json:"slug"`
	Date            time.Time `gorm:"type:date;not null;index" json:"date"`
	NewsletterMonth *string   `gorm:"type:varchar(7);index" json:"newsletter_month"`
	NewsletterOnly  bool      `gorm:"not null;default:false" json:"newsletter_only"`
}

func (n *NewsItem) String() string {
	return n.Title
}

// BeforeSave validates the item and normalises its date to a calendar day
func (n *NewsItem) BeforeSave(tx *gorm.DB) error {
	if err := n.validate(); err != nil {
		return fmt.Errorf("news item: %w", err)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("news item %s: %w", n.Key, ErrTitleRequired)
	}
	if n.Date.IsZero() {
		return fmt.Errorf("news item %s: %w", n.Key, ErrDateRequired)
	}
	if err := validateNewsletterMonth(n.NewsletterMonth); err != nil {
		return fmt.Errorf("news item %s: %w", n.Key, err)
	}
	n.Date = calendarDate(n.Date)
	return nil
}

// OrderNewsItems applies the default newest-first ordering.
func OrderNewsItems(db *gorm.DB) *gorm.DB {
	return db.Order("news_items.date DESC").Order("news_items.id DESC")
}
