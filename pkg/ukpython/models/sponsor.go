package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Sponsor is an organisation supporting the community. It owns its sponsored news.
type Sponsor struct {
	Record
	Name string `gorm:"not null" json:"name"`
	URL  string `json:"url,omitempty"`

	// Relationships
	NewsItems []SponsoredNewsItem `gorm:"foreignKey:SponsorID;constraint:OnDelete:CASCADE" json:"news_items,omitempty"`
}

func (s *Sponsor) String() string {
	return s.Name
}

// BeforeSave rejects sponsors without a key or name
func (s *Sponsor) BeforeSave(tx *gorm.DB) error {
	if err := s.validate(); err != nil {
		return fmt.Errorf("sponsor: %w", err)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("sponsor %s: %w", s.Key, ErrNameRequired)
	}
	return nil
}

// BeforeDelete removes the sponsor's news items.
func (s *Sponsor) BeforeDelete(tx *gorm.DB) error {
	if s.ID == 0 {
		return nil
	}
	return tx.Where("sponsor_id = ?", s.ID).Delete(&SponsoredNewsItem{}).Error
}

// OrderSponsors orders sponsors by name.
func OrderSponsors(db *gorm.DB) *gorm.DB {
	return db.Order("sponsors.name ASC")
}

// SponsoredNewsItem is a newsletter announcement paid for by a sponsor.
type SponsoredNewsItem struct {
	Record
	Content
	SponsorID       uint      `gorm:"not null;index" json:"sponsor_id"`
	Date            time.Time `gorm:"type:date;not null;index" json:"date"`
	NewsletterMonth *string   `gorm:"type:varchar(7);index" json:"newsletter_month"`

	// Relationships
	Sponsor *Sponsor `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
}

// BeforeSave validates the item and normalises its date to a calendar day
func (n *SponsoredNewsItem) BeforeSave(tx *gorm.DB) error {
	if err := n.validate(); err != nil {
		return fmt.Errorf("sponsored news item: %w", err)
	}
	if n.Date.IsZero() {
		return fmt.Errorf("sponsored news item %s: %w", n.Key, ErrDateRequired)
	}
	if err := validateNewsletterMonth(n.NewsletterMonth); err != nil {
		return fmt.Errorf("sponsored news item %s: %w", n.Key, err)
	}
	n.Date = calendarDate(n.Date)
	return nil
}

// OrderSponsoredNewsItems orders sponsored news newest first.
func OrderSponsoredNewsItems(db *gorm.DB) *gorm.DB {
	return db.Order("sponsored_news_items.date DESC").Order("sponsored_news_items.id DESC")
}
