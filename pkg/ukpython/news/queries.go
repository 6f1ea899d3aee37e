package news

import (
	"time"

	"gorm.io/gorm"

	"github.com/ukpython/ukpython/pkg/ukpython/dates"
	"github.com/ukpython/ukpython/pkg/ukpython/keys"
	"github.com/ukpython/ukpython/pkg/ukpython/listing"
	"github.com/ukpython/ukpython/pkg/ukpython/models"
)

// ForNewsletter matches items tagged with the issue's "YYYY-MM" month.
// It applies to both news items and sponsored news items.
func ForNewsletter(year int, month time.Month) listing.Scope {
	tag := dates.NewsletterMonth(year, month)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("newsletter_month = ?", tag)
	}
}

// ForWebsite matches items shown on the website, newest first, keeping at
// most numItems when it is not nil.
func ForWebsite(numItems *int) listing.Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("news_items.newsletter_only = ?", false).
			Scopes(models.OrderNewsItems, listing.Limit(numItems))
	}
}

// WebsiteItems returns the news items shown on the website.
func WebsiteItems(db *gorm.DB, numItems *int) ([]models.NewsItem, error) {
	return listing.All[models.NewsItem](db, ForWebsite(numItems))
}

// NewsletterItems returns the news items of one newsletter issue.
func NewsletterItems(db *gorm.DB, year int, month time.Month) ([]models.NewsItem, error) {
	return listing.All[models.NewsItem](db, ForNewsletter(year, month), models.OrderNewsItems)
}

// NewsletterSponsoredItems returns the sponsored news of one newsletter issue.
func NewsletterSponsoredItems(db *gorm.DB, year int, month time.Month) ([]models.SponsoredNewsItem, error) {
	return listing.All[models.SponsoredNewsItem](db, ForNewsletter(year, month), models.OrderSponsoredNewsItems)
}

// Fields are the news item columns encoded in its key.
type Fields struct {
	Date time.Time
	Slug string
}

// FieldsFromKey parses a YYYY-MM-DD-<slug> news item key.
func FieldsFromKey(key string) (Fields, error) {
	k, err := keys.ParseDated(key)
	if err != nil {
		return Fields{}, err
	}
	return Fields{Date: k.Date, Slug: k.Rest}, nil
}

// SponsoredFields are the sponsored news item columns encoded in its key.
type SponsoredFields struct {
	Date    time.Time
	Sponsor string
}

// SponsoredFieldsFromKey parses a YYYY-MM-DD-<sponsor> sponsored news key.
func SponsoredFieldsFromKey(key string) (SponsoredFields, error) {
	k, err := keys.ParseDated(key)
	if err != nil {
		return SponsoredFields{}, err
	}
	return SponsoredFields{Date: k.Date, Sponsor: k.Rest}, nil
}
