package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrKeyRequired            = errors.New("key is required")
	ErrNameRequired           = errors.New("name is required")
	ErrTitleRequired          = errors.New("title is required")
	ErrDateRequired           = errors.New("date is required")
	ErrInvalidTime            = errors.New("time must be HH:MM or HH:MM:SS")
	ErrInvalidNewsletterMonth = errors.New("newsletter month is longer than 7 characters")
)

// NewsletterMonthMaxLen bounds the stored tag. Tags are free text; only an
// exact "YYYY-MM" match places an item in a newsletter issue.
const NewsletterMonthMaxLen = 7

// Record holds the columns shared by every content entity.
// Key is the identifier the entity is imported and exported under.
type Record struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`
}

// Base gives generic code access to the shared columns.
func (r *Record) Base() *Record {
	return r
}

func (r *Record) validate() error {
	if strings.TrimSpace(r.Key) == "" {
		return ErrKeyRequired
	}
	return nil
}

// Content is the long-form body carried by news items, sponsored news and pages.
type Content struct {
	Body string `gorm:"type:text" json:"body"`
}

// calendarDate drops the clock and zone from t, keeping its calendar day.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validateNewsletterMonth(tag *string) error {
	if tag == nil {
		return nil
	}
	if utf8.RuneCountInString(*tag) > NewsletterMonthMaxLen {
		return ErrInvalidNewsletterMonth
	}
	return nil
}
