// Package listing provides the paged listing every content type is browsed
// through: optional filters and an ordering composed as GORM scopes, then
// sliced into a page.
package listing

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

var ErrInvalidParams = errors.New("page and per_page must be positive integers")

// Scope is a composable query step.
type Scope = func(*gorm.DB) *gorm.DB

// Params selects one page of a listing. Pages are numbered from 1.
type Params struct {
	Page    int
	PerPage int
}

// ParseParams reads page and per_page query values. Empty values take the defaults.
func ParseParams(page, perPage string) (Params, error) {
	p := Params{Page: 1, PerPage: DefaultPerPage}
	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return Params{}, ErrInvalidParams
		}
		p.Page = n
	}
	if perPage != "" {
		n, err := strconv.Atoi(perPage)
		if err != nil || n < 1 {
			return Params{}, ErrInvalidParams
		}
		p.PerPage = n
	}
	return p.normalize(), nil
}

func (p Params) normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Paginate slices a query to the requested page.
func Paginate(p Params) Scope {
	p = p.normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((p.Page - 1) * p.PerPage).Limit(p.PerPage)
	}
}

// Limit keeps the first n rows. A nil n leaves the query unbounded.
func Limit(n *int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if n == nil {
			return db
		}
		return db.Limit(*n)
	}
}

// Page is one page of a listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

// Find counts the rows matched by scopes and loads the requested page of them.
func Find[T any](db *gorm.DB, p Params, scopes ...Scope) (Page[T], error) {
	p = p.normalize()
	tx := db.Session(&gorm.Session{})

	var total int64
	if err := tx.Model(new(T)).Scopes(scopes...).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	items := []T{}
	if err := tx.Scopes(scopes...).Scopes(Paginate(p)).Find(&items).Error; err != nil {
		return Page[T]{}, err
	}

	return Page[T]{Items: items, Page: p.Page, PerPage: p.PerPage, Total: total}, nil
}

// All loads every row matched by scopes.
func All[T any](db *gorm.DB, scopes ...Scope) ([]T, error) {
	items := []T{}
	if err := db.Scopes(scopes...).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
