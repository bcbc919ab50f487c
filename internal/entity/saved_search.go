package entity

import (
	"strings"
	"time"
)

// SavedSearch is a persisted alert query. Watermark records how far the
// search has been evaluated against newly activated listings; it only moves
// forward.
type SavedSearch struct {
	ID          string
	UserID      string
	Name        string
	CategoryID  string
	Keyword     string
	PriceMin    *int64
	PriceMax    *int64
	City        string
	RadiusKm    int
	EmailAlerts bool
	IsActive    bool
	Watermark   time.Time
	CreatedAt   time.Time
}

// Matches evaluates the search criteria against a listing, given the
// descendant set of the search's category (nil when the search has no
// category filter). It is a pure predicate: no side effects.
func (s *SavedSearch) Matches(l *Listing, categoryDescendants map[string]struct{}) bool {
	if !l.IsActive() {
		return false
	}
	if s.CategoryID != "" {
		if categoryDescendants == nil {
			return false
		}
		if _, ok := categoryDescendants[l.CategoryID]; !ok {
			return false
		}
	}
	if s.PriceMin != nil {
		if l.Price == nil || l.Price.Amount < *s.PriceMin {
			return false
		}
	}
	if s.PriceMax != nil {
		if l.Price == nil || l.Price.Amount > *s.PriceMax {
			return false
		}
	}
	if s.Keyword != "" {
		kw := strings.ToLower(s.Keyword)
		if !strings.Contains(strings.ToLower(l.Title), kw) &&
			!strings.Contains(strings.ToLower(l.Description), kw) {
			return false
		}
	}
	if s.City != "" {
		if !strings.Contains(strings.ToLower(l.City), strings.ToLower(s.City)) {
			return false
		}
	}
	return true
}
