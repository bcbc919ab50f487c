package entity

import "time"

type ListingStatus string

const (
	StatusDraft     ListingStatus = "draft"
	StatusActive    ListingStatus = "active"
	StatusSuspended ListingStatus = "suspended"
	StatusExpired   ListingStatus = "expired"
	StatusSold      ListingStatus = "sold"
	StatusDeleted   ListingStatus = "deleted"
)

// IsValid reports whether s is one of the known listing statuses.
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusSuspended, StatusExpired, StatusSold, StatusDeleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s ListingStatus) IsTerminal() bool {
	return s == StatusDeleted
}

// Price is a monetary amount in integer minor units with its currency code.
type Price struct {
	Amount       int64
	CurrencyCode string
}

// Listing is a classified listing. The embedded counters are derived
// aggregates: they are mutated only through the aggregate ledger, never by
// direct field writes.
type Listing struct {
	ID          string
	UserID      string
	CategoryID  string
	Title       string
	Description string
	// Price is nil for non-priced listings (free / price on request).
	Price         *Price
	Status        ListingStatus
	City          string
	PostalCode    string
	Tags          []string
	ViewCount     int64
	FavoriteCount int64
	ContactCount  int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	// ActivatedAt is the moment of the most recent transition into active.
	// Alert sweeps compare it against saved-search watermarks.
	ActivatedAt *time.Time
	ExpiresAt   *time.Time
}

// IsActive reports whether the listing counts toward category aggregates and
// alert matching.
func (l *Listing) IsActive() bool {
	return l.Status == StatusActive
}

// HasTag reports whether the listing currently carries the tag.
func (l *Listing) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
