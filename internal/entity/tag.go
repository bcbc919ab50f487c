package entity

import "time"

// Tag is a shared, reference-counted label. UsageCount is derived: it must
// equal the number of listings currently carrying the tag.
type Tag struct {
	ID         string
	Name       string
	UsageCount int64
	CreatedAt  time.Time
}

// Favorite marks a listing as saved by a user. The (UserID, ListingID) pair
// is unique; the listing's FavoriteCount is the cardinality of this relation.
type Favorite struct {
	ID        string
	UserID    string
	ListingID string
	CreatedAt time.Time
}
