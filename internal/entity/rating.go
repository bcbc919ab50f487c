package entity

import "time"

// UserRating is a single seller rating left after a transaction. One rating
// per (RaterID, RateeID, ListingID) triple.
type UserRating struct {
	ID        string
	RaterID   string
	RateeID   string
	ListingID string
	Score     int32
	Comment   string
	CreatedAt time.Time
}

const (
	MinRatingScore int32 = 1
	MaxRatingScore int32 = 5
)

// UserRatingAggregate is the denormalized rating summary stored per user.
// RatingAverage is always recomputed from the live rating set, never
// incrementally adjusted, so rounding error cannot compound.
type UserRatingAggregate struct {
	UserID        string
	RatingAverage float64
	RatingCount   int64
	UpdatedAt     time.Time
}
