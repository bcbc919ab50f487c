package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
)

// ErrNotFound is returned by repositories when the requested record does not
// exist. Usecases translate it into entity.ErrNotFound for callers.
var ErrNotFound = errors.New("record not found")

// Transactor runs fn inside one atomic unit: either every write made through
// the repositories within fn is visible, or none is. The mongodb adapter
// backs it with a session transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CounterStore applies signed deltas to named counters as store-level atomic
// increments. Two concurrent Increment calls on the same key must never lose
// an update.
type CounterStore interface {
	Increment(ctx context.Context, key entity.CounterKey, delta int64) error
	// Set overwrites the counter value. Only the drift-repair path uses it.
	Set(ctx context.Context, key entity.CounterKey, value int64) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	// ListChildren returns the direct children of parentID, ordered by
	// sort_order then name.
	ListChildren(ctx context.Context, parentID string) ([]*entity.Category, error)
	ListAll(ctx context.Context) ([]*entity.Category, error)
	// CountActiveListings recounts listings with status=active in the
	// category, scanning the facts. Drift repair only.
	CountActiveListings(ctx context.Context, categoryID string) (int64, error)
}

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	// UpdateStatusAndCategory persists a lifecycle transition guarded by the
	// expected current status; returns ErrNotFound when the guard misses so
	// racing transitions surface instead of double-applying.
	UpdateStatusAndCategory(ctx context.Context, id string, expectStatus entity.ListingStatus, newStatus entity.ListingStatus, newCategory string) error
	SetTags(ctx context.Context, id string, tags []string) error
	// ListActivatedSince returns active listings whose activated_at is after
	// since, oldest first. Alert sweeps page through it watermark by
	// watermark.
	ListActivatedSince(ctx context.Context, since time.Time, limit int64) ([]*entity.Listing, error)
	// ListExpired returns active listings whose expires_at is before now.
	ListExpired(ctx context.Context, now time.Time, limit int64) ([]*entity.Listing, error)
}

type TagRepository interface {
	// GetOrCreate returns the tag with the given name, creating it on first
	// use. Tags are shared resources, never owned by a listing.
	GetOrCreate(ctx context.Context, name string) (*entity.Tag, error)
	GetByName(ctx context.Context, name string) (*entity.Tag, error)
	// CountUsage recounts live listing membership for the tag. Drift repair
	// only.
	CountUsage(ctx context.Context, tagName string) (int64, error)
}

type FavoriteRepository interface {
	// Add inserts the favorite; ErrAlreadyExists when the (user, listing)
	// pair is already present.
	Add(ctx context.Context, favorite *entity.Favorite) error
	Remove(ctx context.Context, userID, listingID string) error
	Exists(ctx context.Context, userID, listingID string) (bool, error)
	CountByListing(ctx context.Context, listingID string) (int64, error)
}

type RatingRepository interface {
	Create(ctx context.Context, rating *entity.UserRating) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.UserRating, error)
	// Aggregate recomputes average and count over the live ratings of the
	// ratee (store-side aggregation, not incremental arithmetic).
	Aggregate(ctx context.Context, rateeID string) (avg float64, count int64, err error)
	SaveAggregate(ctx context.Context, agg *entity.UserRatingAggregate) error
	GetAggregate(ctx context.Context, userID string) (*entity.UserRatingAggregate, error)
}

type ConversationRepository interface {
	// GetOrCreate returns the active conversation for the triple, inserting
	// it when absent. created reports whether a new record was written.
	GetOrCreate(ctx context.Context, conv *entity.Conversation) (out *entity.Conversation, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	TouchLastMessage(ctx context.Context, id string, at time.Time) error
	ListForUser(ctx context.Context, userID string) ([]*entity.Conversation, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *entity.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error)
	// MarkRead sets read_at/status on every unread message of the
	// conversation not authored by readerID and returns how many changed.
	// Repeated calls are no-ops.
	MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, conversationID, participantID string) (int64, error)
}

type SavedSearchRepository interface {
	Create(ctx context.Context, search *entity.SavedSearch) error
	GetByID(ctx context.Context, id string) (*entity.SavedSearch, error)
	// ListActiveBefore returns active saved searches whose watermark precedes
	// createdBefore.
	ListActiveBefore(ctx context.Context, createdBefore time.Time) ([]*entity.SavedSearch, error)
	// AdvanceWatermark moves the watermark forward to at; it never moves it
	// back (store-level max semantics).
	AdvanceWatermark(ctx context.Context, id string, at time.Time) error
}

type NotificationRepository interface {
	// Record persists the notification. For alert matches it enforces the
	// unique (saved_search_id, listing_id) pair: inserted=false means the
	// pair was already seen, and out is the previously stored record so the
	// caller can resume an interrupted delivery.
	Record(ctx context.Context, n *entity.Notification) (out *entity.Notification, inserted bool, err error)
	// MarkEmailSent flips the record's email flag once the email sink has
	// accepted the alert.
	MarkEmailSent(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}
