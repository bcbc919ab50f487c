package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/notifier"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertMatcherUsecase evaluates saved searches against newly activated
// listings. Each search carries a watermark; the periodic sweep advances it
// only past listings whose matches were delivered, so a crashed sweep
// re-evaluates instead of skipping. The unique (saved_search, listing) pair
// in the notification store keeps re-evaluation from double-notifying.
type AlertMatcherUsecase struct {
	searches      repository.SavedSearchRepository
	listings      repository.ListingRepository
	notifications repository.NotificationRepository
	tree          *CategoryTreeUsecase
	broadcast     notifier.Sink
	email         notifier.Sink
	metrics       *metrics.MetricsManager
	logger        *logger.Logger
}

func NewAlertMatcherUsecase(
	searches repository.SavedSearchRepository,
	listings repository.ListingRepository,
	notifications repository.NotificationRepository,
	tree *CategoryTreeUsecase,
	broadcast notifier.Sink,
	email notifier.Sink,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *AlertMatcherUsecase {
	return &AlertMatcherUsecase{
		searches:      searches,
		listings:      listings,
		notifications: notifications,
		tree:          tree,
		broadcast:     broadcast,
		email:         email,
		metrics:       mm,
		logger:        log.Named("AlertMatcher"),
	}
}

// CreateSavedSearch validates and stores a new saved search. The watermark
// starts at creation time: pre-existing listings never trigger alerts.
func (uc *AlertMatcherUsecase) CreateSavedSearch(ctx context.Context, search *entity.SavedSearch) (*entity.SavedSearch, error) {
	if search.UserID == "" {
		return nil, fmt.Errorf("%w: saved search requires a user", entity.ErrValidation)
	}
	if search.PriceMin != nil && search.PriceMax != nil && *search.PriceMin > *search.PriceMax {
		return nil, fmt.Errorf("%w: price_min exceeds price_max", entity.ErrValidation)
	}
	if search.CategoryID != "" {
		if _, err := uc.tree.repo.GetByID(ctx, search.CategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: category %s", entity.ErrNotFound, search.CategoryID)
			}
			return nil, fmt.Errorf("AlertMatcher.CreateSavedSearch: %w", err)
		}
	}

	now := time.Now().UTC()
	search.ID = uuid.NewString()
	search.IsActive = true
	search.Watermark = now
	search.CreatedAt = now
	if err := uc.searches.Create(ctx, search); err != nil {
		return nil, fmt.Errorf("AlertMatcher.CreateSavedSearch: %w", err)
	}
	uc.logger.Info("Saved search created", zap.String("saved_search_id", search.ID), zap.String("user_id", search.UserID))
	return search, nil
}

// Evaluate reports whether the listing satisfies the search criteria. The
// category filter matches the whole subtree rooted at the search's category.
func (uc *AlertMatcherUsecase) Evaluate(ctx context.Context, search *entity.SavedSearch, listing *entity.Listing) (bool, error) {
	var descendants map[string]struct{}
	if search.CategoryID != "" {
		var err error
		descendants, err = uc.tree.ResolveDescendants(ctx, search.CategoryID)
		if err != nil {
			return false, fmt.Errorf("AlertMatcher.Evaluate: %w", err)
		}
	}
	return search.Matches(listing, descendants), nil
}

// SweepListing evaluates one freshly activated listing against every active
// saved search. It runs right after an activation transition commits;
// watermarks are left alone so the periodic sweep still covers the window,
// with the dedup pair absorbing the overlap.
func (uc *AlertMatcherUsecase) SweepListing(ctx context.Context, listingID string) error {
	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: listing %s", entity.ErrNotFound, listingID)
		}
		return fmt.Errorf("AlertMatcher.SweepListing: %w", err)
	}
	if !listing.IsActive() {
		return nil
	}

	searches, err := uc.searches.ListActiveBefore(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("AlertMatcher.SweepListing: %w", err)
	}

	var firstErr error
	for _, search := range searches {
		if search.UserID == listing.UserID {
			continue
		}
		matched, err := uc.Evaluate(ctx, search, listing)
		if err != nil {
			uc.recordSweepError("Evaluate failed during listing sweep", err, search.ID, listingID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !matched {
			continue
		}
		if err := uc.deliverMatch(ctx, search, listing); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RunSweep re-evaluates every active saved search against listings activated
// after its watermark, in pages of batchSize. A search's watermark advances
// to the activation time of the last listing whose matches were delivered;
// delivery failures stop the advance so the next sweep retries.
func (uc *AlertMatcherUsecase) RunSweep(ctx context.Context, now time.Time, batchSize int64) error {
	searches, err := uc.searches.ListActiveBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("AlertMatcher.RunSweep: %w", err)
	}

	var firstErr error
	for _, search := range searches {
		if err := uc.sweepSearch(ctx, search, batchSize); err != nil {
			uc.recordSweepError("Saved search sweep failed", err, search.ID, "")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (uc *AlertMatcherUsecase) sweepSearch(ctx context.Context, search *entity.SavedSearch, batchSize int64) error {
	var descendants map[string]struct{}
	if search.CategoryID != "" {
		var err error
		descendants, err = uc.tree.ResolveDescendants(ctx, search.CategoryID)
		if err != nil {
			return err
		}
	}

	since := search.Watermark
	for {
		batch, err := uc.listings.ListActivatedSince(ctx, since, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		pageStart := since
		for _, listing := range batch {
			if search.UserID != listing.UserID && search.Matches(listing, descendants) {
				if err := uc.deliverMatch(ctx, search, listing); err != nil {
					// Stop before advancing past the failed listing.
					if since.After(search.Watermark) {
						if werr := uc.searches.AdvanceWatermark(ctx, search.ID, since); werr != nil {
							uc.logger.Error("Failed to advance watermark", zap.Error(werr), zap.String("saved_search_id", search.ID))
						}
					}
					return err
				}
			}
			if listing.ActivatedAt != nil && listing.ActivatedAt.After(since) {
				since = *listing.ActivatedAt
			}
		}
		if int64(len(batch)) < batchSize {
			break
		}
		// A full page of identical activation timestamps cannot advance the
		// cursor; stop rather than refetch the same page forever.
		if !since.After(pageStart) {
			break
		}
	}

	if since.After(search.Watermark) {
		if err := uc.searches.AdvanceWatermark(ctx, search.ID, since); err != nil {
			return err
		}
	}
	return nil
}

// deliverMatch records the match and, when the record is new, pushes it to
// the delivery sinks. A dedup hit short-circuits the broadcast but still
// finishes an email delivery that failed after the pair was recorded; the
// stored email flag decides whether anything is owed.
func (uc *AlertMatcherUsecase) deliverMatch(ctx context.Context, search *entity.SavedSearch, listing *entity.Listing) error {
	n := &entity.Notification{
		ID:     uuid.NewString(),
		UserID: search.UserID,
		Type:   entity.NotificationAlertMatch,
		Title:  fmt.Sprintf("New listing matches %q", search.Name),
		Payload: map[string]string{
			"saved_search_id": search.ID,
			"search_name":     search.Name,
			"listing_id":      listing.ID,
			"listing_title":   listing.Title,
		},
		SavedSearchID: search.ID,
		ListingID:     listing.ID,
		CreatedAt:     time.Now().UTC(),
	}

	stored, inserted, err := uc.notifications.Record(ctx, n)
	if err != nil {
		uc.recordSweepError("Failed to record alert notification", err, search.ID, listing.ID)
		return err
	}

	if inserted {
		if uc.metrics != nil {
			uc.metrics.NotificationsTotal.WithLabelValues(string(entity.NotificationAlertMatch)).Inc()
		}
		if uc.broadcast != nil {
			if err := uc.broadcast.Notify(ctx, stored); err != nil {
				uc.logger.Warn("Failed to broadcast alert match",
					zap.Error(err),
					zap.String("saved_search_id", search.ID),
					zap.String("listing_id", listing.ID))
			}
		}
	}

	if search.EmailAlerts && uc.email != nil && !stored.EmailSent {
		if err := uc.email.Notify(ctx, stored); err != nil {
			uc.recordSweepError("Failed to email alert match", err, search.ID, listing.ID)
			return err
		}
		// A failure here re-sends on the next sweep. At-least-once is the
		// contract; the broadcast above stays deduplicated regardless.
		if err := uc.notifications.MarkEmailSent(ctx, stored.ID); err != nil {
			uc.logger.Warn("Failed to mark alert email as sent",
				zap.Error(err),
				zap.String("notification_id", stored.ID))
		}
	}

	if inserted {
		uc.logger.Info("Alert match delivered",
			zap.String("saved_search_id", search.ID),
			zap.String("listing_id", listing.ID),
			zap.String("user_id", search.UserID))
	}
	return nil
}

// HandleLifecycleEvent sweeps listings that just became visible to alerts.
func (uc *AlertMatcherUsecase) HandleLifecycleEvent(ctx context.Context, ev *entity.ListingLifecycleEvent) error {
	if ev.NewStatus != entity.StatusActive || ev.OldStatus == entity.StatusActive {
		return nil
	}
	return uc.SweepListing(ctx, ev.ListingID)
}

func (uc *AlertMatcherUsecase) recordSweepError(msg string, err error, searchID, listingID string) {
	if uc.metrics != nil {
		uc.metrics.AlertSweepErrorsTotal.Inc()
	}
	fields := []zap.Field{zap.Error(err), zap.String("saved_search_id", searchID)}
	if listingID != "" {
		fields = append(fields, zap.String("listing_id", listingID))
	}
	uc.logger.Error(msg, fields...)
}
