package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/notifier"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EngagementUsecase handles the per-listing engagement signals: views,
// favorites and tag membership. Every counter it touches flows through the
// aggregate ledger; the entity fields are never written directly.
type EngagementUsecase struct {
	listings  repository.ListingRepository
	favorites repository.FavoriteRepository
	tags      repository.TagRepository
	ledger    *AggregateLedger
	sink      notifier.Sink
	logger    *logger.Logger

	// favLocks keys on user:listing, tagLocks on the listing id.
	favLocks keyedMutex
	tagLocks keyedMutex
}

func NewEngagementUsecase(
	listings repository.ListingRepository,
	favorites repository.FavoriteRepository,
	tags repository.TagRepository,
	ledger *AggregateLedger,
	sink notifier.Sink,
	log *logger.Logger,
) *EngagementUsecase {
	return &EngagementUsecase{
		listings:  listings,
		favorites: favorites,
		tags:      tags,
		ledger:    ledger,
		sink:      sink,
		logger:    log.Named("Engagement"),
	}
}

// RecordView bumps the listing's view counter. Views by the owner and views
// of non-active listings are not counted.
func (uc *EngagementUsecase) RecordView(ctx context.Context, listingID, viewerID string) error {
	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: listing %s", entity.ErrNotFound, listingID)
		}
		return fmt.Errorf("Engagement.RecordView: %w", err)
	}
	if !listing.IsActive() || listing.UserID == viewerID {
		return nil
	}
	return uc.ledger.ApplyDelta(ctx, entity.ListingCounter(listingID, entity.CounterViewCount), 1)
}

// Favorite adds the (user, listing) favorite. Idempotent: refavoriting an
// already-favorited listing changes nothing and the counter moves only when
// a record is actually inserted. The seller is notified on first favorite.
func (uc *EngagementUsecase) Favorite(ctx context.Context, userID, listingID string) error {
	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: listing %s", entity.ErrNotFound, listingID)
		}
		return fmt.Errorf("Engagement.Favorite: %w", err)
	}
	if listing.UserID == userID {
		return fmt.Errorf("%w: cannot favorite own listing", entity.ErrValidation)
	}

	unlock := uc.favLocks.Lock(userID + ":" + listingID)
	defer unlock()

	fav := &entity.Favorite{
		ID:        uuid.NewString(),
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.favorites.Add(ctx, fav); err != nil {
		if errors.Is(err, entity.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("Engagement.Favorite: %w", err)
	}

	if err := uc.ledger.ApplyDelta(ctx, entity.ListingCounter(listingID, entity.CounterFavoriteCount), 1); err != nil {
		return err
	}

	if uc.sink != nil {
		n := &entity.Notification{
			ID:     uuid.NewString(),
			UserID: listing.UserID,
			Type:   entity.NotificationFavorite,
			Title:  "Your listing was favorited",
			Payload: map[string]string{
				"listing_id":    listingID,
				"listing_title": listing.Title,
			},
			ListingID: listingID,
			CreatedAt: time.Now().UTC(),
		}
		if err := uc.sink.Notify(ctx, n); err != nil {
			uc.logger.Warn("Failed to notify seller of favorite", zap.Error(err), zap.String("listing_id", listingID))
		}
	}

	uc.logger.Debug("Listing favorited", zap.String("listing_id", listingID), zap.String("user_id", userID))
	return nil
}

// Unfavorite removes the favorite if present. Removing a favorite that does
// not exist is a no-op and never decrements the counter.
func (uc *EngagementUsecase) Unfavorite(ctx context.Context, userID, listingID string) error {
	unlock := uc.favLocks.Lock(userID + ":" + listingID)
	defer unlock()

	exists, err := uc.favorites.Exists(ctx, userID, listingID)
	if err != nil {
		return fmt.Errorf("Engagement.Unfavorite: %w", err)
	}
	if !exists {
		return nil
	}
	if err := uc.favorites.Remove(ctx, userID, listingID); err != nil {
		return fmt.Errorf("Engagement.Unfavorite: %w", err)
	}
	return uc.ledger.ApplyDelta(ctx, entity.ListingCounter(listingID, entity.CounterFavoriteCount), -1)
}

// IsFavorited reports whether the user has favorited the listing.
func (uc *EngagementUsecase) IsFavorited(ctx context.Context, userID, listingID string) (bool, error) {
	return uc.favorites.Exists(ctx, userID, listingID)
}

// AddTag attaches the named tag to the listing. Tags are shared resources
// created on first use; the tag's usage counter moves by exactly one when
// the listing did not already carry it.
func (uc *EngagementUsecase) AddTag(ctx context.Context, listingID, tagName string) error {
	name := normalizeTag(tagName)
	if name == "" {
		return fmt.Errorf("%w: empty tag name", entity.ErrValidation)
	}

	unlock := uc.tagLocks.Lock(listingID)
	defer unlock()

	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: listing %s", entity.ErrNotFound, listingID)
		}
		return fmt.Errorf("Engagement.AddTag: %w", err)
	}
	if listing.HasTag(name) {
		return nil
	}

	tag, err := uc.tags.GetOrCreate(ctx, name)
	if err != nil {
		return fmt.Errorf("Engagement.AddTag: %w", err)
	}
	if err := uc.listings.SetTags(ctx, listingID, append(listing.Tags, name)); err != nil {
		return fmt.Errorf("Engagement.AddTag: %w", err)
	}
	return uc.ledger.ApplyDelta(ctx, entity.TagUsageCount(tag.ID), 1)
}

// RemoveTag detaches the named tag from the listing; a no-op when the
// listing does not carry it.
func (uc *EngagementUsecase) RemoveTag(ctx context.Context, listingID, tagName string) error {
	name := normalizeTag(tagName)

	unlock := uc.tagLocks.Lock(listingID)
	defer unlock()

	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: listing %s", entity.ErrNotFound, listingID)
		}
		return fmt.Errorf("Engagement.RemoveTag: %w", err)
	}
	if !listing.HasTag(name) {
		return nil
	}

	kept := make([]string, 0, len(listing.Tags))
	for _, t := range listing.Tags {
		if t != name {
			kept = append(kept, t)
		}
	}
	if err := uc.listings.SetTags(ctx, listingID, kept); err != nil {
		return fmt.Errorf("Engagement.RemoveTag: %w", err)
	}

	tag, err := uc.tags.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("Engagement.RemoveTag: %w", err)
	}
	return uc.ledger.ApplyDelta(ctx, entity.TagUsageCount(tag.ID), -1)
}

// ClearTags detaches every tag from the listing, decrementing each tag's
// usage counter by one. Used when a listing leaves circulation.
func (uc *EngagementUsecase) ClearTags(ctx context.Context, listingID string) error {
	unlock := uc.tagLocks.Lock(listingID)
	defer unlock()

	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: listing %s", entity.ErrNotFound, listingID)
		}
		return fmt.Errorf("Engagement.ClearTags: %w", err)
	}
	if len(listing.Tags) == 0 {
		return nil
	}

	if err := uc.listings.SetTags(ctx, listingID, nil); err != nil {
		return fmt.Errorf("Engagement.ClearTags: %w", err)
	}
	for _, name := range listing.Tags {
		tag, err := uc.tags.GetByName(ctx, name)
		if err != nil {
			uc.logger.Error("Failed to resolve tag during clear", zap.Error(err), zap.String("tag", name))
			continue
		}
		if err := uc.ledger.ApplyDelta(ctx, entity.TagUsageCount(tag.ID), -1); err != nil {
			return err
		}
	}
	return nil
}

func normalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
