package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"go.uber.org/zap"
)

// LifecycleSubscriber consumes the event emitted by a listing lifecycle
// transition. The ledger subscribes synchronously (inside the transition's
// transactional boundary); the alert matcher subscribes after commit.
type LifecycleSubscriber interface {
	HandleLifecycleEvent(ctx context.Context, ev *entity.ListingLifecycleEvent) error
}

// AggregateLedger funnels every mutation of a denormalized counter through
// one atomic-delta contract. It never decides the sign or magnitude of a
// delta itself beyond the lifecycle net-delta resolution; other callers
// (favorites, tags, views) compute their own deltas from the state change
// they performed.
type AggregateLedger struct {
	counters  repository.CounterStore
	ratings   repository.RatingRepository
	tags      repository.TagRepository
	favorites repository.FavoriteRepository
	metrics   *metrics.MetricsManager
	logger    *logger.Logger
}

func NewAggregateLedger(
	counters repository.CounterStore,
	ratings repository.RatingRepository,
	tags repository.TagRepository,
	favorites repository.FavoriteRepository,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *AggregateLedger {
	return &AggregateLedger{
		counters:  counters,
		ratings:   ratings,
		tags:      tags,
		favorites: favorites,
		metrics:   mm,
		logger:    log.Named("AggregateLedger"),
	}
}

// ApplyDelta applies one signed delta to the named counter as a store-level
// atomic increment. Zero deltas are dropped without touching the store.
func (uc *AggregateLedger) ApplyDelta(ctx context.Context, key entity.CounterKey, amount int64) error {
	if amount == 0 {
		return nil
	}
	if err := uc.counters.Increment(ctx, key, amount); err != nil {
		uc.logger.Error("Failed to apply counter delta",
			zap.Error(err),
			zap.String("owner", key.Owner),
			zap.String("id", key.ID),
			zap.String("field", string(key.Field)),
			zap.Int64("amount", amount))
		return fmt.Errorf("AggregateLedger.ApplyDelta: %w", err)
	}
	if uc.metrics != nil {
		uc.metrics.CounterDeltasTotal.WithLabelValues(key.Owner).Inc()
	}
	uc.logger.Debug("Counter delta applied",
		zap.String("owner", key.Owner),
		zap.String("id", key.ID),
		zap.String("field", string(key.Field)),
		zap.Int64("amount", amount))
	return nil
}

// resolveCategoryDeltas reduces a lifecycle transition to one net delta per
// affected category. A listing contributes +1 to its category while active
// and nothing otherwise; the delta is the after-contribution minus the
// before-contribution, summed per category id so opposite-signed pairs
// cancel instead of hitting the live counter twice.
func resolveCategoryDeltas(ev *entity.ListingLifecycleEvent) map[string]int64 {
	deltas := make(map[string]int64, 2)

	if ev.OldStatus == entity.StatusActive {
		deltas[ev.OldCategory]--
	}
	if ev.NewStatus == entity.StatusActive {
		deltas[ev.NewCategory]++
	}

	for id, d := range deltas {
		if d == 0 || id == "" {
			delete(deltas, id)
		}
	}
	return deltas
}

// HandleLifecycleEvent applies the net category listing-count deltas for one
// transition. Deletion decrements only when the listing's last known status
// was active, which falls out of the status clause (deleted is never active).
func (uc *AggregateLedger) HandleLifecycleEvent(ctx context.Context, ev *entity.ListingLifecycleEvent) error {
	for categoryID, delta := range resolveCategoryDeltas(ev) {
		if err := uc.ApplyDelta(ctx, entity.CategoryListingCount(categoryID), delta); err != nil {
			return fmt.Errorf("AggregateLedger.HandleLifecycleEvent: listing %s: %w", ev.ListingID, err)
		}
	}
	return nil
}

// RecomputeRatingAggregate rebuilds a user's rating aggregate from the full
// live rating set. No incremental running-average arithmetic: the store-side
// aggregation is the single source of truth, so rounding error cannot
// compound across updates.
func (uc *AggregateLedger) RecomputeRatingAggregate(ctx context.Context, rateeID string) (*entity.UserRatingAggregate, error) {
	avg, count, err := uc.ratings.Aggregate(ctx, rateeID)
	if err != nil {
		return nil, fmt.Errorf("AggregateLedger.RecomputeRatingAggregate: %w", err)
	}
	agg := &entity.UserRatingAggregate{
		UserID:        rateeID,
		RatingAverage: avg,
		RatingCount:   count,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := uc.ratings.SaveAggregate(ctx, agg); err != nil {
		return nil, fmt.Errorf("AggregateLedger.RecomputeRatingAggregate: failed to save: %w", err)
	}
	uc.logger.Debug("Rating aggregate recomputed",
		zap.String("user_id", rateeID),
		zap.Float64("average", avg),
		zap.Int64("count", count))
	return agg, nil
}

// RecomputeTagUsage recounts live tag membership and overwrites the stored
// usage counter. Drift repair only.
func (uc *AggregateLedger) RecomputeTagUsage(ctx context.Context, tagName string) (int64, error) {
	tag, err := uc.tags.GetByName(ctx, tagName)
	if err != nil {
		return 0, fmt.Errorf("AggregateLedger.RecomputeTagUsage: %w", err)
	}
	count, err := uc.tags.CountUsage(ctx, tagName)
	if err != nil {
		return 0, fmt.Errorf("AggregateLedger.RecomputeTagUsage: %w", err)
	}
	if err := uc.counters.Set(ctx, entity.TagUsageCount(tag.ID), count); err != nil {
		return 0, fmt.Errorf("AggregateLedger.RecomputeTagUsage: failed to store count: %w", err)
	}
	uc.logger.Info("Tag usage recomputed", zap.String("tag", tagName), zap.Int64("count", count))
	return count, nil
}

// RecomputeFavoriteCount recounts the favorite relation for the listing and
// overwrites the stored counter. Drift repair only.
func (uc *AggregateLedger) RecomputeFavoriteCount(ctx context.Context, listingID string) (int64, error) {
	count, err := uc.favorites.CountByListing(ctx, listingID)
	if err != nil {
		return 0, fmt.Errorf("AggregateLedger.RecomputeFavoriteCount: %w", err)
	}
	key := entity.ListingCounter(listingID, entity.CounterFavoriteCount)
	if err := uc.counters.Set(ctx, key, count); err != nil {
		return 0, fmt.Errorf("AggregateLedger.RecomputeFavoriteCount: failed to store count: %w", err)
	}
	uc.logger.Info("Favorite count recomputed", zap.String("listing_id", listingID), zap.Int64("count", count))
	return count, nil
}
