package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher pushes lifecycle events onto the message bus. Publishing is
// best-effort: a bus failure never rolls back an applied transition.
type EventPublisher interface {
	PublishLifecycleEvent(ctx context.Context, ev *entity.ListingLifecycleEvent) error
}

// transitionSources lists the statuses each action may fire from. Deleted is
// terminal and appears as a source nowhere.
var transitionSources = map[entity.LifecycleAction][]entity.ListingStatus{
	entity.ActionPublish:    {entity.StatusDraft},
	entity.ActionSuspend:    {entity.StatusActive},
	entity.ActionReinstate:  {entity.StatusSuspended, entity.StatusExpired},
	entity.ActionExpire:     {entity.StatusActive},
	entity.ActionMarkSold:   {entity.StatusActive},
	entity.ActionSoftDelete: {entity.StatusDraft, entity.StatusActive, entity.StatusSuspended, entity.StatusExpired, entity.StatusSold},
	entity.ActionMoveCategory: {
		entity.StatusDraft, entity.StatusActive, entity.StatusSuspended, entity.StatusExpired, entity.StatusSold,
	},
}

var transitionTargets = map[entity.LifecycleAction]entity.ListingStatus{
	entity.ActionPublish:    entity.StatusActive,
	entity.ActionSuspend:    entity.StatusSuspended,
	entity.ActionReinstate:  entity.StatusActive,
	entity.ActionExpire:     entity.StatusExpired,
	entity.ActionMarkSold:   entity.StatusSold,
	entity.ActionSoftDelete: entity.StatusDeleted,
}

// TransitionParams carries per-action arguments. Only change_category uses
// it today.
type TransitionParams struct {
	NewCategoryID string
}

// ListingLifecycleUsecase owns the listing status state machine. Each applied
// transition emits exactly one ListingLifecycleEvent; the ledger consumes it
// inside the same transactional boundary as the status write, so no partial
// state (status changed, counters not) is ever observable. The state machine
// is clock-agnostic: expiry is triggered by an external scheduler calling
// ExpireDue with its own notion of now.
type ListingLifecycleUsecase struct {
	listings   repository.ListingRepository
	categories repository.CategoryRepository
	tx         repository.Transactor
	ledger     *AggregateLedger
	async      []LifecycleSubscriber
	publisher  EventPublisher
	metrics    *metrics.MetricsManager
	logger     *logger.Logger

	// locks serializes transitions per listing id; transitions on different
	// listings proceed in parallel.
	locks keyedMutex
}

func NewListingLifecycleUsecase(
	listings repository.ListingRepository,
	categories repository.CategoryRepository,
	tx repository.Transactor,
	ledger *AggregateLedger,
	publisher EventPublisher,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *ListingLifecycleUsecase {
	return &ListingLifecycleUsecase{
		listings:   listings,
		categories: categories,
		tx:         tx,
		ledger:     ledger,
		publisher:  publisher,
		metrics:    mm,
		logger:     log.Named("ListingLifecycle"),
	}
}

// Subscribe registers a post-commit subscriber (the alert matcher). Must be
// called during wiring, before transitions start flowing.
func (uc *ListingLifecycleUsecase) Subscribe(sub LifecycleSubscriber) {
	uc.async = append(uc.async, sub)
}

type CreateListingInput struct {
	UserID      string
	CategoryID  string
	Title       string
	Description string
	Price       *entity.Price
	City        string
	PostalCode  string
	ExpiresAt   *time.Time
}

// CreateListing inserts a new listing in draft. Drafts carry no aggregate
// weight, so no counter delta fires here.
func (uc *ListingLifecycleUsecase) CreateListing(ctx context.Context, input CreateListingInput) (*entity.Listing, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", entity.ErrValidation)
	}
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: owner cannot be empty", entity.ErrValidation)
	}
	if _, err := uc.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: category %s", entity.ErrNotFound, input.CategoryID)
		}
		return nil, fmt.Errorf("ListingLifecycle.CreateListing: %w", err)
	}

	now := time.Now().UTC()
	listing := &entity.Listing{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		CategoryID:  input.CategoryID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Status:      entity.StatusDraft,
		City:        input.City,
		PostalCode:  input.PostalCode,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   input.ExpiresAt,
	}
	if err := uc.listings.Create(ctx, listing); err != nil {
		uc.logger.Error("Failed to create listing", zap.Error(err), zap.String("user_id", input.UserID))
		return nil, fmt.Errorf("ListingLifecycle.CreateListing: %w", err)
	}
	uc.logger.Info("Listing created", zap.String("listing_id", listing.ID), zap.String("category_id", listing.CategoryID))
	return listing, nil
}

// Transition applies one lifecycle action to the listing. Invalid edges fail
// with entity.ErrInvalidTransition and perform no side effects. The status
// write and the ledger deltas commit as one unit; the event reaches async
// subscribers and the bus only after commit.
func (uc *ListingLifecycleUsecase) Transition(ctx context.Context, listingID string, action entity.LifecycleAction, params TransitionParams) (*entity.Listing, error) {
	unlock := uc.locks.Lock(listingID)
	defer unlock()

	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: listing %s", entity.ErrNotFound, listingID)
		}
		return nil, fmt.Errorf("ListingLifecycle.Transition: %w", err)
	}

	ev, err := uc.buildEvent(ctx, listing, action, params)
	if err != nil {
		if uc.metrics != nil && errors.Is(err, entity.ErrInvalidTransition) {
			uc.metrics.TransitionsRejectedTotal.Inc()
		}
		return nil, err
	}

	err = uc.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.listings.UpdateStatusAndCategory(txCtx, listing.ID, ev.OldStatus, ev.NewStatus, ev.NewCategory); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// The guard missed: a racing transition got there first.
				return fmt.Errorf("%w: listing %s changed concurrently", entity.ErrConcurrencyConflict, listing.ID)
			}
			return err
		}
		return uc.ledger.HandleLifecycleEvent(txCtx, ev)
	})
	if err != nil {
		uc.logger.Error("Lifecycle transition failed",
			zap.Error(err),
			zap.String("listing_id", listingID),
			zap.String("action", string(action)))
		return nil, fmt.Errorf("ListingLifecycle.Transition: %w", err)
	}

	listing.Status = ev.NewStatus
	listing.CategoryID = ev.NewCategory
	listing.UpdatedAt = ev.OccurredAt

	if uc.metrics != nil {
		uc.metrics.TransitionsTotal.WithLabelValues(string(action)).Inc()
	}
	uc.logger.Info("Lifecycle transition applied",
		zap.String("listing_id", listingID),
		zap.String("action", string(action)),
		zap.String("old_status", string(ev.OldStatus)),
		zap.String("new_status", string(ev.NewStatus)))

	for _, sub := range uc.async {
		if subErr := sub.HandleLifecycleEvent(ctx, ev); subErr != nil {
			// Post-commit subscribers are retried by their own schedulers;
			// the transition itself already committed.
			uc.logger.Warn("Post-commit subscriber failed", zap.Error(subErr), zap.String("listing_id", listingID))
		}
	}
	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishLifecycleEvent(ctx, ev); pubErr != nil {
			uc.logger.Warn("Failed to publish lifecycle event", zap.Error(pubErr), zap.String("listing_id", listingID))
		}
	}
	return listing, nil
}

// buildEvent validates the edge and guards, returning the event to apply.
func (uc *ListingLifecycleUsecase) buildEvent(ctx context.Context, listing *entity.Listing, action entity.LifecycleAction, params TransitionParams) (*entity.ListingLifecycleEvent, error) {
	sources, known := transitionSources[action]
	if !known {
		return nil, fmt.Errorf("%w: unknown action %q", entity.ErrValidation, action)
	}
	allowed := false
	for _, s := range sources {
		if listing.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s from status %s", entity.ErrInvalidTransition, action, listing.Status)
	}

	newStatus := listing.Status
	newCategory := listing.CategoryID

	switch action {
	case entity.ActionPublish:
		if listing.CategoryID == "" {
			return nil, fmt.Errorf("%w: listing has no category", entity.ErrValidation)
		}
		if _, err := uc.categories.GetByID(ctx, listing.CategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: category %s", entity.ErrNotFound, listing.CategoryID)
			}
			return nil, fmt.Errorf("ListingLifecycle.Transition: %w", err)
		}
		if listing.Price != nil && listing.Price.Amount < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", entity.ErrValidation)
		}
		newStatus = transitionTargets[action]
	case entity.ActionMoveCategory:
		if params.NewCategoryID == "" {
			return nil, fmt.Errorf("%w: target category required", entity.ErrValidation)
		}
		if _, err := uc.categories.GetByID(ctx, params.NewCategoryID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: category %s", entity.ErrNotFound, params.NewCategoryID)
			}
			return nil, fmt.Errorf("ListingLifecycle.Transition: %w", err)
		}
		newCategory = params.NewCategoryID
	default:
		newStatus = transitionTargets[action]
	}

	return &entity.ListingLifecycleEvent{
		ListingID:   listing.ID,
		Action:      action,
		OldStatus:   listing.Status,
		NewStatus:   newStatus,
		OldCategory: listing.CategoryID,
		NewCategory: newCategory,
		OccurredAt:  time.Now().UTC(),
	}, nil
}

// ExpireDue applies the expire transition to active listings whose deadline
// passed. The scheduler owns the clock and passes now in. Individual
// failures are logged and left for the next sweep.
func (uc *ListingLifecycleUsecase) ExpireDue(ctx context.Context, now time.Time, limit int64) (int, error) {
	due, err := uc.listings.ListExpired(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("ListingLifecycle.ExpireDue: %w", err)
	}
	expired := 0
	for _, l := range due {
		if _, err := uc.Transition(ctx, l.ID, entity.ActionExpire, TransitionParams{}); err != nil {
			// A racing transition (sold, deleted) is fine; anything else
			// will be retried next sweep.
			if !errors.Is(err, entity.ErrInvalidTransition) && !errors.Is(err, entity.ErrConcurrencyConflict) {
				uc.logger.Warn("Failed to expire listing", zap.Error(err), zap.String("listing_id", l.ID))
			}
			continue
		}
		expired++
	}
	if expired > 0 {
		uc.logger.Info("Expiry sweep applied", zap.Int("expired", expired))
	}
	return expired, nil
}
