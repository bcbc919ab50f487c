package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RatingUsecase manages seller ratings. Every mutation ends with a full
// aggregate recompute through the ledger; the usecase never does running
// average arithmetic.
type RatingUsecase struct {
	ratings repository.RatingRepository
	ledger  *AggregateLedger
	logger  *logger.Logger
}

func NewRatingUsecase(ratings repository.RatingRepository, ledger *AggregateLedger, log *logger.Logger) *RatingUsecase {
	return &RatingUsecase{
		ratings: ratings,
		ledger:  ledger,
		logger:  log.Named("Rating"),
	}
}

// AddRating stores a rating and recomputes the ratee's aggregate. A second
// rating for the same (rater, ratee, listing) triple is rejected.
func (uc *RatingUsecase) AddRating(ctx context.Context, rating *entity.UserRating) (*entity.UserRating, error) {
	if rating.Score < entity.MinRatingScore || rating.Score > entity.MaxRatingScore {
		return nil, fmt.Errorf("%w: score must be between %d and %d", entity.ErrValidation, entity.MinRatingScore, entity.MaxRatingScore)
	}
	if rating.RaterID == rating.RateeID {
		return nil, fmt.Errorf("%w: cannot rate yourself", entity.ErrValidation)
	}

	rating.ID = uuid.NewString()
	rating.CreatedAt = time.Now().UTC()
	if err := uc.ratings.Create(ctx, rating); err != nil {
		if errors.Is(err, entity.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: rating for this listing already exists", entity.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("Rating.AddRating: %w", err)
	}

	if _, err := uc.ledger.RecomputeRatingAggregate(ctx, rating.RateeID); err != nil {
		return nil, err
	}
	uc.logger.Info("Rating added",
		zap.String("rating_id", rating.ID),
		zap.String("ratee_id", rating.RateeID),
		zap.Int32("score", rating.Score))
	return rating, nil
}

// RemoveRating deletes a rating owned by raterID and recomputes the ratee's
// aggregate from what remains.
func (uc *RatingUsecase) RemoveRating(ctx context.Context, ratingID, raterID string) error {
	rating, err := uc.ratings.GetByID(ctx, ratingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: rating %s", entity.ErrNotFound, ratingID)
		}
		return fmt.Errorf("Rating.RemoveRating: %w", err)
	}
	if rating.RaterID != raterID {
		return fmt.Errorf("%w: rating %s does not belong to user %s", entity.ErrValidation, ratingID, raterID)
	}

	if err := uc.ratings.Delete(ctx, ratingID); err != nil {
		return fmt.Errorf("Rating.RemoveRating: %w", err)
	}
	if _, err := uc.ledger.RecomputeRatingAggregate(ctx, rating.RateeID); err != nil {
		return err
	}
	uc.logger.Info("Rating removed", zap.String("rating_id", ratingID), zap.String("ratee_id", rating.RateeID))
	return nil
}

// GetAggregate returns the stored rating summary for a user. A user with no
// ratings yet gets a zero-valued aggregate, not an error.
func (uc *RatingUsecase) GetAggregate(ctx context.Context, userID string) (*entity.UserRatingAggregate, error) {
	agg, err := uc.ratings.GetAggregate(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &entity.UserRatingAggregate{UserID: userID}, nil
		}
		return nil, fmt.Errorf("Rating.GetAggregate: %w", err)
	}
	return agg, nil
}
