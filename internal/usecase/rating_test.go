package usecase

import (
	"context"
	"testing"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRatingFixture() (*RatingUsecase, *MockRatingRepository) {
	mockRatings := new(MockRatingRepository)
	ledger := NewAggregateLedger(newFakeCounterStore(), mockRatings, nil, nil, nil, logger.NewNop())
	return NewRatingUsecase(mockRatings, ledger, logger.NewNop()), mockRatings
}

func TestRating_AddRating(t *testing.T) {
	ctx := context.Background()

	t.Run("StoresAndRecomputesAggregate", func(t *testing.T) {
		uc, mockRatings := newRatingFixture()
		mockRatings.On("Create", ctx, mock.AnythingOfType("*entity.UserRating")).Return(nil).Once()
		mockRatings.On("Aggregate", ctx, "seller1").Return(4.0, int64(2), nil).Once()
		mockRatings.On("SaveAggregate", ctx, mock.MatchedBy(func(agg *entity.UserRatingAggregate) bool {
			return agg.UserID == "seller1" && agg.RatingAverage == 4.0 && agg.RatingCount == 2
		})).Return(nil).Once()

		rating, err := uc.AddRating(ctx, &entity.UserRating{
			RaterID: "buyer1", RateeID: "seller1", ListingID: "l1", Score: 5,
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, rating.ID)
		mockRatings.AssertExpectations(t)
	})

	t.Run("ScoreOutOfRange", func(t *testing.T) {
		uc, mockRatings := newRatingFixture()

		for _, score := range []int32{0, 6, -1} {
			_, err := uc.AddRating(ctx, &entity.UserRating{RaterID: "buyer1", RateeID: "seller1", Score: score})
			assert.ErrorIs(t, err, entity.ErrValidation, "score %d", score)
		}
		mockRatings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("SelfRatingRejected", func(t *testing.T) {
		uc, _ := newRatingFixture()

		_, err := uc.AddRating(ctx, &entity.UserRating{RaterID: "seller1", RateeID: "seller1", Score: 5})

		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("DuplicateTripleRejected", func(t *testing.T) {
		uc, mockRatings := newRatingFixture()
		mockRatings.On("Create", ctx, mock.AnythingOfType("*entity.UserRating")).Return(entity.ErrAlreadyExists).Once()

		_, err := uc.AddRating(ctx, &entity.UserRating{RaterID: "buyer1", RateeID: "seller1", ListingID: "l1", Score: 4})

		assert.ErrorIs(t, err, entity.ErrAlreadyExists)
		mockRatings.AssertNotCalled(t, "Aggregate", mock.Anything, mock.Anything)
	})
}

func TestRating_RemoveRating(t *testing.T) {
	ctx := context.Background()
	stored := &entity.UserRating{ID: "r1", RaterID: "buyer1", RateeID: "seller1", Score: 5}

	t.Run("DeletesAndRecomputes", func(t *testing.T) {
		uc, mockRatings := newRatingFixture()
		mockRatings.On("GetByID", ctx, "r1").Return(stored, nil).Once()
		mockRatings.On("Delete", ctx, "r1").Return(nil).Once()
		mockRatings.On("Aggregate", ctx, "seller1").Return(3.0, int64(1), nil).Once()
		mockRatings.On("SaveAggregate", ctx, mock.AnythingOfType("*entity.UserRatingAggregate")).Return(nil).Once()

		assert.NoError(t, uc.RemoveRating(ctx, "r1", "buyer1"))
		mockRatings.AssertExpectations(t)
	})

	t.Run("OnlyOwnerMayRemove", func(t *testing.T) {
		uc, mockRatings := newRatingFixture()
		mockRatings.On("GetByID", ctx, "r1").Return(stored, nil).Once()

		err := uc.RemoveRating(ctx, "r1", "someone-else")

		assert.ErrorIs(t, err, entity.ErrValidation)
		mockRatings.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestRating_GetAggregate(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsStoredAggregate", func(t *testing.T) {
		uc, mockRatings := newRatingFixture()
		mockRatings.On("GetAggregate", ctx, "seller1").Return(&entity.UserRatingAggregate{
			UserID: "seller1", RatingAverage: 4.5, RatingCount: 4,
		}, nil).Once()

		agg, err := uc.GetAggregate(ctx, "seller1")

		assert.NoError(t, err)
		assert.Equal(t, 4.5, agg.RatingAverage)
	})

	t.Run("UnratedUserGetsZeroAggregate", func(t *testing.T) {
		uc, mockRatings := newRatingFixture()
		mockRatings.On("GetAggregate", ctx, "nobody").Return(nil, repository.ErrNotFound).Once()

		agg, err := uc.GetAggregate(ctx, "nobody")

		assert.NoError(t, err)
		assert.Equal(t, int64(0), agg.RatingCount)
		assert.Equal(t, 0.0, agg.RatingAverage)
	})
}
