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

func newConversationFixture() (*ConversationUsecase, *MockConversationRepository, *MockMessageRepository, *MockListingRepository, *MockSink, *fakeCounterStore) {
	mockConvs := new(MockConversationRepository)
	mockMsgs := new(MockMessageRepository)
	mockListings := new(MockListingRepository)
	mockSink := new(MockSink)
	counters := newFakeCounterStore()
	ledger := NewAggregateLedger(counters, nil, nil, nil, nil, logger.NewNop())
	uc := NewConversationUsecase(mockConvs, mockMsgs, mockListings, ledger, mockSink, nil, logger.NewNop())
	return uc, mockConvs, mockMsgs, mockListings, mockSink, counters
}

func TestConversation_GetOrCreateConversation(t *testing.T) {
	ctx := context.Background()
	listing := &entity.Listing{ID: "l1", UserID: "seller1", Status: entity.StatusActive}

	t.Run("FirstContactCreatesAndCounts", func(t *testing.T) {
		uc, mockConvs, _, mockListings, _, counters := newConversationFixture()
		mockListings.On("GetByID", ctx, "l1").Return(listing, nil).Once()
		mockConvs.On("GetOrCreate", ctx, mock.AnythingOfType("*entity.Conversation")).
			Return(&entity.Conversation{ID: "c1", ListingID: "l1", BuyerID: "buyer1", SellerID: "seller1"}, true, nil).Once()

		conv, err := uc.GetOrCreateConversation(ctx, "l1", "buyer1", "seller1")

		assert.NoError(t, err)
		assert.Equal(t, "c1", conv.ID)
		assert.Equal(t, int64(1), counters.value(entity.ListingCounter("l1", entity.CounterContactCount)))
		mockConvs.AssertExpectations(t)
	})

	t.Run("RepeatContactReturnsExistingWithoutCounting", func(t *testing.T) {
		uc, mockConvs, _, mockListings, _, counters := newConversationFixture()
		mockListings.On("GetByID", ctx, "l1").Return(listing, nil).Once()
		mockConvs.On("GetOrCreate", ctx, mock.AnythingOfType("*entity.Conversation")).
			Return(&entity.Conversation{ID: "c1", ListingID: "l1", BuyerID: "buyer1", SellerID: "seller1"}, false, nil).Once()

		conv, err := uc.GetOrCreateConversation(ctx, "l1", "buyer1", "seller1")

		assert.NoError(t, err)
		assert.Equal(t, "c1", conv.ID)
		assert.Equal(t, int64(0), counters.value(entity.ListingCounter("l1", entity.CounterContactCount)))
	})

	t.Run("SellerCannotContactThemself", func(t *testing.T) {
		uc, _, _, _, _, _ := newConversationFixture()

		_, err := uc.GetOrCreateConversation(ctx, "l1", "seller1", "seller1")

		assert.ErrorIs(t, err, entity.ErrSelfContact)
	})

	t.Run("SellerMustOwnListing", func(t *testing.T) {
		uc, _, _, mockListings, _, _ := newConversationFixture()
		mockListings.On("GetByID", ctx, "l1").Return(listing, nil).Once()

		_, err := uc.GetOrCreateConversation(ctx, "l1", "buyer1", "impostor")

		assert.ErrorIs(t, err, entity.ErrValidation)
	})
}

func TestConversation_PostMessage(t *testing.T) {
	ctx := context.Background()
	conv := &entity.Conversation{ID: "c1", ListingID: "l1", BuyerID: "userA", SellerID: "userB", IsActive: true}

	t.Run("DeliversAndNotifiesOtherParticipant", func(t *testing.T) {
		uc, mockConvs, mockMsgs, _, mockSink, _ := newConversationFixture()
		mockConvs.On("GetByID", ctx, "c1").Return(conv, nil).Once()
		mockMsgs.On("Create", ctx, mock.AnythingOfType("*entity.Message")).Return(nil).Once()
		mockConvs.On("TouchLastMessage", ctx, "c1", mock.AnythingOfType("time.Time")).Return(nil).Once()
		mockSink.On("Notify", ctx, mock.MatchedBy(func(n *entity.Notification) bool {
			return n.UserID == "userB" && n.Type == entity.NotificationMessage
		})).Return(nil).Once()

		msg, err := uc.PostMessage(ctx, "c1", "userA", "Is this still available?")

		assert.NoError(t, err)
		assert.Equal(t, entity.MessageSent, msg.Status)
		assert.Equal(t, "userA", msg.SenderID)
		mockSink.AssertExpectations(t)
		mockMsgs.AssertExpectations(t)
	})

	t.Run("TooShortRejected", func(t *testing.T) {
		uc, _, _, _, _, _ := newConversationFixture()

		_, err := uc.PostMessage(ctx, "c1", "userA", "hi")

		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("StrangerRejected", func(t *testing.T) {
		uc, mockConvs, _, _, _, _ := newConversationFixture()
		mockConvs.On("GetByID", ctx, "c1").Return(conv, nil).Once()

		_, err := uc.PostMessage(ctx, "c1", "stranger", "Is this still available?")

		assert.ErrorIs(t, err, entity.ErrNotParticipant)
	})

	t.Run("UnknownConversation", func(t *testing.T) {
		uc, mockConvs, _, _, _, _ := newConversationFixture()
		mockConvs.On("GetByID", ctx, "ghost").Return(nil, repository.ErrNotFound).Once()

		_, err := uc.PostMessage(ctx, "ghost", "userA", "Is this still available?")

		assert.ErrorIs(t, err, entity.ErrNotFound)
	})
}

func TestConversation_ReadTracking(t *testing.T) {
	ctx := context.Background()
	conv := &entity.Conversation{ID: "c1", ListingID: "l1", BuyerID: "userA", SellerID: "userB", IsActive: true}

	t.Run("MarkReadOnlyTouchesOthersMessages", func(t *testing.T) {
		uc, mockConvs, mockMsgs, _, _, _ := newConversationFixture()
		mockConvs.On("GetByID", ctx, "c1").Return(conv, nil).Once()
		mockMsgs.On("MarkRead", ctx, "c1", "userB", mock.AnythingOfType("time.Time")).Return(int64(3), nil).Once()

		assert.NoError(t, uc.MarkRead(ctx, "c1", "userB"))
		mockMsgs.AssertExpectations(t)
	})

	t.Run("MarkReadIsIdempotent", func(t *testing.T) {
		uc, mockConvs, mockMsgs, _, _, _ := newConversationFixture()
		mockConvs.On("GetByID", ctx, "c1").Return(conv, nil).Twice()
		mockMsgs.On("MarkRead", ctx, "c1", "userB", mock.AnythingOfType("time.Time")).Return(int64(3), nil).Once()
		mockMsgs.On("MarkRead", ctx, "c1", "userB", mock.AnythingOfType("time.Time")).Return(int64(0), nil).Once()

		assert.NoError(t, uc.MarkRead(ctx, "c1", "userB"))
		assert.NoError(t, uc.MarkRead(ctx, "c1", "userB"))
	})

	t.Run("UnreadCountPerParticipant", func(t *testing.T) {
		uc, mockConvs, mockMsgs, _, _, _ := newConversationFixture()
		// A sent three messages, B sent one. B has read nothing, A has read
		// everything.
		mockConvs.On("GetByID", ctx, "c1").Return(conv, nil).Twice()
		mockMsgs.On("CountUnread", ctx, "c1", "userB").Return(int64(3), nil).Once()
		mockMsgs.On("CountUnread", ctx, "c1", "userA").Return(int64(0), nil).Once()

		forB, err := uc.UnreadCountFor(ctx, "c1", "userB")
		assert.NoError(t, err)
		assert.Equal(t, int64(3), forB)

		forA, err := uc.UnreadCountFor(ctx, "c1", "userA")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), forA)
	})

	t.Run("UnreadCountForStrangerRejected", func(t *testing.T) {
		uc, mockConvs, _, _, _, _ := newConversationFixture()
		mockConvs.On("GetByID", ctx, "c1").Return(conv, nil).Once()

		_, err := uc.UnreadCountFor(ctx, "c1", "stranger")

		assert.ErrorIs(t, err, entity.ErrNotParticipant)
	})
}
