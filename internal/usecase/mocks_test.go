package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/stretchr/testify/mock"
)

type MockCategoryRepository struct{ mock.Mock }

func (m *MockCategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}
func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}
func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}
func (m *MockCategoryRepository) Update(ctx context.Context, category *entity.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}
func (m *MockCategoryRepository) ListChildren(ctx context.Context, parentID string) ([]*entity.Category, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Category), args.Error(1)
}
func (m *MockCategoryRepository) ListAll(ctx context.Context) ([]*entity.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Category), args.Error(1)
}
func (m *MockCategoryRepository) CountActiveListings(ctx context.Context, categoryID string) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}
func (m *MockListingRepository) UpdateStatusAndCategory(ctx context.Context, id string, expectStatus, newStatus entity.ListingStatus, newCategory string) error {
	args := m.Called(ctx, id, expectStatus, newStatus, newCategory)
	return args.Error(0)
}
func (m *MockListingRepository) SetTags(ctx context.Context, id string, tags []string) error {
	args := m.Called(ctx, id, tags)
	return args.Error(0)
}
func (m *MockListingRepository) ListActivatedSince(ctx context.Context, since time.Time, limit int64) ([]*entity.Listing, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Listing), args.Error(1)
}
func (m *MockListingRepository) ListExpired(ctx context.Context, now time.Time, limit int64) ([]*entity.Listing, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Listing), args.Error(1)
}

type MockTagRepository struct{ mock.Mock }

func (m *MockTagRepository) GetOrCreate(ctx context.Context, name string) (*entity.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Tag), args.Error(1)
}
func (m *MockTagRepository) GetByName(ctx context.Context, name string) (*entity.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Tag), args.Error(1)
}
func (m *MockTagRepository) CountUsage(ctx context.Context, tagName string) (int64, error) {
	args := m.Called(ctx, tagName)
	return args.Get(0).(int64), args.Error(1)
}

type MockFavoriteRepository struct{ mock.Mock }

func (m *MockFavoriteRepository) Add(ctx context.Context, favorite *entity.Favorite) error {
	args := m.Called(ctx, favorite)
	return args.Error(0)
}
func (m *MockFavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	args := m.Called(ctx, userID, listingID)
	return args.Error(0)
}
func (m *MockFavoriteRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	args := m.Called(ctx, userID, listingID)
	return args.Bool(0), args.Error(1)
}
func (m *MockFavoriteRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}

type MockRatingRepository struct{ mock.Mock }

func (m *MockRatingRepository) Create(ctx context.Context, rating *entity.UserRating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}
func (m *MockRatingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockRatingRepository) GetByID(ctx context.Context, id string) (*entity.UserRating, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserRating), args.Error(1)
}
func (m *MockRatingRepository) Aggregate(ctx context.Context, rateeID string) (float64, int64, error) {
	args := m.Called(ctx, rateeID)
	return args.Get(0).(float64), args.Get(1).(int64), args.Error(2)
}
func (m *MockRatingRepository) SaveAggregate(ctx context.Context, agg *entity.UserRatingAggregate) error {
	args := m.Called(ctx, agg)
	return args.Error(0)
}
func (m *MockRatingRepository) GetAggregate(ctx context.Context, userID string) (*entity.UserRatingAggregate, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserRatingAggregate), args.Error(1)
}

type MockConversationRepository struct{ mock.Mock }

func (m *MockConversationRepository) GetOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	args := m.Called(ctx, conv)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entity.Conversation), args.Bool(1), args.Error(2)
}
func (m *MockConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Conversation), args.Error(1)
}
func (m *MockConversationRepository) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
func (m *MockConversationRepository) ListForUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Conversation), args.Error(1)
}

type MockMessageRepository struct{ mock.Mock }

func (m *MockMessageRepository) Create(ctx context.Context, msg *entity.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
func (m *MockMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Message), args.Error(1)
}
func (m *MockMessageRepository) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	args := m.Called(ctx, conversationID, readerID, at)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockMessageRepository) CountUnread(ctx context.Context, conversationID, participantID string) (int64, error) {
	args := m.Called(ctx, conversationID, participantID)
	return args.Get(0).(int64), args.Error(1)
}

type MockSavedSearchRepository struct{ mock.Mock }

func (m *MockSavedSearchRepository) Create(ctx context.Context, search *entity.SavedSearch) error {
	args := m.Called(ctx, search)
	return args.Error(0)
}
func (m *MockSavedSearchRepository) GetByID(ctx context.Context, id string) (*entity.SavedSearch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SavedSearch), args.Error(1)
}
func (m *MockSavedSearchRepository) ListActiveBefore(ctx context.Context, createdBefore time.Time) ([]*entity.SavedSearch, error) {
	args := m.Called(ctx, createdBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.SavedSearch), args.Error(1)
}
func (m *MockSavedSearchRepository) AdvanceWatermark(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockNotificationRepository struct{ mock.Mock }

func (m *MockNotificationRepository) Record(ctx context.Context, n *entity.Notification) (*entity.Notification, bool, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		// Mirrors the adapter: a fresh insert hands back the input record.
		return n, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entity.Notification), args.Bool(1), args.Error(2)
}
func (m *MockNotificationRepository) MarkEmailSent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockNotificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*entity.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Notification), args.Error(1)
}
func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockSink struct{ mock.Mock }

func (m *MockSink) Notify(ctx context.Context, n *entity.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishLifecycleEvent(ctx context.Context, ev *entity.ListingLifecycleEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// fakeCounterStore accumulates deltas in memory so tests can assert final
// counter values instead of call sequences.
type fakeCounterStore struct {
	mu     sync.Mutex
	values map[entity.CounterKey]int64
	calls  int
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{values: make(map[entity.CounterKey]int64)}
}

func (f *fakeCounterStore) Increment(_ context.Context, key entity.CounterKey, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] += delta
	f.calls++
	return nil
}

func (f *fakeCounterStore) Set(_ context.Context, key entity.CounterKey, value int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	f.calls++
	return nil
}

func (f *fakeCounterStore) value(key entity.CounterKey) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key]
}

// fakeTransactor runs fn inline; transactional atomicity is the adapter's
// concern, not the usecases'.
type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
