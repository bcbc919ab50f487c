package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func strPtr(s string) *string { return &s }

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Electronics", "electronics"},
		{"Home & Garden", "home-garden"},
		{"  Véhicules  ", "v-hicules"},
		{"TVs, Audio & Video", "tvs-audio-video"},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, entity.Slugify(tt.in), "input %q", tt.in)
	}
}

func TestCategoryTree_CreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("RootAtDepthZero", func(t *testing.T) {
		mockRepo := new(MockCategoryRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), nil, logger.NewNop())
		mockRepo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(nil).Once()

		cat, err := uc.CreateCategory(ctx, CreateCategoryInput{Name: "Electronics", Kind: "goods"})

		assert.NoError(t, err)
		assert.Equal(t, 0, cat.Depth)
		assert.Equal(t, "electronics", cat.Slug)
		assert.True(t, cat.IsRoot())
		mockRepo.AssertExpectations(t)
	})

	t.Run("ChildInheritsParentDepth", func(t *testing.T) {
		mockRepo := new(MockCategoryRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), nil, logger.NewNop())
		mockRepo.On("GetByID", ctx, "root").Return(&entity.Category{ID: "root", Depth: 0}, nil).Once()
		mockRepo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(nil).Once()

		cat, err := uc.CreateCategory(ctx, CreateCategoryInput{Name: "Phones", ParentID: strPtr("root")})

		assert.NoError(t, err)
		assert.Equal(t, 1, cat.Depth)
	})

	t.Run("DepthBoundEnforced", func(t *testing.T) {
		mockRepo := new(MockCategoryRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), nil, logger.NewNop())
		mockRepo.On("GetByID", ctx, "deep").Return(&entity.Category{ID: "deep", Depth: entity.MaxCategoryDepth}, nil).Once()

		_, err := uc.CreateCategory(ctx, CreateCategoryInput{Name: "Too deep", ParentID: strPtr("deep")})

		assert.ErrorIs(t, err, entity.ErrValidation)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateSlugRejected", func(t *testing.T) {
		mockRepo := new(MockCategoryRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), nil, logger.NewNop())
		mockRepo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(entity.ErrAlreadyExists).Once()

		_, err := uc.CreateCategory(ctx, CreateCategoryInput{Name: "Electronics"})

		assert.ErrorIs(t, err, entity.ErrAlreadyExists)
	})
}

func TestCategoryTree_ResolveAncestors(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCategoryRepository)
	uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), nil, logger.NewNop())

	leaf := &entity.Category{ID: "phones", ParentID: strPtr("electronics"), Depth: 1}
	root := &entity.Category{ID: "electronics", Depth: 0}
	mockRepo.On("GetByID", ctx, "phones").Return(leaf, nil).Once()
	mockRepo.On("GetByID", ctx, "electronics").Return(root, nil).Once()

	chain, err := uc.ResolveAncestors(ctx, "phones")

	assert.NoError(t, err)
	if assert.Len(t, chain, 2) {
		assert.Equal(t, "electronics", chain[0].ID)
		assert.Equal(t, "phones", chain[1].ID)
	}
}

func TestCategoryTree_ResolveDescendants(t *testing.T) {
	ctx := context.Background()

	t.Run("WalksSubtreeAndCaches", func(t *testing.T) {
		mockRepo := new(MockCategoryRepository)
		mockCache := new(MockCacheRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), mockCache, logger.NewNop())

		mockCache.On("Get", ctx, descendantsCacheKey("electronics")).Return(nil, cache.ErrNotFound).Once()
		mockRepo.On("GetByID", ctx, "electronics").Return(&entity.Category{ID: "electronics"}, nil).Once()
		mockRepo.On("ListChildren", ctx, "electronics").Return([]*entity.Category{{ID: "phones"}, {ID: "laptops"}}, nil).Once()
		mockRepo.On("ListChildren", ctx, "phones").Return([]*entity.Category{}, nil).Once()
		mockRepo.On("ListChildren", ctx, "laptops").Return([]*entity.Category{}, nil).Once()
		mockCache.On("Set", ctx, descendantsCacheKey("electronics"), mock.Anything, descendantsCacheTTL).Return(nil).Once()

		set, err := uc.ResolveDescendants(ctx, "electronics")

		assert.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"electronics": {}, "phones": {}, "laptops": {}}, set)
		mockCache.AssertExpectations(t)
	})

	t.Run("ServedFromCache", func(t *testing.T) {
		mockRepo := new(MockCategoryRepository)
		mockCache := new(MockCacheRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), mockCache, logger.NewNop())

		payload, _ := json.Marshal([]string{"electronics", "phones"})
		mockCache.On("Get", ctx, descendantsCacheKey("electronics")).Return(payload, nil).Once()

		set, err := uc.ResolveDescendants(ctx, "electronics")

		assert.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"electronics": {}, "phones": {}}, set)
		mockRepo.AssertNotCalled(t, "ListChildren", mock.Anything, mock.Anything)
	})
}

func TestCategoryTree_Reparent(t *testing.T) {
	ctx := context.Background()

	t.Run("SelfParentRejected", func(t *testing.T) {
		mockRepo := new(MockCategoryRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), nil, logger.NewNop())
		mockRepo.On("GetByID", ctx, "a").Return(&entity.Category{ID: "a"}, nil).Once()

		err := uc.Reparent(ctx, "a", strPtr("a"))

		assert.ErrorIs(t, err, entity.ErrCycle)
	})

	t.Run("DescendantParentRejected", func(t *testing.T) {
		// a > b; moving a under b would close a cycle.
		mockRepo := new(MockCategoryRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), nil, logger.NewNop())
		a := &entity.Category{ID: "a", Depth: 0}
		b := &entity.Category{ID: "b", ParentID: strPtr("a"), Depth: 1}
		// "a" is read twice: the initial load and the ancestor-walk hop
		// from b back to its parent.
		mockRepo.On("GetByID", ctx, "a").Return(a, nil).Twice()
		mockRepo.On("GetByID", ctx, "b").Return(b, nil).Once()

		err := uc.Reparent(ctx, "a", strPtr("b"))

		assert.ErrorIs(t, err, entity.ErrCycle)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("MoveRecomputesSubtreeDepths", func(t *testing.T) {
		// electronics(0) and vehicles(0) are roots; phones(1) sits under
		// electronics with child cases(2). Move phones under vehicles.
		mockRepo := new(MockCategoryRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), nil, logger.NewNop())

		phones := &entity.Category{ID: "phones", ParentID: strPtr("electronics"), Depth: 1}
		vehicles := &entity.Category{ID: "vehicles", Depth: 0}
		cases := &entity.Category{ID: "cases", ParentID: strPtr("phones"), Depth: 2}

		mockRepo.On("GetByID", ctx, "phones").Return(phones, nil).Once()
		mockRepo.On("GetByID", ctx, "vehicles").Return(vehicles, nil).Once()
		mockRepo.On("ListChildren", ctx, "phones").Return([]*entity.Category{cases}, nil).Twice()
		mockRepo.On("ListChildren", ctx, "cases").Return([]*entity.Category{}, nil).Twice()
		mockRepo.On("Update", ctx, mock.MatchedBy(func(c *entity.Category) bool {
			return c.ID == "phones" && c.Depth == 1 && *c.ParentID == "vehicles"
		})).Return(nil).Once()
		mockRepo.On("Update", ctx, mock.MatchedBy(func(c *entity.Category) bool {
			return c.ID == "cases" && c.Depth == 2
		})).Return(nil).Once()

		err := uc.Reparent(ctx, "phones", strPtr("vehicles"))

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("DepthOverflowRejected", func(t *testing.T) {
		// Moving a two-level subtree under a parent at the depth bound.
		mockRepo := new(MockCategoryRepository)
		uc := NewCategoryTreeUsecase(mockRepo, newFakeCounterStore(), nil, logger.NewNop())

		node := &entity.Category{ID: "node", Depth: 0}
		deep := &entity.Category{ID: "deep", Depth: entity.MaxCategoryDepth}
		mockRepo.On("GetByID", ctx, "node").Return(node, nil).Once()
		mockRepo.On("GetByID", ctx, "deep").Return(deep, nil).Once()
		mockRepo.On("ListChildren", ctx, "node").Return([]*entity.Category{{ID: "leaf", ParentID: strPtr("node"), Depth: 1}}, nil).Maybe()

		err := uc.Reparent(ctx, "node", strPtr("deep"))

		assert.ErrorIs(t, err, entity.ErrValidation)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCategoryTree_RecomputeCount(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCategoryRepository)
	counters := newFakeCounterStore()
	uc := NewCategoryTreeUsecase(mockRepo, counters, nil, logger.NewNop())

	mockRepo.On("CountActiveListings", ctx, "electronics").Return(int64(42), nil).Once()

	count, err := uc.RecomputeCount(ctx, "electronics")

	assert.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.Equal(t, int64(42), counters.value(entity.CategoryListingCount("electronics")))
}
