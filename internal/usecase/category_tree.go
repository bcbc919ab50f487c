package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/cache"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func descendantsCacheKey(categoryID string) string {
	return fmt.Sprintf("category:descendants:%s", categoryID)
}

const descendantsCacheTTL = time.Hour

// CategoryTreeUsecase maintains the category hierarchy: breadcrumbs,
// descendant sets and structural changes. Descendant sets are cached because
// the lifecycle and the alert matcher read them on every listing mutation;
// the cache is invalidated precisely on structural change, not on a timer
// (the TTL is only a safety net).
type CategoryTreeUsecase struct {
	repo     repository.CategoryRepository
	counters repository.CounterStore
	cache    cache.CacheRepository
	logger   *logger.Logger

	// structMu serializes structural changes so concurrent readers see either
	// the pre- or post-reparent topology, never a torn view.
	structMu sync.Mutex
}

func NewCategoryTreeUsecase(
	repo repository.CategoryRepository,
	counters repository.CounterStore,
	cacheRepo cache.CacheRepository,
	log *logger.Logger,
) *CategoryTreeUsecase {
	return &CategoryTreeUsecase{
		repo:     repo,
		counters: counters,
		cache:    cacheRepo,
		logger:   log.Named("CategoryTree"),
	}
}

type CreateCategoryInput struct {
	Name      string
	Kind      string
	ParentID  *string
	SortOrder int
}

// CreateCategory inserts a category under the given parent. The slug is
// derived from the name; depth is parent.depth+1 and bounded by
// entity.MaxCategoryDepth.
func (uc *CategoryTreeUsecase) CreateCategory(ctx context.Context, input CreateCategoryInput) (*entity.Category, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: category name cannot be empty", entity.ErrValidation)
	}

	uc.structMu.Lock()
	defer uc.structMu.Unlock()

	depth := 0
	if input.ParentID != nil && *input.ParentID != "" {
		parent, err := uc.repo.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent category %s", entity.ErrNotFound, *input.ParentID)
			}
			return nil, fmt.Errorf("CategoryTree.CreateCategory: failed to load parent: %w", err)
		}
		depth = parent.Depth + 1
		if depth > entity.MaxCategoryDepth {
			return nil, fmt.Errorf("%w: category depth %d exceeds maximum %d", entity.ErrValidation, depth, entity.MaxCategoryDepth)
		}
	}

	now := time.Now().UTC()
	category := &entity.Category{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Slug:      entity.Slugify(input.Name),
		Kind:      input.Kind,
		ParentID:  input.ParentID,
		Depth:     depth,
		IsActive:  true,
		SortOrder: input.SortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Create(ctx, category); err != nil {
		if errors.Is(err, entity.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: slug %q", entity.ErrAlreadyExists, category.Slug)
		}
		uc.logger.Error("Failed to create category", zap.Error(err), zap.String("name", input.Name))
		return nil, fmt.Errorf("CategoryTree.CreateCategory: %w", err)
	}

	uc.invalidateAncestorSets(ctx, category.ID)
	uc.logger.Info("Category created", zap.String("category_id", category.ID), zap.String("slug", category.Slug), zap.Int("depth", depth))
	return category, nil
}

// ResolveAncestors returns the breadcrumb for the category, ordered from the
// root down to the node itself. O(depth) repository reads.
func (uc *CategoryTreeUsecase) ResolveAncestors(ctx context.Context, categoryID string) ([]*entity.Category, error) {
	var chain []*entity.Category
	id := categoryID
	for i := 0; i <= entity.MaxCategoryDepth; i++ {
		cat, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: category %s", entity.ErrNotFound, id)
			}
			return nil, fmt.Errorf("CategoryTree.ResolveAncestors: %w", err)
		}
		chain = append(chain, cat)
		if cat.IsRoot() {
			break
		}
		id = *cat.ParentID
	}
	// Reverse into root-first order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// ResolveDescendants returns the ids of the category's subtree including the
// category itself. The set is served from cache when present.
func (uc *CategoryTreeUsecase) ResolveDescendants(ctx context.Context, categoryID string) (map[string]struct{}, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, descendantsCacheKey(categoryID)); err == nil {
			var ids []string
			if unmarshalErr := json.Unmarshal(cached, &ids); unmarshalErr == nil {
				set := make(map[string]struct{}, len(ids))
				for _, id := range ids {
					set[id] = struct{}{}
				}
				return set, nil
			}
			// Corrupted entry: drop it and fall through to the repository.
			if delErr := uc.cache.Delete(ctx, descendantsCacheKey(categoryID)); delErr != nil {
				uc.logger.Warn("Failed to delete corrupted descendant set from cache", zap.Error(delErr), zap.String("category_id", categoryID))
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			uc.logger.Warn("Cache read for descendant set failed", zap.Error(err), zap.String("category_id", categoryID))
		}
	}

	if _, err := uc.repo.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: category %s", entity.ErrNotFound, categoryID)
		}
		return nil, fmt.Errorf("CategoryTree.ResolveDescendants: %w", err)
	}

	set := map[string]struct{}{categoryID: {}}
	frontier := []string{categoryID}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		children, err := uc.repo.ListChildren(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("CategoryTree.ResolveDescendants: failed to list children of %s: %w", next, err)
		}
		for _, child := range children {
			if _, seen := set[child.ID]; seen {
				continue
			}
			set[child.ID] = struct{}{}
			frontier = append(frontier, child.ID)
		}
	}

	if uc.cache != nil {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		if payload, err := json.Marshal(ids); err == nil {
			if setErr := uc.cache.Set(ctx, descendantsCacheKey(categoryID), payload, descendantsCacheTTL); setErr != nil {
				uc.logger.Warn("Failed to cache descendant set", zap.Error(setErr), zap.String("category_id", categoryID))
			}
		}
	}
	return set, nil
}

// Reparent moves a category under a new parent. It fails with
// entity.ErrCycle when the new parent lies inside the moved subtree, and
// recomputes depth for the whole moved subtree on success.
func (uc *CategoryTreeUsecase) Reparent(ctx context.Context, categoryID string, newParentID *string) error {
	uc.structMu.Lock()
	defer uc.structMu.Unlock()

	category, err := uc.repo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: category %s", entity.ErrNotFound, categoryID)
		}
		return fmt.Errorf("CategoryTree.Reparent: %w", err)
	}

	oldParentID := category.ParentID
	newDepth := 0
	if newParentID != nil && *newParentID != "" {
		if *newParentID == categoryID {
			return fmt.Errorf("%w: category %s cannot be its own parent", entity.ErrCycle, categoryID)
		}
		newParent, err := uc.repo.GetByID(ctx, *newParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: new parent %s", entity.ErrNotFound, *newParentID)
			}
			return fmt.Errorf("CategoryTree.Reparent: %w", err)
		}

		// Walk up from the new parent; hitting the moved node means the new
		// parent is a descendant of it.
		ancestor := newParent
		for {
			if ancestor.ID == categoryID {
				return fmt.Errorf("%w: %s is a descendant of %s", entity.ErrCycle, *newParentID, categoryID)
			}
			if ancestor.IsRoot() {
				break
			}
			ancestor, err = uc.repo.GetByID(ctx, *ancestor.ParentID)
			if err != nil {
				return fmt.Errorf("CategoryTree.Reparent: ancestor walk: %w", err)
			}
		}
		newDepth = newParent.Depth + 1
	}

	if err := uc.checkSubtreeDepth(ctx, categoryID, newDepth); err != nil {
		return err
	}

	category.ParentID = newParentID
	if err := uc.recomputeDepths(ctx, category, newDepth); err != nil {
		return err
	}

	// Cached descendant sets above both attachment points are now stale.
	if oldParentID != nil {
		uc.invalidateAncestorSets(ctx, *oldParentID)
	}
	if newParentID != nil {
		uc.invalidateAncestorSets(ctx, *newParentID)
	}
	uc.invalidateAncestorSets(ctx, categoryID)

	uc.logger.Info("Category reparented",
		zap.String("category_id", categoryID),
		zap.Any("new_parent_id", newParentID),
		zap.Int("new_depth", newDepth))
	return nil
}

// checkSubtreeDepth verifies the moved subtree still fits under the depth
// bound at its new position.
func (uc *CategoryTreeUsecase) checkSubtreeDepth(ctx context.Context, rootID string, rootDepth int) error {
	type frame struct {
		id    string
		depth int
	}
	frontier := []frame{{rootID, rootDepth}}
	for len(frontier) > 0 {
		f := frontier[0]
		frontier = frontier[1:]
		if f.depth > entity.MaxCategoryDepth {
			return fmt.Errorf("%w: reparent would push subtree past depth %d", entity.ErrValidation, entity.MaxCategoryDepth)
		}
		children, err := uc.repo.ListChildren(ctx, f.id)
		if err != nil {
			return fmt.Errorf("CategoryTree.Reparent: depth check: %w", err)
		}
		for _, child := range children {
			frontier = append(frontier, frame{child.ID, f.depth + 1})
		}
	}
	return nil
}

func (uc *CategoryTreeUsecase) recomputeDepths(ctx context.Context, root *entity.Category, depth int) error {
	root.Depth = depth
	root.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, root); err != nil {
		return fmt.Errorf("CategoryTree.Reparent: failed to update %s: %w", root.ID, err)
	}
	children, err := uc.repo.ListChildren(ctx, root.ID)
	if err != nil {
		return fmt.Errorf("CategoryTree.Reparent: failed to list children of %s: %w", root.ID, err)
	}
	for _, child := range children {
		if err := uc.recomputeDepths(ctx, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// invalidateAncestorSets drops the cached descendant sets of the category
// and every ancestor above it.
func (uc *CategoryTreeUsecase) invalidateAncestorSets(ctx context.Context, categoryID string) {
	if uc.cache == nil {
		return
	}
	id := categoryID
	for i := 0; i <= entity.MaxCategoryDepth; i++ {
		if err := uc.cache.Delete(ctx, descendantsCacheKey(id)); err != nil {
			uc.logger.Warn("Failed to invalidate descendant set", zap.Error(err), zap.String("category_id", id))
		}
		cat, err := uc.repo.GetByID(ctx, id)
		if err != nil || cat.IsRoot() {
			return
		}
		id = *cat.ParentID
	}
}

// RecomputeCount recounts the category's active listings from the facts and
// overwrites the stored aggregate. Drift repair only; never on the hot path.
func (uc *CategoryTreeUsecase) RecomputeCount(ctx context.Context, categoryID string) (int64, error) {
	count, err := uc.repo.CountActiveListings(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%w: category %s", entity.ErrNotFound, categoryID)
		}
		return 0, fmt.Errorf("CategoryTree.RecomputeCount: %w", err)
	}
	if err := uc.counters.Set(ctx, entity.CategoryListingCount(categoryID), count); err != nil {
		return 0, fmt.Errorf("CategoryTree.RecomputeCount: failed to store count: %w", err)
	}
	uc.logger.Info("Category listing count recomputed", zap.String("category_id", categoryID), zap.Int64("count", count))
	return count, nil
}
