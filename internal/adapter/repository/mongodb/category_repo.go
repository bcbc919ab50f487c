package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const categoriesCollectionName = "categories"

type CategoryRepository struct {
	collection *mongo.Collection
	listings   *mongo.Collection
	logger     *logger.Logger
}

func NewCategoryRepository(db *mongo.Database, log *logger.Logger) (*CategoryRepository, error) {
	collection := db.Collection(categoriesCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "sort_order", Value: 1}, {Key: "name", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for categories collection", zap.Error(err))
	}

	return &CategoryRepository{
		collection: collection,
		listings:   db.Collection(listingsCollectionName),
		logger:     log.Named("CategoryRepository"),
	}, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	_, err := r.collection.InsertOne(ctx, fromEntityCategory(category))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrAlreadyExists
		}
		r.logger.Error("Failed to insert category", zap.Error(err), zap.String("slug", category.Slug))
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	var doc categoryDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	var doc categoryDocument
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *entity.Category) error {
	doc := fromEntityCategory(category)
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": category.ID}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrAlreadyExists
		}
		return fmt.Errorf("db replace failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) ListChildren(ctx context.Context, parentID string) ([]*entity.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"parent_id": parentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*entity.Category
	for cursor.Next(ctx) {
		var doc categoryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode category: %w", err)
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}

func (r *CategoryRepository) ListAll(ctx context.Context) ([]*entity.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "depth", Value: 1}, {Key: "sort_order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*entity.Category
	for cursor.Next(ctx) {
		var doc categoryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode category: %w", err)
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}

// CountActiveListings scans the listings collection instead of trusting the
// stored counter; the drift-repair path uses it as ground truth.
func (r *CategoryRepository) CountActiveListings(ctx context.Context, categoryID string) (int64, error) {
	count, err := r.listings.CountDocuments(ctx, bson.M{
		"category_id": categoryID,
		"status":      string(entity.StatusActive),
	})
	if err != nil {
		return 0, fmt.Errorf("db count failed: %w", err)
	}
	return count, nil
}
