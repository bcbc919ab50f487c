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

const savedSearchesCollectionName = "saved_searches"

type SavedSearchRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewSavedSearchRepository(db *mongo.Database, log *logger.Logger) (*SavedSearchRepository, error) {
	collection := db.Collection(savedSearchesCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "watermark", Value: 1}}},
	})
	if err != nil {
		log.Error("Failed to create indexes for saved_searches collection", zap.Error(err))
	}

	return &SavedSearchRepository{
		collection: collection,
		logger:     log.Named("SavedSearchRepository"),
	}, nil
}

func (r *SavedSearchRepository) Create(ctx context.Context, search *entity.SavedSearch) error {
	if _, err := r.collection.InsertOne(ctx, fromEntitySavedSearch(search)); err != nil {
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *SavedSearchRepository) GetByID(ctx context.Context, id string) (*entity.SavedSearch, error) {
	var doc savedSearchDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *SavedSearchRepository) ListActiveBefore(ctx context.Context, createdBefore time.Time) ([]*entity.SavedSearch, error) {
	filter := bson.M{
		"is_active": true,
		"watermark": bson.M{"$lt": createdBefore},
	}
	opts := options.Find().SetSort(bson.D{{Key: "watermark", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*entity.SavedSearch
	for cursor.Next(ctx) {
		var doc savedSearchDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode saved search: %w", err)
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}

// AdvanceWatermark moves the watermark forward with $max, so a stale sweep
// finishing late can never rewind a newer sweep's progress.
func (r *SavedSearchRepository) AdvanceWatermark(ctx context.Context, id string, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$max": bson.M{"watermark": at}},
	)
	if err != nil {
		return fmt.Errorf("db update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
