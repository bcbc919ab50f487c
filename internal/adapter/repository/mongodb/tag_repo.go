package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/port/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const tagsCollectionName = "tags"

type TagRepository struct {
	collection *mongo.Collection
	listings   *mongo.Collection
	logger     *logger.Logger
}

func NewTagRepository(db *mongo.Database, log *logger.Logger) (*TagRepository, error) {
	collection := db.Collection(tagsCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Error("Failed to create indexes for tags collection", zap.Error(err))
	}

	return &TagRepository{
		collection: collection,
		listings:   db.Collection(listingsCollectionName),
		logger:     log.Named("TagRepository"),
	}, nil
}

// GetOrCreate inserts the tag on first use. The upsert races cleanly: when
// two callers insert the same name at once, the unique index lets exactly
// one document through and both callers read it back.
func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*entity.Tag, error) {
	doc := tagDocument{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": doc},
		opts,
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to upsert tag: %w", err)
	}
	return r.GetByName(ctx, name)
}

func (r *TagRepository) GetByName(ctx context.Context, name string) (*entity.Tag, error) {
	var doc tagDocument
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toEntity(), nil
}

// CountUsage recounts how many listings currently carry the tag. Drift
// repair only.
func (r *TagRepository) CountUsage(ctx context.Context, tagName string) (int64, error) {
	count, err := r.listings.CountDocuments(ctx, bson.M{"tags": tagName})
	if err != nil {
		return 0, fmt.Errorf("db count failed: %w", err)
	}
	return count, nil
}
