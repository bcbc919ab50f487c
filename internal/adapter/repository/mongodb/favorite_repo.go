package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const favoritesCollectionName = "favorites"

type FavoriteRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewFavoriteRepository(db *mongo.Database, log *logger.Logger) (*FavoriteRepository, error) {
	collection := db.Collection(favoritesCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},
	})
	if err != nil {
		log.Error("Failed to create indexes for favorites collection", zap.Error(err))
	}

	return &FavoriteRepository{
		collection: collection,
		logger:     log.Named("FavoriteRepository"),
	}, nil
}

func (r *FavoriteRepository) Add(ctx context.Context, favorite *entity.Favorite) error {
	doc := favoriteDocument{
		ID:        favorite.ID,
		UserID:    favorite.UserID,
		ListingID: favorite.ListingID,
		CreatedAt: favorite.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrAlreadyExists
		}
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		return fmt.Errorf("db delete failed: %w", err)
	}
	return nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		return false, fmt.Errorf("db count failed: %w", err)
	}
	return count > 0, nil
}

func (r *FavoriteRepository) CountByListing(ctx context.Context, listingID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return 0, fmt.Errorf("db count failed: %w", err)
	}
	return count, nil
}
