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

const (
	ratingsCollectionName         = "ratings"
	ratingAggregateCollectionName = "rating_aggregates"
)

type RatingRepository struct {
	collection *mongo.Collection
	aggregates *mongo.Collection
	logger     *logger.Logger
}

func NewRatingRepository(db *mongo.Database, log *logger.Logger) (*RatingRepository, error) {
	collection := db.Collection(ratingsCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "rater_id", Value: 1}, {Key: "ratee_id", Value: 1}, {Key: "listing_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ratee_id", Value: 1}}},
	})
	if err != nil {
		log.Error("Failed to create indexes for ratings collection", zap.Error(err))
	}

	return &RatingRepository{
		collection: collection,
		aggregates: db.Collection(ratingAggregateCollectionName),
		logger:     log.Named("RatingRepository"),
	}, nil
}

func (r *RatingRepository) Create(ctx context.Context, rating *entity.UserRating) error {
	doc := ratingDocument{
		ID:        rating.ID,
		RaterID:   rating.RaterID,
		RateeID:   rating.RateeID,
		ListingID: rating.ListingID,
		Score:     rating.Score,
		Comment:   rating.Comment,
		CreatedAt: rating.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrAlreadyExists
		}
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *RatingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("db delete failed: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RatingRepository) GetByID(ctx context.Context, id string) (*entity.UserRating, error) {
	var doc ratingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toEntity(), nil
}

// Aggregate computes the ratee's average and count server-side with one
// aggregation pipeline, so the result reflects exactly the live rating set.
func (r *RatingRepository) Aggregate(ctx context.Context, rateeID string) (float64, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "ratee_id", Value: rateeID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$score"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("db aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Average float64 `bson:"average"`
		Count   int64   `bson:"count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, 0, fmt.Errorf("failed to decode aggregation result: %w", err)
		}
	}
	return result.Average, result.Count, cursor.Err()
}

func (r *RatingRepository) SaveAggregate(ctx context.Context, agg *entity.UserRatingAggregate) error {
	doc := ratingAggregateDocument{
		UserID:        agg.UserID,
		RatingAverage: agg.RatingAverage,
		RatingCount:   agg.RatingCount,
		UpdatedAt:     agg.UpdatedAt,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.aggregates.ReplaceOne(ctx, bson.M{"_id": agg.UserID}, doc, opts)
	if err != nil {
		return fmt.Errorf("db replace failed: %w", err)
	}
	return nil
}

func (r *RatingRepository) GetAggregate(ctx context.Context, userID string) (*entity.UserRatingAggregate, error) {
	var doc ratingAggregateDocument
	err := r.aggregates.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return &entity.UserRatingAggregate{
		UserID:        doc.UserID,
		RatingAverage: doc.RatingAverage,
		RatingCount:   doc.RatingCount,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}
