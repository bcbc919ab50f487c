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

const listingsCollectionName = "listings"

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) (*ListingRepository, error) {
	collection := db.Collection(listingsCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "activated_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for listings collection", zap.Error(err))
	}

	return &ListingRepository{
		collection: collection,
		logger:     log.Named("ListingRepository"),
	}, nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	_, err := r.collection.InsertOne(ctx, fromEntityListing(listing))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrAlreadyExists
		}
		r.logger.Error("Failed to insert listing", zap.Error(err), zap.String("listing_id", listing.ID))
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toEntity(), nil
}

// UpdateStatusAndCategory writes a lifecycle transition. The filter carries
// the expected current status, so a transition that raced against another
// one matches nothing and returns ErrNotFound instead of double-applying.
// Entering active stamps activated_at.
func (r *ListingRepository) UpdateStatusAndCategory(ctx context.Context, id string, expectStatus, newStatus entity.ListingStatus, newCategory string) error {
	now := time.Now().UTC()
	set := bson.M{
		"status":      string(newStatus),
		"category_id": newCategory,
		"updated_at":  now,
	}
	if newStatus == entity.StatusActive && expectStatus != entity.StatusActive {
		set["activated_at"] = now
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(expectStatus)},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("db update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) SetTags(ctx context.Context, id string, tags []string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"tags": tags, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("db update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) ListActivatedSince(ctx context.Context, since time.Time, limit int64) ([]*entity.Listing, error) {
	filter := bson.M{
		"status":       string(entity.StatusActive),
		"activated_at": bson.M{"$gt": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "activated_at", Value: 1}}).
		SetLimit(limit)
	return r.list(ctx, filter, opts)
}

func (r *ListingRepository) ListExpired(ctx context.Context, now time.Time, limit int64) ([]*entity.Listing, error) {
	filter := bson.M{
		"status":     string(entity.StatusActive),
		"expires_at": bson.M{"$lt": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "expires_at", Value: 1}}).
		SetLimit(limit)
	return r.list(ctx, filter, opts)
}

func (r *ListingRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*entity.Listing, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*entity.Listing
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode listing: %w", err)
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}
