package mongodb

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CounterStore applies signed deltas to denormalized counter fields with
// MongoDB $inc updates. The increment is atomic on the document, so
// concurrent deltas on the same counter serialize in the store instead of
// racing through read-modify-write.
type CounterStore struct {
	db     *mongo.Database
	logger *logger.Logger
}

func NewCounterStore(db *mongo.Database, log *logger.Logger) *CounterStore {
	return &CounterStore{
		db:     db,
		logger: log.Named("CounterStore"),
	}
}

func counterCollection(owner string) (string, error) {
	switch owner {
	case entity.OwnerCategory:
		return categoriesCollectionName, nil
	case entity.OwnerTag:
		return tagsCollectionName, nil
	case entity.OwnerListing:
		return listingsCollectionName, nil
	}
	return "", fmt.Errorf("unknown counter owner %q", owner)
}

func (s *CounterStore) Increment(ctx context.Context, key entity.CounterKey, delta int64) error {
	coll, err := counterCollection(key.Owner)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(coll).UpdateOne(ctx,
		bson.M{"_id": key.ID},
		bson.M{"$inc": bson.M{string(key.Field): delta}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s.%s: %w", coll, key.Field, err)
	}
	if res.MatchedCount == 0 {
		s.logger.Warn("Counter increment matched no document",
			zap.String("collection", coll),
			zap.String("id", key.ID),
			zap.String("field", string(key.Field)))
	}
	return nil
}

func (s *CounterStore) Set(ctx context.Context, key entity.CounterKey, value int64) error {
	coll, err := counterCollection(key.Owner)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(coll).UpdateOne(ctx,
		bson.M{"_id": key.ID},
		bson.M{"$set": bson.M{string(key.Field): value}},
	)
	if err != nil {
		return fmt.Errorf("failed to set %s.%s: %w", coll, key.Field, err)
	}
	return nil
}
