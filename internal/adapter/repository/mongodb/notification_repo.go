package mongodb

import (
	"context"
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

const notificationsCollectionName = "notifications"

type NotificationRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewNotificationRepository(db *mongo.Database, log *logger.Logger) (*NotificationRepository, error) {
	collection := db.Collection(notificationsCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// The dedup pair for alert matches; partial so other notification
		// types are not constrained.
		{
			Keys: bson.D{{Key: "saved_search_id", Value: 1}, {Key: "listing_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"saved_search_id": bson.M{"$exists": true},
				"type":            string(entity.NotificationAlertMatch),
			}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		log.Error("Failed to create indexes for notifications collection", zap.Error(err))
	}

	return &NotificationRepository{
		collection: collection,
		logger:     log.Named("NotificationRepository"),
	}, nil
}

// Record inserts the notification. For alert matches the unique
// (saved_search_id, listing_id) pair doubles as the seen-set: a duplicate
// insert reports inserted=false and returns the stored record, so the
// caller can resume a delivery that failed after the pair was written.
func (r *NotificationRepository) Record(ctx context.Context, n *entity.Notification) (*entity.Notification, bool, error) {
	if _, err := r.collection.InsertOne(ctx, fromEntityNotification(n)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			var doc notificationDocument
			ferr := r.collection.FindOne(ctx, bson.M{
				"saved_search_id": n.SavedSearchID,
				"listing_id":      n.ListingID,
				"type":            string(entity.NotificationAlertMatch),
			}).Decode(&doc)
			if ferr != nil {
				return nil, false, fmt.Errorf("db find after duplicate failed: %w", ferr)
			}
			return doc.toEntity(), false, nil
		}
		return nil, false, fmt.Errorf("db insert failed: %w", err)
	}
	return n, true, nil
}

func (r *NotificationRepository) MarkEmailSent(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"email_sent": true}},
	)
	if err != nil {
		return fmt.Errorf("db update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*entity.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*entity.Notification
	for cursor.Next(ctx) {
		var doc notificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return fmt.Errorf("db update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
