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

const conversationsCollectionName = "conversations"

type ConversationRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewConversationRepository(db *mongo.Database, log *logger.Logger) (*ConversationRepository, error) {
	collection := db.Collection(conversationsCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "listing_id", Value: 1}, {Key: "buyer_id", Value: 1}, {Key: "seller_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "last_message_at", Value: -1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "last_message_at", Value: -1}}},
	})
	if err != nil {
		log.Error("Failed to create indexes for conversations collection", zap.Error(err))
	}

	return &ConversationRepository{
		collection: collection,
		logger:     log.Named("ConversationRepository"),
	}, nil
}

// GetOrCreate inserts the conversation unless an active one already exists
// for the triple. The unique index arbitrates concurrent first contacts:
// the loser's insert collides and reads the winner's document back.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	filter := bson.M{
		"listing_id": conv.ListingID,
		"buyer_id":   conv.BuyerID,
		"seller_id":  conv.SellerID,
		"is_active":  true,
	}

	var existing conversationDocument
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		return existing.toEntity(), false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("db findone failed: %w", err)
	}

	doc := conversationDocument{
		ID:            conv.ID,
		ListingID:     conv.ListingID,
		BuyerID:       conv.BuyerID,
		SellerID:      conv.SellerID,
		LastMessageAt: conv.LastMessageAt,
		IsActive:      conv.IsActive,
		CreatedAt:     conv.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if err := r.collection.FindOne(ctx, filter).Decode(&existing); err != nil {
				return nil, false, fmt.Errorf("db findone after duplicate failed: %w", err)
			}
			return existing.toEntity(), false, nil
		}
		return nil, false, fmt.Errorf("db insert failed: %w", err)
	}
	return doc.toEntity(), true, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	var doc conversationDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *ConversationRepository) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		// $max keeps last_message_at monotonic under message races.
		bson.M{"$max": bson.M{"last_message_at": at}},
	)
	if err != nil {
		return fmt.Errorf("db update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	filter := bson.M{
		"$or":       bson.A{bson.M{"buyer_id": userID}, bson.M{"seller_id": userID}},
		"is_active": true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*entity.Conversation
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}
