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

const messagesCollectionName = "messages"

type MessageRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewMessageRepository(db *mongo.Database, log *logger.Logger) (*MessageRepository, error) {
	collection := db.Collection(messagesCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "sender_id", Value: 1}, {Key: "read_at", Value: 1}}},
	})
	if err != nil {
		log.Error("Failed to create indexes for messages collection", zap.Error(err))
	}

	return &MessageRepository{
		collection: collection,
		logger:     log.Named("MessageRepository"),
	}, nil
}

func (r *MessageRepository) Create(ctx context.Context, msg *entity.Message) error {
	doc := messageDocument{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Status:         string(msg.Status),
		CreatedAt:      msg.CreatedAt,
		ReadAt:         msg.ReadAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*entity.Message
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}

// MarkRead stamps every unread message not authored by readerID. The filter
// excludes already-read messages, so repeated calls match zero documents
// and read_at is never overwritten.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{
			"conversation_id": conversationID,
			"sender_id":       bson.M{"$ne": readerID},
			"read_at":         nil,
		},
		bson.M{"$set": bson.M{
			"read_at": at,
			"status":  string(entity.MessageRead),
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("db update failed: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, conversationID, participantID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"conversation_id": conversationID,
		"sender_id":       bson.M{"$ne": participantID},
		"read_at":         nil,
	})
	if err != nil {
		return 0, fmt.Errorf("db count failed: %w", err)
	}
	return count, nil
}
