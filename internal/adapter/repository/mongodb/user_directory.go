package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserDirectory is a read-only view of the users collection maintained by
// the user service. This service only ever resolves delivery addresses from
// it.
type UserDirectory struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserDirectory(db *mongo.Database, log *logger.Logger) *UserDirectory {
	return &UserDirectory{
		collection: db.Collection("users"),
		logger:     log.Named("UserDirectory"),
	}
}

func (d *UserDirectory) EmailForUser(ctx context.Context, userID string) (string, error) {
	var doc struct {
		Email string `bson:"email"`
	}
	err := d.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", fmt.Errorf("UserDirectory.EmailForUser: no user %s", userID)
		}
		return "", fmt.Errorf("UserDirectory.EmailForUser: %w", err)
	}
	if doc.Email == "" {
		return "", fmt.Errorf("UserDirectory.EmailForUser: user %s has no email", userID)
	}
	return doc.Email, nil
}
