package mongodb

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Transactor runs a function inside a MongoDB session transaction. Callbacks
// receive the session context and must pass it on to every repository call
// they make.
type Transactor struct {
	client *mongo.Client
	logger *logger.Logger
}

func NewTransactor(client *mongo.Client, log *logger.Logger) *Transactor {
	return &Transactor{
		client: client,
		logger: log.Named("Transactor"),
	}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		t.logger.Debug("Transaction aborted", zap.Error(err))
		return err
	}
	return nil
}
