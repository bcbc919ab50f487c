package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	lifecycleSubjectPrefix    = "listing.lifecycle."
	notificationSubjectPrefix = "notification."
)

// Publisher pushes lifecycle events and notifications onto NATS subjects.
// Both are best-effort fan-out: subscribers that need stronger guarantees
// read the store, not the bus.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewNATSPublisher(cfg *config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.ConnectTimeout),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, logger: logger}, nil
}

// PublishLifecycleEvent emits the transition on
// listing.lifecycle.<action>.
func (p *Publisher) PublishLifecycleEvent(_ context.Context, ev *entity.ListingLifecycleEvent) error {
	subject := lifecycleSubjectPrefix + string(ev.Action)
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("Failed to marshal lifecycle event",
			zap.Error(err),
			zap.String("listing_id", ev.ListingID),
			zap.String("subject", subject))
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish lifecycle event",
			zap.Error(err),
			zap.String("listing_id", ev.ListingID),
			zap.String("subject", subject))
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	p.logger.Debug("Lifecycle event published",
		zap.String("subject", subject),
		zap.String("listing_id", ev.ListingID))
	return nil
}

type notificationPayload struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Type          string            `json:"type"`
	Title         string            `json:"title"`
	Payload       map[string]string `json:"payload,omitempty"`
	SavedSearchID string            `json:"saved_search_id,omitempty"`
	ListingID     string            `json:"listing_id,omitempty"`
}

// Notify publishes the notification on notification.<type>, making the
// publisher usable as a notifier.Sink.
func (p *Publisher) Notify(_ context.Context, n *entity.Notification) error {
	subject := notificationSubjectPrefix + string(n.Type)
	data, err := json.Marshal(notificationPayload{
		ID:            n.ID,
		UserID:        n.UserID,
		Type:          string(n.Type),
		Title:         n.Title,
		Payload:       n.Payload,
		SavedSearchID: n.SavedSearchID,
		ListingID:     n.ListingID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish notification",
			zap.Error(err),
			zap.String("subject", subject),
			zap.String("user_id", n.UserID))
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection so buffered publishes flush before shutdown.
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.logger.Warn("Failed to drain NATS connection", zap.Error(err))
		}
	}
}
