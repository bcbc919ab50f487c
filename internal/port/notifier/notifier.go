package notifier

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/entity"
)

// Sink accepts a notification for delivery. Delivery itself (email,
// websocket, push) is the adapter's concern; the core only decides who gets
// notified and records the fact.
type Sink interface {
	Notify(ctx context.Context, n *entity.Notification) error
}

// Fanout delivers to every sink, returning the first error after trying all.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, n *entity.Notification) error {
	var firstErr error
	for _, s := range f {
		if err := s.Notify(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
