package port

import (
	"context"

	"github.com/garyjia/budget-ledger/internal/domain/event"
)

// ActivityPublisher forwards committed lifecycle events to a message broker
type ActivityPublisher interface {
	Publish(ctx context.Context, evt *event.Event) error
	Close() error
}

// RequesterNotifier delivers a short status message to a request's requester
type RequesterNotifier interface {
	Notify(ctx context.Context, userID string, message string) error
}
