// Package activity turns committed lifecycle events into activity-log rows,
// broker messages and requester notifications.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/budget-ledger/internal/application/dispatcher"
	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/garyjia/budget-ledger/internal/domain/event"
)

// Handler names as registered on the dispatcher
const (
	ActivityLogHandlerName = "activity-log"
	PublisherHandlerName   = "amqp-publisher"
	NotifierHandlerName    = "requester-notifier"
)

// Sinks are the optional collaborators that receive lifecycle events.
// ActivityRepo is always required; Publisher and Notifier may be nil.
type Sinks struct {
	ActivityRepo port.ActivityLogRepository
	RequestRepo  port.RequestRepository
	Publisher    port.ActivityPublisher
	Notifier     port.RequesterNotifier

	// NotifyAsync delivers requester notifications off the request path
	NotifyAsync bool

	// ExternalTimeout bounds each publish and notify call; zero means none
	ExternalTimeout time.Duration
}

// Register adds every configured sink to d. The activity log goes first so a
// broker or chat outage never keeps the log from being written.
func Register(d dispatcher.Dispatcher, sinks Sinks) error {
	if sinks.ActivityRepo == nil {
		return fmt.Errorf("activity log repository is required")
	}

	regs := []dispatcher.Sink{{
		Name:   ActivityLogHandlerName,
		Handle: ActivityLogHandler(sinks.ActivityRepo),
	}}

	if sinks.Publisher != nil {
		regs = append(regs, dispatcher.Sink{
			Name:    PublisherHandlerName,
			Handle:  PublisherHandler(sinks.Publisher),
			Timeout: sinks.ExternalTimeout,
		})
	}

	if sinks.Notifier != nil && sinks.RequestRepo != nil {
		regs = append(regs, dispatcher.Sink{
			Name:    NotifierHandlerName,
			Types:   notifiedTypes,
			Handle:  NotifierHandler(sinks.Notifier, sinks.RequestRepo),
			Async:   sinks.NotifyAsync,
			Timeout: sinks.ExternalTimeout,
		})
	}

	for _, sink := range regs {
		if err := d.Register(sink); err != nil {
			return fmt.Errorf("register %s: %w", sink.Name, err)
		}
	}
	return nil
}

// ActivityLogHandler appends one activity-log row per event
func ActivityLogHandler(repo port.ActivityLogRepository) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		requestID := evt.RequestID
		log := &entity.ActivityLog{
			UserID:    evt.UserID,
			Action:    evt.Type.Action(),
			RequestID: &requestID,
			Metadata:  evt.MetadataJSON(),
			CreatedAt: evt.Timestamp,
		}
		if err := repo.Create(ctx, log); err != nil {
			return fmt.Errorf("append activity log: %w", err)
		}
		return nil
	}
}

// PublisherHandler forwards events to the message broker
func PublisherHandler(pub port.ActivityPublisher) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		return pub.Publish(ctx, evt)
	}
}

var notifiedTypes = []event.Type{
	event.TypeRequestApproved,
	event.TypeRequestRejected,
	event.TypeExpenseRejected,
	event.TypeRequestCompleted,
}

// NotifierHandler tells the requester about decisions on their request
func NotifierHandler(notifier port.RequesterNotifier, requestRepo port.RequestRepository) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		req, err := requestRepo.GetByID(ctx, evt.RequestID)
		if err != nil {
			return fmt.Errorf("load request for notification: %w", err)
		}
		if req == nil || req.RequesterID == "" || req.RequesterID == entity.SystemUser {
			return nil
		}

		return notifier.Notify(ctx, req.RequesterID, Message(evt, req))
	}
}

// Message renders the notification text for an event
func Message(evt *event.Event, req *entity.BudgetRequest) string {
	switch evt.Type {
	case event.TypeRequestApproved:
		return fmt.Sprintf("Budget request #%d (%s) for %s was approved.", req.ID, req.Project, req.Amount)
	case event.TypeRequestRejected:
		return fmt.Sprintf("Budget request #%d (%s) was rejected: %s", req.ID, req.Project, evt.GetPayloadString("reason"))
	case event.TypeExpenseRejected:
		return fmt.Sprintf("Expense report for request #%d (%s) was sent back: %s", req.ID, req.Project, evt.GetPayloadString("reason"))
	case event.TypeRequestCompleted:
		return fmt.Sprintf("Budget request #%d (%s) is closed. Returned: %s", req.ID, req.Project, evt.GetPayloadString("return_amount"))
	default:
		return fmt.Sprintf("Budget request #%d (%s): %s", req.ID, req.Project, evt.Type)
	}
}
