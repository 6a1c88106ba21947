package dispatcher

import (
	"context"
	"time"

	"github.com/garyjia/budget-ledger/internal/domain/event"
)

// Handler delivers one committed lifecycle event to a sink
type Handler func(ctx context.Context, evt *event.Event) error

// Sink is a named destination for lifecycle events
type Sink struct {
	Name string

	// Types limits the sink to these event types; empty means every type
	Types []event.Type

	Handle Handler

	// Async sinks are delivered in the background on a context detached from
	// the caller. Their failures are logged and never reach Dispatch.
	Async bool

	// Timeout bounds one delivery; zero means no deadline
	Timeout time.Duration
}

func (s Sink) accepts(t event.Type) bool {
	if len(s.Types) == 0 {
		return true
	}
	for _, accepted := range s.Types {
		if accepted == t {
			return true
		}
	}
	return false
}
