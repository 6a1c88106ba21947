package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/garyjia/budget-ledger/internal/domain/event"
)

var (
	// ErrClosed is returned by Dispatch and Register after Close
	ErrClosed = errors.New("dispatcher is closed")

	// ErrDuplicateSink is returned when a sink name is registered twice
	ErrDuplicateSink = errors.New("sink already registered")
)

// Dispatcher fans committed lifecycle events out to the activity sinks
type Dispatcher interface {
	// Register adds a sink. Sinks are delivered in registration order.
	Register(sink Sink) error

	// Dispatch delivers evt to every matching sink, even after one fails,
	// and returns the joined errors of the synchronous sinks
	Dispatch(ctx context.Context, evt *event.Event) error

	// Sinks returns the names of the sinks receiving eventType
	Sinks(eventType event.Type) []string

	// Close rejects further events and waits for background deliveries
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu     sync.RWMutex
	sinks  []Sink
	closed bool
	logger Logger

	inflight sync.WaitGroup
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher with no sinks
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Register(sink Sink) error {
	if sink.Name == "" || sink.Handle == nil {
		return fmt.Errorf("sink needs a name and a handler")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	for _, s := range d.sinks {
		if s.Name == sink.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateSink, sink.Name)
		}
	}
	d.sinks = append(d.sinks, sink)

	d.info("Activity sink registered", "sink", sink.Name, "async", sink.Async, "types", len(sink.Types))
	return nil
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	// The read lock is held while async deliveries are scheduled so Close
	// cannot start waiting between the closed check and inflight.Add.
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return ErrClosed
	}

	var inline []Sink
	for _, s := range d.sinks {
		if !s.accepts(evt.Type) {
			continue
		}
		if !s.Async {
			inline = append(inline, s)
			continue
		}

		d.inflight.Add(1)
		go func(s Sink) {
			defer d.inflight.Done()
			if err := d.deliver(context.WithoutCancel(ctx), s, evt); err != nil {
				d.fail("Background activity delivery failed", s, evt, err)
			}
		}(s)
	}
	d.mu.RUnlock()

	var errs []error
	for _, s := range inline {
		if err := d.deliver(ctx, s, evt); err != nil {
			d.fail("Activity delivery failed", s, evt, err)
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *eventDispatcher) Sinks(eventType event.Type) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var names []string
	for _, s := range d.sinks {
		if s.accepts(eventType) {
			names = append(names, s.Name)
		}
	}
	return names
}

func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.mu.Unlock()

	d.inflight.Wait()
	d.info("Dispatcher closed")
	return nil
}

// deliver runs one sink with its timeout and turns a panic into an error
func (d *eventDispatcher) deliver(ctx context.Context, s Sink, evt *event.Event) (err error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()

	return s.Handle(ctx, evt)
}

func (d *eventDispatcher) fail(msg string, s Sink, evt *event.Event, err error) {
	if d.logger == nil {
		return
	}
	d.logger.Error(msg,
		"sink", s.Name,
		"event_type", evt.Type,
		"event_id", evt.ID,
		"request_id", evt.RequestID,
		"error", err,
	)
}

func (d *eventDispatcher) info(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}
