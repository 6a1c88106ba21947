package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/budget-ledger/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []map[string]interface{}
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := map[string]interface{}{"msg": msg}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	m.errors = append(m.errors, entry)
}

func (m *mockLogger) errorEntries() []map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]interface{}{}, m.errors...)
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) sink(name string, err error) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		r.mu.Lock()
		r.calls = append(r.calls, name+":"+string(evt.Type))
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.calls...)
}

func approved() *event.Event {
	return event.NewEvent(event.TypeRequestApproved, 7, "mgr", nil)
}

func TestRegister(t *testing.T) {
	d := NewDispatcher()
	rec := &recorder{}

	require.NoError(t, d.Register(Sink{Name: "activity-log", Handle: rec.sink("log", nil)}))

	err := d.Register(Sink{Name: "activity-log", Handle: rec.sink("log", nil)})
	assert.ErrorIs(t, err, ErrDuplicateSink)

	assert.Error(t, d.Register(Sink{Name: "", Handle: rec.sink("x", nil)}))
	assert.Error(t, d.Register(Sink{Name: "no-handler"}))
}

func TestDispatch_OrderAndTypeFilter(t *testing.T) {
	d := NewDispatcher()
	rec := &recorder{}

	require.NoError(t, d.Register(Sink{Name: "log", Handle: rec.sink("log", nil)}))
	require.NoError(t, d.Register(Sink{
		Name:   "notify",
		Types:  []event.Type{event.TypeRequestApproved},
		Handle: rec.sink("notify", nil),
	}))
	require.NoError(t, d.Register(Sink{Name: "broker", Handle: rec.sink("broker", nil)}))

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, approved()))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeRequestCreated, 7, "u-1", nil)))

	assert.Equal(t, []string{
		"log:request.approved", "notify:request.approved", "broker:request.approved",
		"log:request.created", "broker:request.created",
	}, rec.seen())

	assert.Equal(t, []string{"log", "notify", "broker"}, d.Sinks(event.TypeRequestApproved))
	assert.Equal(t, []string{"log", "broker"}, d.Sinks(event.TypeRequestCreated))
}

func TestDispatch_FailuresAreJoined(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	rec := &recorder{}
	diskFull := errors.New("disk full")
	brokerDown := errors.New("broker down")

	require.NoError(t, d.Register(Sink{Name: "log", Handle: rec.sink("log", diskFull)}))
	require.NoError(t, d.Register(Sink{Name: "broker", Handle: rec.sink("broker", brokerDown)}))
	require.NoError(t, d.Register(Sink{Name: "audit", Handle: rec.sink("audit", nil)}))

	err := d.Dispatch(context.Background(), approved())
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.ErrorIs(t, err, brokerDown)
	assert.Contains(t, err.Error(), "sink log")
	assert.Len(t, rec.seen(), 3, "every sink runs after a failure")

	entries := logger.errorEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "log", entries[0]["sink"])
	assert.Equal(t, int64(7), entries[0]["request_id"])
}

func TestDispatch_RecoversPanics(t *testing.T) {
	d := NewDispatcher()
	rec := &recorder{}

	require.NoError(t, d.Register(Sink{Name: "bad", Handle: func(context.Context, *event.Event) error {
		panic("nil map")
	}}))
	require.NoError(t, d.Register(Sink{Name: "log", Handle: rec.sink("log", nil)}))

	err := d.Dispatch(context.Background(), approved())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink panic: nil map")
	assert.Len(t, rec.seen(), 1)
}

func TestDispatch_Timeout(t *testing.T) {
	d := NewDispatcher()

	require.NoError(t, d.Register(Sink{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Handle: func(ctx context.Context, _ *event.Event) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))

	err := d.Dispatch(context.Background(), approved())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatch_AsyncSinks(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	release := make(chan struct{})
	var delivered atomic.Int32

	require.NoError(t, d.Register(Sink{
		Name:  "lark",
		Async: true,
		Handle: func(ctx context.Context, _ *event.Event) error {
			<-release
			delivered.Add(1)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.New("lark unavailable")
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(ctx, approved()), "async failures do not reach the caller")
	cancel()
	assert.Equal(t, int32(0), delivered.Load())

	close(release)
	require.NoError(t, d.Close())
	assert.Equal(t, int32(1), delivered.Load())

	entries := logger.errorEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Background activity delivery failed", entries[0]["msg"])
	assert.EqualError(t, entries[0]["error"].(error), "lark unavailable", "delivery context is detached from the caller")
}

func TestClose(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	rec := &recorder{}
	require.NoError(t, d.Register(Sink{Name: "log", Handle: rec.sink("log", nil)}))

	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Close(), ErrClosed)
	assert.ErrorIs(t, d.Dispatch(context.Background(), approved()), ErrClosed)
	assert.ErrorIs(t, d.Register(Sink{Name: "late", Handle: rec.sink("late", nil)}), ErrClosed)
	assert.Empty(t, rec.seen())
	assert.Contains(t, logger.infos, "Dispatcher closed")
}

func TestConcurrentDispatch(t *testing.T) {
	d := NewDispatcher()
	var count atomic.Int64

	require.NoError(t, d.Register(Sink{Name: "count", Handle: func(context.Context, *event.Event) error {
		count.Add(1)
		return nil
	}}))
	require.NoError(t, d.Register(Sink{Name: "count-async", Async: true, Handle: func(context.Context, *event.Event) error {
		count.Add(1)
		return nil
	}}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Dispatch(context.Background(), approved()))
		}()
	}
	wg.Wait()
	require.NoError(t, d.Close())

	assert.Equal(t, int64(100), count.Load())
}
