package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler implements AuditHandler for testing.
type recordingHandler struct {
	mu     sync.Mutex
	events []*domain.AuditEvent
	err    error
}

func (h *recordingHandler) HandleAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEvent() *domain.AuditEvent {
	return domain.NewAuditEvent(uuid.New(), domain.StatusTodo, domain.StatusInProgress, uuid.New())
}

func TestInMemoryAuditEmitter(t *testing.T) {
	t.Run("no handlers", func(t *testing.T) {
		emitter := NewInMemoryAuditEmitter(discardLogger())
		assert.NoError(t, emitter.Record(context.Background(), newEvent()))
	})

	t.Run("fans out to every handler", func(t *testing.T) {
		emitter := NewInMemoryAuditEmitter(discardLogger())
		h1, h2 := &recordingHandler{}, &recordingHandler{}
		emitter.RegisterHandler(h1)
		emitter.RegisterHandler(h2)

		event := newEvent()
		require.NoError(t, emitter.Record(context.Background(), event))

		assert.Equal(t, []*domain.AuditEvent{event}, h1.events)
		assert.Equal(t, []*domain.AuditEvent{event}, h2.events)
	})

	t.Run("failing handler does not starve the rest", func(t *testing.T) {
		emitter := NewInMemoryAuditEmitter(discardLogger())
		failing := &recordingHandler{err: errors.New("sink down")}
		ok := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(ok)

		err := emitter.Record(context.Background(), newEvent())
		assert.EqualError(t, err, "sink down")
		assert.Equal(t, 1, ok.count())
	})
}

func TestAuditDispatcher_DeliversQueuedEvents(t *testing.T) {
	sink := &recordingHandler{}
	emitter := NewInMemoryAuditEmitter(discardLogger())
	emitter.RegisterHandler(sink)

	d := NewAuditDispatcher(emitter, AuditDispatcherConfig{QueueSize: 16, WorkerCount: 3}, discardLogger())
	require.NoError(t, d.Start())

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Record(context.Background(), newEvent()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	assert.Equal(t, 10, sink.count())
	assert.ErrorIs(t, d.Start(), ErrDispatcherStopped)
}

func TestAuditDispatcher_FullQueueRecordsSynchronously(t *testing.T) {
	sink := &recordingHandler{}
	d := NewAuditDispatcher(AuditTrailFunc(sink.HandleAuditEvent), AuditDispatcherConfig{QueueSize: 1, WorkerCount: 1}, discardLogger())

	// Not started: the first event sits in the queue, the second overflows.
	require.NoError(t, d.Record(context.Background(), newEvent()))
	assert.Equal(t, 0, sink.count())

	require.NoError(t, d.Record(context.Background(), newEvent()))
	assert.Equal(t, 1, sink.count())

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 2, sink.count())
}

func TestAuditDispatcher_RecordAfterStop(t *testing.T) {
	sink := &recordingHandler{}
	d := NewAuditDispatcher(AuditTrailFunc(sink.HandleAuditEvent), AuditDispatcherConfig{}, discardLogger())
	require.NoError(t, d.Start())
	require.NoError(t, d.Stop(context.Background()))

	require.NoError(t, d.Record(context.Background(), newEvent()))
	assert.Equal(t, 1, sink.count())
}

func TestAuditDispatcher_DetachesCancellation(t *testing.T) {
	var gotErr error
	done := make(chan struct{})
	sink := AuditTrailFunc(func(ctx context.Context, event *domain.AuditEvent) error {
		gotErr = ctx.Err()
		close(done)
		return nil
	})

	d := NewAuditDispatcher(sink, AuditDispatcherConfig{QueueSize: 4, WorkerCount: 1}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Record(ctx, newEvent()))
	cancel()

	require.NoError(t, d.Start())
	<-done
	require.NoError(t, d.Stop(context.Background()))
	assert.NoError(t, gotErr)
}

func TestAuditDispatcher_StalledSinkIsBounded(t *testing.T) {
	var mu sync.Mutex
	var attempts int
	sink := AuditTrailFunc(func(ctx context.Context, event *domain.AuditEvent) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	})

	d := NewAuditDispatcher(sink, AuditDispatcherConfig{
		QueueSize:       1,
		WorkerCount:     1,
		DeliveryTimeout: 50 * time.Millisecond,
	}, discardLogger())

	// Not started: the first event fills the queue, the second is recorded in
	// the caller's goroutine against the stalled sink.
	require.NoError(t, d.Record(context.Background(), newEvent()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Record(context.Background(), newEvent())
	}()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a stalled sink")
	}

	require.NoError(t, d.Start())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx), "workers should give up on the stalled sink")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

type fakeAuditStore struct {
	appendErr error
	appended  []*domain.AuditEvent
}

func (s *fakeAuditStore) Append(ctx context.Context, event *domain.AuditEvent) error {
	s.appended = append(s.appended, event)
	return s.appendErr
}

func (s *fakeAuditStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditEvent, error) {
	return s.appended, nil
}

func TestStoreHandler(t *testing.T) {
	t.Run("appends", func(t *testing.T) {
		s := &fakeAuditStore{}
		require.NoError(t, NewStoreHandler(s).HandleAuditEvent(context.Background(), newEvent()))
		assert.Len(t, s.appended, 1)
	})

	t.Run("duplicate counts as handled", func(t *testing.T) {
		s := &fakeAuditStore{appendErr: store.ErrDuplicate}
		assert.NoError(t, NewStoreHandler(s).HandleAuditEvent(context.Background(), newEvent()))
	})

	t.Run("other errors surface", func(t *testing.T) {
		s := &fakeAuditStore{appendErr: errors.New("disk full")}
		assert.Error(t, NewStoreHandler(s).HandleAuditEvent(context.Background(), newEvent()))
	})
}

func TestLogHandler(t *testing.T) {
	l, buf := logger.NewTestLogger()
	event := domain.NewAuditEvent(uuid.New(), domain.StatusReview, domain.StatusDone, uuid.New())

	require.NoError(t, NewLogHandler(l).HandleAuditEvent(context.Background(), event))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "task status changed", entries[0]["msg"])
	assert.Equal(t, "review", entries[0]["from"])
	assert.Equal(t, "done", entries[0]["to"])
	assert.Equal(t, event.TaskID.String(), entries[0]["task_id"])
}
