package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// ErrDispatcherStopped is returned by Start on a dispatcher that was already stopped.
var ErrDispatcherStopped = errors.New("audit dispatcher is stopped")

const defaultDeliveryTimeout = 5 * time.Second

// AuditDispatcherConfig holds configuration for the dispatcher.
type AuditDispatcherConfig struct {
	// QueueSize is the buffer size of the event queue. Defaults to 1.
	QueueSize int

	// WorkerCount is the number of goroutines draining the queue. Defaults to 1.
	WorkerCount int

	// DeliveryTimeout bounds each call to the sink. Defaults to 5s.
	DeliveryTimeout time.Duration
}

type queuedEvent struct {
	ctx   context.Context
	event *domain.AuditEvent
}

// AuditDispatcher records audit events asynchronously. Events are queued and
// delivered to the sink by worker goroutines. When the queue is full, or the
// dispatcher has been stopped, the event is delivered in the caller's
// goroutine instead. Every sink call is bounded by the delivery timeout, so a
// stalled sink cannot hold a caller or a worker indefinitely.
type AuditDispatcher struct {
	sink            AuditTrail
	queue           chan queuedEvent
	workerCount     int
	deliveryTimeout time.Duration
	logger          *slog.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

var _ AuditTrail = (*AuditDispatcher)(nil)

// NewAuditDispatcher creates a dispatcher in front of sink. Call Start to
// launch the workers.
func NewAuditDispatcher(sink AuditTrail, config AuditDispatcherConfig, logger *slog.Logger) *AuditDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audit_dispatcher")

	if config.QueueSize <= 0 {
		logger.Warn("invalid queue size specified, using default",
			"specified_size", config.QueueSize,
			"default_size", 1)
		config.QueueSize = 1
	}
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.DeliveryTimeout <= 0 {
		config.DeliveryTimeout = defaultDeliveryTimeout
	}

	return &AuditDispatcher{
		sink:            sink,
		queue:           make(chan queuedEvent, config.QueueSize),
		workerCount:     config.WorkerCount,
		deliveryTimeout: config.DeliveryTimeout,
		logger:          logger,
	}
}

// Start launches the worker goroutines. It is a no-op when already started.
func (d *AuditDispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrDispatcherStopped
	}
	if d.started {
		return nil
	}
	d.started = true

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.logger.Info("audit dispatcher started",
		"worker_count", d.workerCount,
		"queue_cap", cap(d.queue))
	return nil
}

// Record enqueues the event. The context is detached from cancellation so a
// finished request does not abort delivery, but keeps its values.
func (d *AuditDispatcher) Record(ctx context.Context, event *domain.AuditEvent) error {
	item := queuedEvent{ctx: context.WithoutCancel(ctx), event: event}

	d.mu.RLock()
	if !d.stopped {
		select {
		case d.queue <- item:
			d.mu.RUnlock()
			return nil
		default:
			d.logger.Warn("audit queue full, recording synchronously",
				"event_id", event.ID,
				"queue_cap", cap(d.queue))
		}
	}
	d.mu.RUnlock()

	return d.record(item)
}

// record calls the sink under the delivery timeout.
func (d *AuditDispatcher) record(item queuedEvent) error {
	ctx, cancel := context.WithTimeout(item.ctx, d.deliveryTimeout)
	defer cancel()
	return d.sink.Record(ctx, item.event)
}

// Stop closes the queue and waits until every queued event has been
// delivered or ctx expires. Events queued before Start was ever called are
// drained in the calling goroutine.
func (d *AuditDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if !started {
		for item := range d.queue {
			d.deliver(item)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("audit dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Error("audit dispatcher stop timed out",
			"pending", len(d.queue))
		return ctx.Err()
	}
}

func (d *AuditDispatcher) worker(id int) {
	defer d.wg.Done()

	d.logger.Debug("starting audit worker", "worker_id", id)
	for item := range d.queue {
		d.deliver(item)
	}
	d.logger.Debug("audit worker exiting", "worker_id", id)
}

func (d *AuditDispatcher) deliver(item queuedEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while delivering audit event",
				"event_id", item.event.ID,
				"panic", r)
		}
	}()

	if err := d.record(item); err != nil {
		d.logger.Error("failed to deliver audit event",
			"error", err,
			"event_id", item.event.ID,
			"task_id", item.event.TaskID)
	}
}
