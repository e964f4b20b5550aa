package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// InMemoryAuditEmitter dispatches audit events to registered handlers in the
// calling goroutine.
type InMemoryAuditEmitter struct {
	handlers []AuditHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

var _ AuditTrail = (*InMemoryAuditEmitter)(nil)

// NewInMemoryAuditEmitter creates a new instance of InMemoryAuditEmitter.
func NewInMemoryAuditEmitter(logger *slog.Logger) *InMemoryAuditEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryAuditEmitter{
		handlers: make([]AuditHandler, 0),
		logger:   logger.With("component", "audit_emitter"),
	}
}

// RegisterHandler adds a new handler to receive events.
func (e *InMemoryAuditEmitter) RegisterHandler(handler AuditHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered audit handler", "handler_count", len(e.handlers))
}

// Record publishes the event to all registered handlers.
// A failing handler does not stop delivery to the others; the first error
// encountered is returned.
func (e *InMemoryAuditEmitter) Record(ctx context.Context, event *domain.AuditEvent) error {
	e.mu.RLock()
	handlers := make([]AuditHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for audit event",
			"event_id", event.ID,
			"task_id", event.TaskID)
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleAuditEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process audit event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"task_id", event.TaskID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
