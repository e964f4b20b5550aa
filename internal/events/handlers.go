package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// StoreHandler persists audit events through a store.AuditStore.
type StoreHandler struct {
	store store.AuditStore
}

// NewStoreHandler creates a StoreHandler.
func NewStoreHandler(s store.AuditStore) *StoreHandler {
	return &StoreHandler{store: s}
}

// HandleAuditEvent implements AuditHandler. An event that is already stored
// counts as handled.
func (h *StoreHandler) HandleAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	err := h.store.Append(ctx, event)
	if errors.Is(err, store.ErrDuplicate) {
		return nil
	}
	return err
}

// LogHandler writes each audit event as a structured log line.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler. A nil logger means slog.Default().
func NewLogHandler(l *slog.Logger) *LogHandler {
	if l == nil {
		l = slog.Default()
	}
	return &LogHandler{logger: l}
}

// HandleAuditEvent implements AuditHandler.
func (h *LogHandler) HandleAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	logger.FromContextOrDefault(ctx, h.logger).Info("task status changed",
		slog.String("event_id", event.ID.String()),
		slog.String("task_id", event.TaskID.String()),
		slog.String("from", string(event.FromStatus)),
		slog.String("to", string(event.ToStatus)),
		slog.String("actor_id", event.ActorID.String()),
		slog.Time("timestamp", event.Timestamp))
	return nil
}
