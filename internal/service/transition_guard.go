package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/events"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/platform/metrics"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// statusField is the payload key that only the lifecycle may write.
const statusField = "status"

// TransitionGuard is the only component that writes a task's status.
type TransitionGuard struct {
	store        store.TaskStore
	audit        events.AuditTrail
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewTransitionGuard creates a TransitionGuard.
// It returns an error if any of the required dependencies are nil.
func NewTransitionGuard(
	taskStore store.TaskStore,
	audit events.AuditTrail,
	writeTimeout time.Duration,
	logger *slog.Logger,
) (*TransitionGuard, error) {
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if audit == nil {
		return nil, domain.NewValidationError("audit", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TransitionGuard{
		store:        taskStore,
		audit:        audit,
		writeTimeout: writeTimeout,
		logger:       logger.With(slog.String("component", "transition_guard")),
	}, nil
}

// ApplyTransition moves task to the target status.
//
// An edge missing from the transition table fails with
// *domain.IllegalTransitionError and nothing is written. Asking for the
// status the task already has succeeds without writing or recording
// anything. Otherwise the status is written with a conditional update keyed
// on the task's current status; if another writer got there first the call
// fails with domain.ErrConcurrentModification. Each applied transition
// records exactly one audit event.
func (g *TransitionGuard) ApplyTransition(
	ctx context.Context,
	task *domain.Task,
	to domain.Status,
	actorID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, g.logger).With(
		slog.String("task_id", task.ID.String()),
		slog.String("from", string(task.Status)),
		slog.String("to", string(to)),
	)

	if !to.IsValid() {
		log.Error("transition requested to unknown status")
		return nil, &domain.InvalidStatusError{Value: string(to)}
	}
	if !task.Status.IsValid() {
		log.Error("task carries unknown status")
		return nil, &domain.InvalidStatusError{Value: string(task.Status)}
	}

	from := task.Status
	if from == to {
		log.Debug("identity transition, nothing to write")
		return task.Clone(), nil
	}

	if !domain.CanTransition(from, to) {
		log.Info("illegal transition refused")
		return nil, domain.NewIllegalTransitionError(from, to)
	}

	now := time.Now().UTC()
	var applied bool
	err := withWriteTimeout(ctx, g.writeTimeout, "update status", func(ctx context.Context) error {
		var err error
		applied, err = g.store.ConditionalUpdateStatus(ctx, task.ID, from, to, now)
		return err
	})
	if err != nil {
		log.Error("status write failed", slog.String("error", err.Error()))
		return nil, err
	}
	if !applied {
		log.Warn("status changed underneath transition")
		return nil, domain.ErrConcurrentModification
	}

	updated := task.Clone()
	updated.Status = to
	updated.UpdatedAt = now

	event := domain.NewAuditEvent(task.ID, from, to, actorID)
	if err := g.audit.Record(ctx, event); err != nil {
		metrics.RecordAuditFailure()
		log.Error("failed to record audit event",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}

	log.Info("task status transitioned", slog.String("actor_id", actorID.String()))
	return updated, nil
}

// RejectDirectStatusWrite fails with *domain.ForbiddenFieldError when a
// generic update payload carries a status key, whatever its value.
func RejectDirectStatusWrite(payload map[string]json.RawMessage) error {
	if _, ok := statusKey(payload); ok {
		metrics.RecordForbiddenStatusWrite("field_update")
		return &domain.ForbiddenFieldError{Field: statusField}
	}
	return nil
}

// EnforceCreationStatus returns the status a new task is stored with, which
// is always todo. A status supplied in the creation payload is ignored; a
// non-todo value is logged as a warning.
func EnforceCreationStatus(ctx context.Context, payload map[string]json.RawMessage) domain.Status {
	raw, ok := statusKey(payload)
	if !ok {
		return domain.StatusTodo
	}

	var requested string
	if err := json.Unmarshal(raw, &requested); err != nil || requested != string(domain.StatusTodo) {
		metrics.RecordForbiddenStatusWrite("create")
		logger.FromContext(ctx).Warn("ignoring status supplied at task creation",
			slog.String("requested_status", string(raw)),
			slog.String("stored_status", string(domain.StatusTodo)))
	}

	return domain.StatusTodo
}

// statusKey finds the status key the way encoding/json matches struct
// fields, ignoring case.
func statusKey(payload map[string]json.RawMessage) (json.RawMessage, bool) {
	if raw, ok := payload[statusField]; ok {
		return raw, true
	}
	for key, raw := range payload {
		if strings.EqualFold(key, statusField) {
			return raw, true
		}
	}
	return nil, false
}
