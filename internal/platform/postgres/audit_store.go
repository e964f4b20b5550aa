package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// PostgresAuditStore implements store.AuditStore on the task_audit_events table.
type PostgresAuditStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAuditStore creates a new PostgresAuditStore.
func NewPostgresAuditStore(db store.DBTX, logger *slog.Logger) *PostgresAuditStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAuditStore{
		db:     db,
		logger: logger.With(slog.String("component", "audit_store")),
	}
}

var _ store.AuditStore = (*PostgresAuditStore)(nil)

// Append implements store.AuditStore.Append.
func (s *PostgresAuditStore) Append(ctx context.Context, event *domain.AuditEvent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_audit_events (id, task_id, from_status, to_status, actor_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		event.ID,
		event.TaskID,
		string(event.FromStatus),
		string(event.ToStatus),
		event.ActorID,
		event.Timestamp,
	)
	if err != nil {
		mapped := MapError(err)
		log.Error("failed to append audit event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("task_id", event.TaskID.String()))
		return mapped
	}

	return nil
}

// ListByTask implements store.AuditStore.ListByTask.
func (s *PostgresAuditStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditEvent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, from_status, to_status, actor_id, occurred_at
		FROM task_audit_events
		WHERE task_id = $1
		ORDER BY occurred_at ASC, id ASC
	`, taskID)
	if err != nil {
		log.Error("failed to query audit events",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	events := []*domain.AuditEvent{}
	for rows.Next() {
		var (
			event    domain.AuditEvent
			from, to string
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &from, &to, &event.ActorID, &event.Timestamp); err != nil {
			return nil, err
		}
		if event.FromStatus, err = domain.ParseStatus(from); err != nil {
			return nil, err
		}
		if event.ToStatus, err = domain.ParseStatus(to); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning audit rows", slog.String("error", err.Error()))
		return nil, err
	}

	return events, nil
}
