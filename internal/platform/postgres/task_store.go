package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/store"
)

const taskColumns = `id, parent_id, title, description, status, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create.
// The status column is left out of the INSERT so the column default ('todo')
// decides it; the stored value is read back into task.Status.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, parent_id, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING status
	`

	var status string
	err := s.db.QueryRowContext(
		ctx,
		query,
		task.ID,
		nullableUUID(task.ParentID),
		task.Title,
		task.Description,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&status)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("parent task not found during task creation",
				slog.String("task_id", task.ID.String()))
			return store.ErrParentTaskNotFound
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	parsed, err := domain.ParseStatus(status)
	if err != nil {
		log.Error("database returned unknown status for new task",
			slog.String("task_id", task.ID.String()),
			slog.String("status", status))
		return err
	}
	task.Status = parsed

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// UpdateFields implements store.TaskStore.UpdateFields.
// When the store wraps a *sql.DB the read and write run in their own
// transaction; when it already wraps a transaction they join it.
func (s *PostgresTaskStore) UpdateFields(
	ctx context.Context,
	id uuid.UUID,
	mutate store.TaskMutator,
) (*domain.Task, error) {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return s.updateFields(ctx, s.db, id, mutate)
	}

	var updated *domain.Task
	err := store.RunInTransaction(ctx, db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		updated, err = s.updateFields(ctx, tx, id, mutate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresTaskStore) updateFields(
	ctx context.Context,
	db store.DBTX,
	id uuid.UUID,
	mutate store.TaskMutator,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`

	task, err := scanTask(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}

	originalStatus := task.Status
	if err := mutate(task); err != nil {
		return nil, err
	}
	if task.Status != originalStatus {
		log.Error("field update attempted to change task status",
			slog.String("task_id", id.String()),
			slog.String("from", string(originalStatus)),
			slog.String("to", string(task.Status)))
		return nil, &domain.ForbiddenFieldError{Field: "status"}
	}

	result, err := db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, updated_at = $3
		WHERE id = $4
	`, task.Title, task.Description, task.UpdatedAt, id)
	if err != nil {
		log.Error("failed to update task fields",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return nil, store.ErrTaskNotFound
	}

	log.Debug("task fields updated", slog.String("task_id", id.String()))
	return task, nil
}

// ConditionalUpdateStatus implements store.TaskStore.ConditionalUpdateStatus.
// The status check and the write are one statement, so two writers racing
// from the same expected status cannot both succeed.
func (s *PostgresTaskStore) ConditionalUpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expectedFrom, to domain.Status,
	updatedAt time.Time,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, string(to), updatedAt, id, string(expectedFrom))
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("from", string(expectedFrom)),
			slog.String("to", string(to)))
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	applied := rowsAffected == 1
	log.Debug("conditional status update",
		slog.String("task_id", id.String()),
		slog.String("from", string(expectedFrom)),
		slog.String("to", string(to)),
		slog.Bool("applied", applied))
	return applied, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		parentID uuid.NullUUID
		status   string
	)

	if err := row.Scan(
		&task.ID,
		&parentID,
		&task.Title,
		&task.Description,
		&status,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	task.Status = parsed

	if parentID.Valid {
		id := parentID.UUID
		task.ParentID = &id
	}

	return &task, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
