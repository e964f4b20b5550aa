package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// TaskMutator changes non-status fields of a task in place.
type TaskMutator func(task *domain.Task) error

// TaskStore defines the interface for task persistence.
// Implementations never expose an unconditional status write: the only way
// to change a stored status is ConditionalUpdateStatus.
type TaskStore interface {
	// Create saves a new task. The stored status is always todo regardless of
	// what the task carries; task.Status is set to the stored value.
	// Returns ErrParentTaskNotFound if the parent does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateFields atomically loads the task, applies mutate, and persists the
	// title, description and updated_at columns. The status column is never written.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateFields(ctx context.Context, id uuid.UUID, mutate TaskMutator) (*domain.Task, error)

	// ConditionalUpdateStatus sets the status to `to` and updated_at to updatedAt
	// only if the stored status still equals expectedFrom. It reports whether
	// the write was applied.
	ConditionalUpdateStatus(
		ctx context.Context,
		id uuid.UUID,
		expectedFrom, to domain.Status,
		updatedAt time.Time,
	) (bool, error)
}
