package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
)

// AuditStore persists status transition events. It is append-only.
type AuditStore interface {
	// Append stores a new audit event. Appending an event whose ID already
	// exists returns ErrDuplicate, which makes redelivery safe.
	Append(ctx context.Context, event *domain.AuditEvent) error

	// ListByTask returns the events for a task ordered oldest first.
	// Returns an empty slice if there are none.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditEvent, error)
}
