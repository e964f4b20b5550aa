package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent records a single committed status transition.
// Events are created once per non-identity transition and never modified.
type AuditEvent struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"task_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewAuditEvent creates an AuditEvent stamped with the current UTC time.
func NewAuditEvent(taskID uuid.UUID, from, to Status, actorID uuid.UUID) *AuditEvent {
	return &AuditEvent{
		ID:         uuid.New(),
		TaskID:     taskID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Timestamp:  time.Now().UTC(),
	}
}
