package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// AuditRecorder collects audit events in memory. It serves both as an
// events.AuditTrail (Record) and as a store.AuditStore (Append, ListByTask).
type AuditRecorder struct {
	// Err, when set, is returned by Record and Append after the event is kept.
	Err error

	mu     sync.Mutex
	events []*domain.AuditEvent
}

// NewAuditRecorder creates an empty recorder.
func NewAuditRecorder() *AuditRecorder {
	return &AuditRecorder{}
}

var _ store.AuditStore = (*AuditRecorder)(nil)

// Record stores the event.
func (r *AuditRecorder) Record(ctx context.Context, event *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *event
	r.events = append(r.events, &copied)
	return r.Err
}

// Append implements store.AuditStore.
func (r *AuditRecorder) Append(ctx context.Context, event *domain.AuditEvent) error {
	r.mu.Lock()
	for _, e := range r.events {
		if e.ID == event.ID {
			r.mu.Unlock()
			return store.ErrDuplicate
		}
	}
	r.mu.Unlock()
	return r.Record(ctx, event)
}

// ListByTask implements store.AuditStore.
func (r *AuditRecorder) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*domain.AuditEvent{}
	for _, e := range r.events {
		if e.TaskID == taskID {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Events returns a copy of everything recorded so far.
func (r *AuditRecorder) Events() []*domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuditEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *AuditRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
