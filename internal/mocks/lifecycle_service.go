package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// MockTaskLifecycleService implements service.TaskLifecycleService for
// handler tests. TransitionFn, when set, backs all six named operations and
// receives the operation name.
type MockTaskLifecycleService struct {
	TransitionFn        func(ctx context.Context, op string, taskID, actorID uuid.UUID) (*domain.Task, error)
	UpdateStatusFn      func(ctx context.Context, taskID uuid.UUID, to domain.Status, actorID uuid.UUID) (*domain.Task, error)
	BatchUpdateStatusFn func(ctx context.Context, taskIDs []uuid.UUID, to domain.Status, actorID uuid.UUID) ([]service.BatchResult, error)
	CreateTaskFn        func(ctx context.Context, input service.CreateTaskInput) (*domain.Task, error)
	UpdateTaskFn        func(ctx context.Context, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)
	GetTaskFn           func(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)
	ListAuditEventsFn   func(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditEvent, error)

	// Calls records the name of every method invoked, in order.
	Calls []string
}

var _ service.TaskLifecycleService = (*MockTaskLifecycleService)(nil)

func (m *MockTaskLifecycleService) transition(
	ctx context.Context,
	op string,
	taskID, actorID uuid.UUID,
) (*domain.Task, error) {
	m.Calls = append(m.Calls, op)
	if m.TransitionFn != nil {
		return m.TransitionFn(ctx, op, taskID, actorID)
	}
	return nil, domain.ErrUnauthorized
}

// Start implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) Start(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return m.transition(ctx, service.OpStart, taskID, actorID)
}

// SubmitReview implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) SubmitReview(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return m.transition(ctx, service.OpSubmitReview, taskID, actorID)
}

// Approve implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) Approve(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return m.transition(ctx, service.OpApprove, taskID, actorID)
}

// Reject implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) Reject(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return m.transition(ctx, service.OpReject, taskID, actorID)
}

// Complete implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) Complete(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return m.transition(ctx, service.OpComplete, taskID, actorID)
}

// Reopen implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) Reopen(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return m.transition(ctx, service.OpReopen, taskID, actorID)
}

// UpdateStatus implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) UpdateStatus(
	ctx context.Context,
	taskID uuid.UUID,
	to domain.Status,
	actorID uuid.UUID,
) (*domain.Task, error) {
	m.Calls = append(m.Calls, service.OpUpdateStatus)
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, taskID, to, actorID)
	}
	return nil, domain.ErrUnauthorized
}

// BatchUpdateStatus implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) BatchUpdateStatus(
	ctx context.Context,
	taskIDs []uuid.UUID,
	to domain.Status,
	actorID uuid.UUID,
) ([]service.BatchResult, error) {
	m.Calls = append(m.Calls, service.OpBatchUpdate)
	if m.BatchUpdateStatusFn != nil {
		return m.BatchUpdateStatusFn(ctx, taskIDs, to, actorID)
	}
	return nil, domain.ErrUnauthorized
}

// CreateTask implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) CreateTask(ctx context.Context, input service.CreateTaskInput) (*domain.Task, error) {
	m.Calls = append(m.Calls, "create_task")
	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, input)
	}
	return nil, domain.ErrUnauthorized
}

// UpdateTask implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) UpdateTask(
	ctx context.Context,
	taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	m.Calls = append(m.Calls, "update_task")
	if m.UpdateTaskFn != nil {
		return m.UpdateTaskFn(ctx, taskID, update)
	}
	return nil, domain.ErrUnauthorized
}

// GetTask implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	m.Calls = append(m.Calls, "get_task")
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, taskID)
	}
	return nil, domain.ErrUnauthorized
}

// ListAuditEvents implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) ListAuditEvents(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditEvent, error) {
	m.Calls = append(m.Calls, "list_audit_events")
	if m.ListAuditEventsFn != nil {
		return m.ListAuditEventsFn(ctx, taskID)
	}
	return nil, domain.ErrUnauthorized
}

// Close implements service.TaskLifecycleService.
func (m *MockTaskLifecycleService) Close() {}
