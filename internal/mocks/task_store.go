package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// MockTaskStore implements store.TaskStore in memory.
// ConditionalUpdateStatus compares and writes under a mutex, giving the same
// guarantee as the Postgres "WHERE status = $expected" update.
type MockTaskStore struct {
	// Function fields for customizable behavior
	CreateFn                  func(ctx context.Context, task *domain.Task) error
	GetByIDFn                 func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateFieldsFn            func(ctx context.Context, id uuid.UUID, mutate store.TaskMutator) (*domain.Task, error)
	ConditionalUpdateStatusFn func(ctx context.Context, id uuid.UUID, expectedFrom, to domain.Status, updatedAt time.Time) (bool, error)

	mu          sync.Mutex
	tasks       map[uuid.UUID]*domain.Task
	statusCalls int
}

// NewMockTaskStore creates a new mock store holding copies of the given tasks.
func NewMockTaskStore(tasks ...*domain.Task) *MockTaskStore {
	m := &MockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
	for _, t := range tasks {
		m.tasks[t.ID] = t.Clone()
	}
	return m
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// Put inserts or replaces a task without any checks. Test setup only.
func (m *MockTaskStore) Put(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task.Clone()
}

// Status returns the stored status of a task, or "" if it is unknown.
func (m *MockTaskStore) Status(id uuid.UUID) domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		return t.Status
	}
	return ""
}

// StatusWriteCalls returns how many times ConditionalUpdateStatus was invoked.
func (m *MockTaskStore) StatusWriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if task.ParentID != nil {
		if _, ok := m.tasks[*task.ParentID]; !ok {
			return store.ErrParentTaskNotFound
		}
	}
	if _, exists := m.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}

	task.Status = domain.StatusTodo
	m.tasks[task.ID] = task.Clone()
	return nil
}

// GetByID implements store.TaskStore.
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// UpdateFields implements store.TaskStore.
func (m *MockTaskStore) UpdateFields(
	ctx context.Context,
	id uuid.UUID,
	mutate store.TaskMutator,
) (*domain.Task, error) {
	if m.UpdateFieldsFn != nil {
		return m.UpdateFieldsFn(ctx, id, mutate)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}

	working := t.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	if working.Status != t.Status {
		return nil, &domain.ForbiddenFieldError{Field: "status"}
	}

	m.tasks[id] = working
	return working.Clone(), nil
}

// ConditionalUpdateStatus implements store.TaskStore.
func (m *MockTaskStore) ConditionalUpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expectedFrom, to domain.Status,
	updatedAt time.Time,
) (bool, error) {
	m.mu.Lock()
	m.statusCalls++
	m.mu.Unlock()

	if m.ConditionalUpdateStatusFn != nil {
		return m.ConditionalUpdateStatusFn(ctx, id, expectedFrom, to, updatedAt)
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.Status != expectedFrom {
		return false, nil
	}
	t.Status = to
	t.UpdatedAt = updatedAt
	return true, nil
}
