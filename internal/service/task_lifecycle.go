package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/platform/metrics"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// Operation names, used in logs and as the metrics "operation" label.
const (
	OpStart        = "start"
	OpSubmitReview = "submit_review"
	OpApprove      = "approve"
	OpReject       = "reject"
	OpComplete     = "complete"
	OpReopen       = "reopen"
	OpUpdateStatus = "update_status"
	OpBatchUpdate  = "batch_update_status"
)

// lifecycleEdge is the fixed (required from, to) pair of a named operation.
type lifecycleEdge struct {
	from domain.Status
	to   domain.Status
}

var lifecycleEdges = map[string]lifecycleEdge{
	OpStart:        {from: domain.StatusTodo, to: domain.StatusInProgress},
	OpSubmitReview: {from: domain.StatusInProgress, to: domain.StatusReview},
	OpApprove:      {from: domain.StatusReview, to: domain.StatusDone},
	OpReject:       {from: domain.StatusReview, to: domain.StatusInProgress},
	OpComplete:     {from: domain.StatusInProgress, to: domain.StatusDone},
	OpReopen:       {from: domain.StatusDone, to: domain.StatusInProgress},
}

// CreateTaskInput carries the data for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	ParentID    *uuid.UUID

	// Fields holds the raw request fields, when the caller has them. It is
	// only inspected for a supplied status, which never reaches storage.
	Fields map[string]json.RawMessage
}

// BatchResult is the outcome of one task in a batch status update.
// Exactly one of Task and Err is set.
type BatchResult struct {
	TaskID uuid.UUID
	Task   *domain.Task
	Err    error
}

// LifecycleConfig holds tuning options for the lifecycle service.
type LifecycleConfig struct {
	// WriteTimeout bounds every store call. Zero disables the bound.
	WriteTimeout time.Duration

	// BatchWorkers is the maximum number of batch items processed at once.
	BatchWorkers int

	// BatchMaxSize is the largest accepted batch. Zero means unlimited.
	BatchMaxSize int
}

// TaskLifecycleService exposes one operation per lifecycle action plus the
// generic entry points, all of which route status changes through the
// TransitionGuard.
type TaskLifecycleService interface {
	// Start moves a task from todo to in_progress.
	Start(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error)

	// SubmitReview moves a task from in_progress to review.
	SubmitReview(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error)

	// Approve moves a task from review to done.
	Approve(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error)

	// Reject moves a task from review back to in_progress.
	Reject(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error)

	// Complete moves a task from in_progress straight to done.
	Complete(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error)

	// Reopen moves a task from done back to in_progress.
	Reopen(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error)

	// UpdateStatus applies any transition the table allows.
	UpdateStatus(ctx context.Context, taskID uuid.UUID, to domain.Status, actorID uuid.UUID) (*domain.Task, error)

	// BatchUpdateStatus applies UpdateStatus to every task independently.
	// Results are in input order. The returned error only reports a batch
	// that was refused as a whole.
	BatchUpdateStatus(ctx context.Context, taskIDs []uuid.UUID, to domain.Status, actorID uuid.UUID) ([]BatchResult, error)

	// CreateTask stores a new task in the todo status.
	CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error)

	// UpdateTask changes non-status fields of a task.
	UpdateTask(ctx context.Context, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// GetTask retrieves a task by its ID.
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// ListAuditEvents returns the transitions recorded for a task, oldest first.
	ListAuditEvents(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditEvent, error)

	// Close stops the batch worker pool after running tasks finish.
	Close()
}

// taskLifecycleServiceImpl implements the TaskLifecycleService interface
type taskLifecycleServiceImpl struct {
	tasks  store.TaskStore
	audits store.AuditStore
	guard  *TransitionGuard
	pool   pond.Pool
	config LifecycleConfig
	logger *slog.Logger
}

// NewTaskLifecycleService creates a new TaskLifecycleService.
// It returns an error if any of the required dependencies are nil.
func NewTaskLifecycleService(
	tasks store.TaskStore,
	audits store.AuditStore,
	guard *TransitionGuard,
	config LifecycleConfig,
	logger *slog.Logger,
) (TaskLifecycleService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if audits == nil {
		return nil, domain.NewValidationError("audits", "cannot be nil", domain.ErrValidation)
	}
	if guard == nil {
		return nil, domain.NewValidationError("guard", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchWorkers <= 0 {
		config.BatchWorkers = 1
	}

	return &taskLifecycleServiceImpl{
		tasks:  tasks,
		audits: audits,
		guard:  guard,
		pool:   pond.NewPool(config.BatchWorkers),
		config: config,
		logger: logger.With(slog.String("component", "task_lifecycle_service")),
	}, nil
}

// Start implements TaskLifecycleService.Start
func (s *taskLifecycleServiceImpl) Start(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return s.runLifecycleOp(ctx, OpStart, taskID, actorID)
}

// SubmitReview implements TaskLifecycleService.SubmitReview
func (s *taskLifecycleServiceImpl) SubmitReview(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return s.runLifecycleOp(ctx, OpSubmitReview, taskID, actorID)
}

// Approve implements TaskLifecycleService.Approve
func (s *taskLifecycleServiceImpl) Approve(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return s.runLifecycleOp(ctx, OpApprove, taskID, actorID)
}

// Reject implements TaskLifecycleService.Reject
func (s *taskLifecycleServiceImpl) Reject(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return s.runLifecycleOp(ctx, OpReject, taskID, actorID)
}

// Complete implements TaskLifecycleService.Complete
func (s *taskLifecycleServiceImpl) Complete(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return s.runLifecycleOp(ctx, OpComplete, taskID, actorID)
}

// Reopen implements TaskLifecycleService.Reopen
func (s *taskLifecycleServiceImpl) Reopen(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error) {
	return s.runLifecycleOp(ctx, OpReopen, taskID, actorID)
}

// runLifecycleOp re-reads the task and refuses unless it sits in the
// operation's required from status, reporting the actual current status.
func (s *taskLifecycleServiceImpl) runLifecycleOp(
	ctx context.Context,
	op string,
	taskID, actorID uuid.UUID,
) (*domain.Task, error) {
	edge := lifecycleEdges[op]
	start := time.Now()

	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, s.recordOutcome(ctx, op, nil, err, start)
	}

	if task.Status != edge.from {
		err := domain.NewIllegalTransitionError(task.Status, edge.to)
		return nil, s.recordOutcome(ctx, op, nil, err, start)
	}

	updated, err := s.guard.ApplyTransition(ctx, task, edge.to, actorID)
	return updated, s.recordOutcome(ctx, op, transitionLabels(task.Status, updated), err, start)
}

// UpdateStatus implements TaskLifecycleService.UpdateStatus
func (s *taskLifecycleServiceImpl) UpdateStatus(
	ctx context.Context,
	taskID uuid.UUID,
	to domain.Status,
	actorID uuid.UUID,
) (*domain.Task, error) {
	return s.updateStatus(ctx, OpUpdateStatus, taskID, to, actorID)
}

func (s *taskLifecycleServiceImpl) updateStatus(
	ctx context.Context,
	op string,
	taskID uuid.UUID,
	to domain.Status,
	actorID uuid.UUID,
) (*domain.Task, error) {
	start := time.Now()

	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, s.recordOutcome(ctx, op, nil, err, start)
	}

	updated, err := s.guard.ApplyTransition(ctx, task, to, actorID)
	return updated, s.recordOutcome(ctx, op, transitionLabels(task.Status, updated), err, start)
}

// BatchUpdateStatus implements TaskLifecycleService.BatchUpdateStatus
func (s *taskLifecycleServiceImpl) BatchUpdateStatus(
	ctx context.Context,
	taskIDs []uuid.UUID,
	to domain.Status,
	actorID uuid.UUID,
) ([]BatchResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !to.IsValid() {
		return nil, &domain.InvalidStatusError{Value: string(to)}
	}
	if s.config.BatchMaxSize > 0 && len(taskIDs) > s.config.BatchMaxSize {
		log.Warn("batch refused",
			slog.Int("size", len(taskIDs)),
			slog.Int("max_size", s.config.BatchMaxSize))
		return nil, ErrBatchTooLarge
	}

	results := make([]BatchResult, len(taskIDs))
	tasks := make([]pond.Task, len(taskIDs))

	for i, id := range taskIDs {
		results[i].TaskID = id
		tasks[i] = s.pool.Submit(func() {
			// Items that reach a worker after cancellation are not attempted.
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i].Task, results[i].Err = s.updateStatus(ctx, OpBatchUpdate, id, to, actorID)
		})
	}

	for i, task := range tasks {
		if err := task.Wait(); err != nil && results[i].Task == nil && results[i].Err == nil {
			results[i].Err = NewTaskServiceError(OpBatchUpdate, "worker pool rejected item", err)
		}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	log.Info("batch status update finished",
		slog.String("to", string(to)),
		slog.Int("size", len(taskIDs)),
		slog.Int("failed", failed))

	return results, nil
}

// CreateTask implements TaskLifecycleService.CreateTask
func (s *taskLifecycleServiceImpl) CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	status := EnforceCreationStatus(ctx, input.Fields)

	task, err := domain.NewTask(input.Title, input.Description, input.ParentID)
	if err != nil {
		return nil, domain.NewValidationError("task", err.Error(), errors.Join(domain.ErrValidation, err))
	}
	task.Status = status

	err = withWriteTimeout(ctx, s.config.WriteTimeout, "create task", func(ctx context.Context) error {
		return s.tasks.Create(ctx, task)
	})
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return task, nil
}

// UpdateTask implements TaskLifecycleService.UpdateTask
func (s *taskLifecycleServiceImpl) UpdateTask(
	ctx context.Context,
	taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if update.IsEmpty() {
		return nil, ErrEmptyUpdate
	}

	var updated *domain.Task
	err := withWriteTimeout(ctx, s.config.WriteTimeout, "update task", func(ctx context.Context) error {
		var err error
		updated, err = s.tasks.UpdateFields(ctx, taskID, func(task *domain.Task) error {
			if err := update.Apply(task); err != nil {
				return domain.NewValidationError("title", err.Error(), errors.Join(domain.ErrValidation, err))
			}
			return nil
		})
		return err
	})
	if err != nil {
		log.Debug("task field update failed",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	return updated, nil
}

// GetTask implements TaskLifecycleService.GetTask
func (s *taskLifecycleServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	var task *domain.Task
	err := withWriteTimeout(ctx, s.config.WriteTimeout, "get task", func(ctx context.Context) error {
		var err error
		task, err = s.tasks.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		var invalid *domain.InvalidStatusError
		if errors.As(err, &invalid) {
			logger.FromContextOrDefault(ctx, s.logger).Error("stored task has unknown status",
				slog.String("task_id", taskID.String()),
				slog.String("status", invalid.Value))
		}
		return nil, err
	}
	return task, nil
}

// ListAuditEvents implements TaskLifecycleService.ListAuditEvents
func (s *taskLifecycleServiceImpl) ListAuditEvents(ctx context.Context, taskID uuid.UUID) ([]*domain.AuditEvent, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	var list []*domain.AuditEvent
	err := withWriteTimeout(ctx, s.config.WriteTimeout, "list audit events", func(ctx context.Context) error {
		var err error
		list, err = s.audits.ListByTask(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Close implements TaskLifecycleService.Close
func (s *taskLifecycleServiceImpl) Close() {
	s.pool.StopAndWait()
}

type transitionLabelPair struct {
	from, to string
}

func transitionLabels(from domain.Status, updated *domain.Task) *transitionLabelPair {
	if updated == nil || updated.Status == from {
		return nil
	}
	return &transitionLabelPair{from: string(from), to: string(updated.Status)}
}

// recordOutcome updates the transition metrics and passes err through.
func (s *taskLifecycleServiceImpl) recordOutcome(
	ctx context.Context,
	op string,
	labels *transitionLabelPair,
	err error,
	start time.Time,
) error {
	metrics.ObserveTransitionDuration(op, time.Since(start))

	if err != nil {
		metrics.RecordTransitionFailure(op, failureReason(err))
		return err
	}
	if labels != nil {
		metrics.RecordTransition(op, labels.from, labels.to)
	}
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrIllegalTransition):
		return metrics.ReasonIllegalTransition
	case errors.Is(err, domain.ErrConcurrentModification):
		return metrics.ReasonConcurrentModification
	case errors.Is(err, store.ErrNotFound):
		return metrics.ReasonNotFound
	case errors.Is(err, ErrPersistenceTimeout):
		return metrics.ReasonTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ReasonCanceled
	default:
		return metrics.ReasonInternal
	}
}
