package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service"
)

const taskIDParam = "id"

// TaskHandlerOptions toggles optional task endpoints.
type TaskHandlerOptions struct {
	// EnableGenericStatusEndpoint mounts PATCH /tasks/{id}/status.
	EnableGenericStatusEndpoint bool
}

// TaskHandler handles task lifecycle HTTP requests.
type TaskHandler struct {
	service service.TaskLifecycleService
	options TaskHandlerOptions
	logger  *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(
	svc service.TaskLifecycleService,
	options TaskHandlerOptions,
	logger *slog.Logger,
) *TaskHandler {
	if svc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task lifecycle service cannot be nil for TaskHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		service: svc,
		options: options,
		logger:  logger.With(slog.String("component", "task_handler")),
	}
}

// Mount registers the task routes on r. Authentication is applied by the caller.
func (h *TaskHandler) Mount(r chi.Router) {
	r.Get("/statuses", h.ListStatuses)

	r.Post("/tasks", h.CreateTask)
	r.Post("/tasks/batch-status", h.BatchUpdateStatus)

	r.Route("/tasks/{id}", func(r chi.Router) {
		r.Get("/", h.GetTask)
		r.Patch("/", h.UpdateTask)
		r.Get("/audit", h.ListAuditEvents)

		r.Post("/start", h.Start)
		r.Post("/submit-review", h.SubmitReview)
		r.Post("/approve", h.Approve)
		r.Post("/reject", h.Reject)
		r.Post("/complete", h.Complete)
		r.Post("/reopen", h.Reopen)

		if h.options.EnableGenericStatusEndpoint {
			r.Patch("/status", h.UpdateStatus)
		}
	})
}

type lifecycleFunc func(ctx context.Context, taskID, actorID uuid.UUID) (*domain.Task, error)

// Start handles POST /tasks/{id}/start
func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, service.OpStart, h.service.Start)
}

// SubmitReview handles POST /tasks/{id}/submit-review
func (h *TaskHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, service.OpSubmitReview, h.service.SubmitReview)
}

// Approve handles POST /tasks/{id}/approve
func (h *TaskHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, service.OpApprove, h.service.Approve)
}

// Reject handles POST /tasks/{id}/reject
func (h *TaskHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, service.OpReject, h.service.Reject)
}

// Complete handles POST /tasks/{id}/complete
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, service.OpComplete, h.service.Complete)
}

// Reopen handles POST /tasks/{id}/reopen
func (h *TaskHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.runLifecycle(w, r, service.OpReopen, h.service.Reopen)
}

func (h *TaskHandler) runLifecycle(w http.ResponseWriter, r *http.Request, op string, fn lifecycleFunc) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actorID, taskID, ok := handleActorAndPathUUID(w, r, taskIDParam, log)
	if !ok {
		return
	}

	task, err := fn(r.Context(), taskID, actorID)
	if err != nil {
		log.Debug("lifecycle operation failed",
			slog.String("operation", op),
			slog.String("task_id", taskID.String()))
		HandleAPIError(w, r, err, "Failed to update task status")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateStatus handles PATCH /tasks/{id}/status
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actorID, taskID, ok := handleActorAndPathUUID(w, r, taskIDParam, log)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		handleValidationError(w, r, err)
		return
	}

	to, err := domain.ParseStatus(req.Status)
	if err != nil {
		handleValidationError(w, r, err)
		return
	}

	task, err := h.service.UpdateStatus(r.Context(), taskID, to, actorID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task status")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// BatchUpdateStatus handles POST /tasks/batch-status. Each task succeeds or
// fails on its own; the response lists every outcome in request order.
func (h *TaskHandler) BatchUpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actorID, ok := shared.ActorIDFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req BatchStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		handleValidationError(w, r, err)
		return
	}

	to, err := domain.ParseStatus(req.Status)
	if err != nil {
		handleValidationError(w, r, err)
		return
	}

	results, err := h.service.BatchUpdateStatus(r.Context(), req.TaskIDs, to, actorID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task statuses")
		return
	}

	resp := batchResultsToResponse(results)
	log.Info("batch status update finished",
		slog.String("to", string(to)),
		slog.Int("succeeded", resp.Succeeded),
		slog.Int("failed", resp.Failed))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// CreateTask handles POST /tasks. A status in the payload is tolerated but
// never stored; new tasks start in todo.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if _, ok := shared.ActorIDFromContext(r.Context()); !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	body, err := shared.ReadBody(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	var req CreateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		handleValidationError(w, r, err)
		return
	}

	task, err := h.service.CreateTask(r.Context(), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ParentID:    req.ParentID,
		Fields:      fields,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// UpdateTask handles PATCH /tasks/{id}. The payload is checked for a status
// key before anything else is decoded; status only changes through the
// transition endpoints.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, taskID, ok := handleActorAndPathUUID(w, r, taskIDParam, log)
	if !ok {
		return
	}

	body, err := shared.ReadBody(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := service.RejectDirectStatusWrite(fields); err != nil {
		log.Warn("rejected direct status write", slog.String("task_id", taskID.String()))
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeStrict(body, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		handleValidationError(w, r, err)
		return
	}

	task, err := h.service.UpdateTask(r.Context(), taskID, domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// GetTask handles GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, taskID, ok := handleActorAndPathUUID(w, r, taskIDParam, log)
	if !ok {
		return
	}

	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListAuditEvents handles GET /tasks/{id}/audit
func (h *TaskHandler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, taskID, ok := handleActorAndPathUUID(w, r, taskIDParam, log)
	if !ok {
		return
	}

	events, err := h.service.ListAuditEvents(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list audit events")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, auditEventsToResponse(events))
}

// ListStatuses handles GET /statuses
func (h *TaskHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, statusCatalogue())
}
