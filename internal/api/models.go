package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/service"
)

// UpdateStatusRequest is the payload of PATCH /tasks/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=todo in_progress review done"`
}

// BatchStatusRequest is the payload of POST /tasks/batch-status.
type BatchStatusRequest struct {
	TaskIDs []uuid.UUID `json:"task_ids" validate:"required,min=1"`
	Status  string      `json:"status"   validate:"required,oneof=todo in_progress review done"`
}

// CreateTaskRequest is the payload of POST /tasks. It has no status field;
// new tasks always start in todo.
type CreateTaskRequest struct {
	Title       string     `json:"title"               validate:"required,max=500"`
	Description string     `json:"description"         validate:"max=10000"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

// UpdateTaskRequest is the payload of PATCH /tasks/{id}. Absent fields are
// left unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"       validate:"omitempty,max=500"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
}

// TaskResponse is the JSON shape of a task.
type TaskResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ParentID           *uuid.UUID `json:"parent_id,omitempty"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	StatusLabel        string     `json:"status_label"`
	AllowedTransitions []string   `json:"allowed_transitions"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// AuditEventResponse is the JSON shape of one recorded transition.
type AuditEventResponse struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"task_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// BatchResultResponse is the outcome for one task of a batch update.
type BatchResultResponse struct {
	TaskID  uuid.UUID     `json:"task_id"`
	Success bool          `json:"success"`
	Task    *TaskResponse `json:"task,omitempty"`
	Error   string        `json:"error,omitempty"`
	Code    int           `json:"code,omitempty"`
}

// BatchStatusResponse is the response of POST /tasks/batch-status.
type BatchStatusResponse struct {
	Results   []BatchResultResponse `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// StatusResponse describes one status of the lifecycle.
type StatusResponse struct {
	Status      string   `json:"status"`
	Label       string   `json:"label"`
	Transitions []string `json:"transitions"`
}

// StatusCatalogueResponse is the response of GET /statuses.
type StatusCatalogueResponse struct {
	Initial  string           `json:"initial"`
	Statuses []StatusResponse `json:"statuses"`
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:                 task.ID,
		ParentID:           task.ParentID,
		Title:              task.Title,
		Description:        task.Description,
		Status:             string(task.Status),
		StatusLabel:        domain.Label(task.Status),
		AllowedTransitions: statusStrings(domain.PermittedTargets(task.Status)),
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}
}

func auditEventsToResponse(events []*domain.AuditEvent) []AuditEventResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, AuditEventResponse{
			ID:         e.ID,
			TaskID:     e.TaskID,
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			ActorID:    e.ActorID,
			Timestamp:  e.Timestamp,
		})
	}
	return out
}

func batchResultsToResponse(results []service.BatchResult) BatchStatusResponse {
	resp := BatchStatusResponse{Results: make([]BatchResultResponse, 0, len(results))}
	for _, res := range results {
		item := BatchResultResponse{TaskID: res.TaskID}
		if res.Err != nil {
			item.Error = GetSafeErrorMessage(res.Err)
			item.Code = MapErrorToStatusCode(res.Err)
			resp.Failed++
		} else {
			task := taskToResponse(res.Task)
			item.Success = true
			item.Task = &task
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

func statusCatalogue() StatusCatalogueResponse {
	all := domain.AllStatuses()
	resp := StatusCatalogueResponse{
		Initial:  string(domain.StatusTodo),
		Statuses: make([]StatusResponse, 0, len(all)),
	}
	for _, s := range all {
		resp.Statuses = append(resp.Statuses, StatusResponse{
			Status:      string(s),
			Label:       domain.Label(s),
			Transitions: statusStrings(domain.PermittedTargets(s)),
		})
	}
	return resp
}
