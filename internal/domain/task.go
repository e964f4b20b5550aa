package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Task
var (
	ErrTaskIDEmpty    = errors.New("task ID cannot be empty")
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")
	ErrTaskSelfParent = errors.New("task cannot be its own parent")
)

// Task is a unit of work whose status follows the lifecycle state machine.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a new Task in the todo status.
// There is deliberately no way to choose the initial status, subtasks included.
func NewTask(title, description string, parentID *uuid.UUID) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		ParentID:    parentID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}

	if t.ParentID != nil && *t.ParentID == t.ID {
		return ErrTaskSelfParent
	}

	if !t.Status.IsValid() {
		return &InvalidStatusError{Value: string(t.Status)}
	}

	return nil
}

// Clone returns a copy of the task that shares no pointers with the original.
func (t *Task) Clone() *Task {
	c := *t
	if t.ParentID != nil {
		parent := *t.ParentID
		c.ParentID = &parent
	}
	return &c
}

// TaskUpdate carries the fields a generic update may change.
// It has no status field: status only changes through validated transitions.
// Nil pointers leave the corresponding field untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil
}

// Apply copies the set fields onto the task and bumps UpdatedAt.
func (u TaskUpdate) Apply(t *Task) error {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return ErrTaskTitleEmpty
		}
		t.Title = title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}
