package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	t.Parallel()

	task, err := NewTask("  Write docs  ", "the long version", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if task.Title != "Write docs" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Status != StatusTodo {
		t.Errorf("Expected status %s, got %s", StatusTodo, task.Status)
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}

	if _, err := NewTask("   ", "", nil); err != ErrTaskTitleEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleEmpty, err)
	}
}

func TestNewTask_SubtaskStartsInTodo(t *testing.T) {
	t.Parallel()

	parentID := uuid.New()
	task, err := NewTask("child", "", &parentID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.Status != StatusTodo {
		t.Errorf("Expected subtask status %s, got %s", StatusTodo, task.Status)
	}
	if task.ParentID == nil || *task.ParentID != parentID {
		t.Errorf("Expected parent %s, got %v", parentID, task.ParentID)
	}
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	valid := Task{ID: uuid.New(), Title: "t", Status: StatusReview}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalid := valid
	invalid.ID = uuid.Nil
	if err := invalid.Validate(); err != ErrTaskIDEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskIDEmpty, err)
	}

	invalid = valid
	invalid.ParentID = &invalid.ID
	if err := invalid.Validate(); err != ErrTaskSelfParent {
		t.Errorf("Expected error %v, got %v", ErrTaskSelfParent, err)
	}

	invalid = valid
	invalid.Status = "blocked"
	if err := invalid.Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected invalid status error, got %v", err)
	}
}

func TestTaskClone(t *testing.T) {
	t.Parallel()

	parentID := uuid.New()
	original := &Task{ID: uuid.New(), ParentID: &parentID, Title: "t", Status: StatusTodo}
	clone := original.Clone()

	*clone.ParentID = uuid.New()
	clone.Status = StatusDone

	if *original.ParentID != parentID {
		t.Error("Clone shares ParentID pointer with original")
	}
	if original.Status != StatusTodo {
		t.Error("Clone mutation leaked into original")
	}
}

func TestTaskUpdateApply(t *testing.T) {
	t.Parallel()

	task := &Task{ID: uuid.New(), Title: "old", Description: "d", Status: StatusInProgress}
	title := " new "
	if err := (TaskUpdate{Title: &title}).Apply(task); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.Title != "new" {
		t.Errorf("Expected title new, got %q", task.Title)
	}
	if task.Description != "d" {
		t.Errorf("Expected description untouched, got %q", task.Description)
	}
	if task.Status != StatusInProgress {
		t.Errorf("Expected status untouched, got %s", task.Status)
	}

	blank := ""
	if err := (TaskUpdate{Title: &blank}).Apply(task); err != ErrTaskTitleEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleEmpty, err)
	}

	if !(TaskUpdate{}).IsEmpty() {
		t.Error("Expected zero TaskUpdate to be empty")
	}
}

func TestIllegalTransitionError(t *testing.T) {
	t.Parallel()

	err := error(NewIllegalTransitionError(StatusTodo, StatusDone))
	if !errors.Is(err, ErrIllegalTransition) {
		t.Error("Expected error to match ErrIllegalTransition")
	}

	var ite *IllegalTransitionError
	if !errors.As(err, &ite) || ite.From != StatusTodo || ite.To != StatusDone {
		t.Errorf("Expected todo->done pair, got %v", err)
	}
}
