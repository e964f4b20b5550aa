package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskRowColumns = []string{
	"id", "parent_id", "title", "description", "status", "created_at", "updated_at",
}

func newMockTaskStore(t *testing.T) (*PostgresTaskStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresTaskStore(db, nil), mock
}

func TestNewPostgresTaskStore_NilDBPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewPostgresTaskStore(nil, nil)
	})
}

func TestPostgresTaskStore_Create(t *testing.T) {
	insertQuery := regexp.QuoteMeta(
		"INSERT INTO tasks (id, parent_id, title, description, created_at, updated_at)",
	)

	t.Run("status comes from the column default", func(t *testing.T) {
		s, mock := newMockTaskStore(t)

		task, err := domain.NewTask("Write docs", "", nil)
		require.NoError(t, err)
		// Even a tampered in-memory status never reaches the INSERT.
		task.Status = domain.StatusDone

		mock.ExpectQuery(insertQuery).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Write docs", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("todo"))

		err = s.Create(context.Background(), task)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusTodo, task.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing parent", func(t *testing.T) {
		s, mock := newMockTaskStore(t)

		parentID := uuid.New()
		task, err := domain.NewTask("Subtask", "", &parentID)
		require.NoError(t, err)

		mock.ExpectQuery(insertQuery).
			WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "tasks_parent_id_fkey"})

		err = s.Create(context.Background(), task)
		assert.ErrorIs(t, err, store.ErrParentTaskNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid task is not sent to the database", func(t *testing.T) {
		s, mock := newMockTaskStore(t)

		err := s.Create(context.Background(), &domain.Task{ID: uuid.New(), Status: domain.StatusTodo})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTaskStore_GetByID(t *testing.T) {
	selectQuery := regexp.QuoteMeta("FROM tasks WHERE id = $1")
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		s, mock := newMockTaskStore(t)
		id := uuid.New()
		parentID := uuid.New()

		mock.ExpectQuery(selectQuery).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(taskRowColumns).
				AddRow(id.String(), parentID.String(), "Title", "Body", "review", now, now))

		task, err := s.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
		require.NotNil(t, task.ParentID)
		assert.Equal(t, parentID, *task.ParentID)
		assert.Equal(t, domain.StatusReview, task.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockTaskStore(t)

		mock.ExpectQuery(selectQuery).WillReturnRows(sqlmock.NewRows(taskRowColumns))

		_, err := s.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("unknown stored status", func(t *testing.T) {
		s, mock := newMockTaskStore(t)
		id := uuid.New()

		mock.ExpectQuery(selectQuery).
			WillReturnRows(sqlmock.NewRows(taskRowColumns).
				AddRow(id.String(), nil, "Title", "", "blocked", now, now))

		_, err := s.GetByID(context.Background(), id)
		var invalid *domain.InvalidStatusError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "blocked", invalid.Value)
	})
}

func TestPostgresTaskStore_ConditionalUpdateStatus(t *testing.T) {
	updateQuery := regexp.QuoteMeta(
		"UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
	)

	tests := []struct {
		name         string
		rowsAffected int64
		execErr      error
		wantApplied  bool
		wantErr      bool
	}{
		{name: "applied", rowsAffected: 1, wantApplied: true},
		{name: "status moved underneath", rowsAffected: 0, wantApplied: false},
		{name: "database error", execErr: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockTaskStore(t)

			updatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			exp := mock.ExpectExec(updateQuery).
				WithArgs("done", updatedAt, sqlmock.AnyArg(), "in_progress")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))
			}

			applied, err := s.ConditionalUpdateStatus(
				context.Background(), uuid.New(), domain.StatusInProgress, domain.StatusDone, updatedAt,
			)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantApplied, applied)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresTaskStore_UpdateFields(t *testing.T) {
	lockQuery := regexp.QuoteMeta("FROM tasks WHERE id = $1 FOR UPDATE")
	updateQuery := regexp.QuoteMeta(
		"UPDATE tasks SET title = $1, description = $2, updated_at = $3 WHERE id = $4",
	)
	now := time.Now().UTC()

	t.Run("writes fields and keeps status", func(t *testing.T) {
		s, mock := newMockTaskStore(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WillReturnRows(sqlmock.NewRows(taskRowColumns).
				AddRow(id.String(), nil, "Old", "", "in_progress", now, now))
		mock.ExpectExec(updateQuery).
			WithArgs("New", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		newTitle := "New"
		task, err := s.UpdateFields(context.Background(), id, func(task *domain.Task) error {
			return domain.TaskUpdate{Title: &newTitle}.Apply(task)
		})
		require.NoError(t, err)
		assert.Equal(t, "New", task.Title)
		assert.Equal(t, domain.StatusInProgress, task.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mutator touching status is refused", func(t *testing.T) {
		s, mock := newMockTaskStore(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).
			WillReturnRows(sqlmock.NewRows(taskRowColumns).
				AddRow(id.String(), nil, "Old", "", "todo", now, now))
		mock.ExpectRollback()

		_, err := s.UpdateFields(context.Background(), id, func(task *domain.Task) error {
			task.Status = domain.StatusDone
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrForbiddenField)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing task", func(t *testing.T) {
		s, mock := newMockTaskStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows(taskRowColumns))
		mock.ExpectRollback()

		_, err := s.UpdateFields(context.Background(), uuid.New(), func(*domain.Task) error {
			return nil
		})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
