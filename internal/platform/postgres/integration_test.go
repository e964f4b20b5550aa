package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/phrazzld/taskflow-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTask(t *testing.T, tasks *postgres.PostgresTaskStore, parentID *uuid.UUID) *domain.Task {
	t.Helper()

	task, err := domain.NewTask("Integration task", "", parentID)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))
	return task
}

func TestIntegration_CreateAlwaysStoresTodo(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		tasks := postgres.NewPostgresTaskStore(tx, nil)
		ctx := context.Background()

		parent := createTask(t, tasks, nil)

		child, err := domain.NewTask("Subtask", "", &parent.ID)
		require.NoError(t, err)
		child.Status = domain.StatusDone
		require.NoError(t, tasks.Create(ctx, child))
		assert.Equal(t, domain.StatusTodo, child.Status)

		stored, err := tasks.GetByID(ctx, child.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusTodo, stored.Status)
		require.NotNil(t, stored.ParentID)
		assert.Equal(t, parent.ID, *stored.ParentID)
	})
}

func TestIntegration_CreateWithUnknownParent(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		tasks := postgres.NewPostgresTaskStore(tx, nil)

		missing := uuid.New()
		task, err := domain.NewTask("Orphan", "", &missing)
		require.NoError(t, err)

		err = tasks.Create(context.Background(), task)
		assert.ErrorIs(t, err, store.ErrParentTaskNotFound)
	})
}

func TestIntegration_ConditionalUpdateStatus(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		tasks := postgres.NewPostgresTaskStore(tx, nil)
		ctx := context.Background()
		task := createTask(t, tasks, nil)

		applied, err := tasks.ConditionalUpdateStatus(ctx, task.ID, domain.StatusTodo, domain.StatusInProgress, time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = tasks.ConditionalUpdateStatus(ctx, task.ID, domain.StatusTodo, domain.StatusInProgress, time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, applied, "stale expected status must not write")

		stored, err := tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, stored.Status)

		applied, err = tasks.ConditionalUpdateStatus(ctx, uuid.New(), domain.StatusTodo, domain.StatusInProgress, time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func TestIntegration_StatusCheckConstraint(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		tasks := postgres.NewPostgresTaskStore(tx, nil)
		task := createTask(t, tasks, nil)

		_, err := tasks.ConditionalUpdateStatus(context.Background(), task.ID, domain.StatusTodo, domain.Status("archived"), time.Now().UTC())
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrInvalidEntity), "got %v", err)
	})
}

func TestIntegration_UpdateFieldsKeepsStatus(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		tasks := postgres.NewPostgresTaskStore(tx, nil)
		ctx := context.Background()
		task := createTask(t, tasks, nil)

		updated, err := tasks.UpdateFields(ctx, task.ID, func(t *domain.Task) error {
			t.Title = "Renamed"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, domain.StatusTodo, updated.Status)

		_, err = tasks.UpdateFields(ctx, task.ID, func(t *domain.Task) error {
			t.Status = domain.StatusDone
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrForbiddenField)
	})
}

func TestIntegration_AuditEvents(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		tasks := postgres.NewPostgresTaskStore(tx, nil)
		audits := postgres.NewPostgresAuditStore(tx, nil)
		ctx := context.Background()
		task := createTask(t, tasks, nil)
		actor := uuid.New()

		first := domain.NewAuditEvent(task.ID, domain.StatusTodo, domain.StatusInProgress, actor)
		second := domain.NewAuditEvent(task.ID, domain.StatusInProgress, domain.StatusReview, actor)
		second.Timestamp = first.Timestamp.Add(time.Second)

		require.NoError(t, audits.Append(ctx, second))
		require.NoError(t, audits.Append(ctx, first))

		events, err := audits.ListByTask(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, first.ID, events[0].ID)
		assert.Equal(t, second.ID, events[1].ID)

		// Last: a failed statement aborts the surrounding transaction.
		assert.ErrorIs(t, audits.Append(ctx, first), store.ErrDuplicate)
	})
}
