package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithParam(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetPathUUID(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	got, err := getPathUUID(requestWithParam("id", id.String()), "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = getPathUUID(requestWithParam("id", ""), "id")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = getPathUUID(requestWithParam("id", "not-a-uuid"), "id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestHandleActorAndPathUUID(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger()
	actor := uuid.New()
	taskID := uuid.New()

	tests := []struct {
		name       string
		actor      *uuid.UUID
		param      string
		wantOK     bool
		wantStatus int
	}{
		{"both present", &actor, taskID.String(), true, http.StatusOK},
		{"missing actor", nil, taskID.String(), false, http.StatusUnauthorized},
		{"bad path id", &actor, "42", false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := requestWithParam("id", tt.param)
			if tt.actor != nil {
				r = r.WithContext(shared.WithActorID(r.Context(), *tt.actor))
			}
			w := httptest.NewRecorder()

			gotActor, gotTask, ok := handleActorAndPathUUID(w, r, "id", log)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, actor, gotActor)
				assert.Equal(t, taskID, gotTask)
			} else {
				assert.Equal(t, tt.wantStatus, w.Code)
			}
		})
	}
}
