package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetTraceID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	traced := SetTraceID(ctx)
	traceID := GetTraceID(traced)
	require.Len(t, traceID, TraceIDLength)
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err)
	assert.True(t, IsValidTraceID(traceID))

	assert.Empty(t, GetTraceID(ctx), "parent context must be untouched")
}

func TestGetTraceID_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestGenerateTraceID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 500)
	for range 500 {
		id := generateTraceID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate trace ID %s", id)
		seen[id] = struct{}{}
	}
}

func TestIsValidTraceID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"generated", generateTraceID(), true},
		{"empty", "", false},
		{"too short", "abc123", false},
		{"uppercase", "ABCDEF0123456789ABCDEF0123456789", false},
		{"non hex", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", false},
		{"injection", "0123456789abcdef0123456789abc\n\"x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsValidTraceID(tt.input))
		})
	}
}

func TestActorID(t *testing.T) {
	t.Parallel()

	_, ok := ActorIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = ActorIDFromContext(WithActorID(context.Background(), uuid.Nil))
	assert.False(t, ok, "nil actor is not an actor")

	actor := uuid.New()
	got, ok := ActorIDFromContext(WithActorID(context.Background(), actor))
	require.True(t, ok)
	assert.Equal(t, actor, got)
}
