package events

import (
	"context"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// AuditTrail receives one event per applied, non-identity status transition.
// Recording is best effort: callers log a returned error and carry on.
type AuditTrail interface {
	Record(ctx context.Context, event *domain.AuditEvent) error
}

// AuditHandler defines an interface for components that consume audit events.
type AuditHandler interface {
	// HandleAuditEvent processes the given event within the provided context.
	HandleAuditEvent(ctx context.Context, event *domain.AuditEvent) error
}

// AuditHandlerFunc adapts a function to the AuditHandler interface.
type AuditHandlerFunc func(ctx context.Context, event *domain.AuditEvent) error

// HandleAuditEvent calls f(ctx, event).
func (f AuditHandlerFunc) HandleAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	return f(ctx, event)
}

// AuditTrailFunc adapts a function to the AuditTrail interface.
type AuditTrailFunc func(ctx context.Context, event *domain.AuditEvent) error

// Record calls f(ctx, event).
func (f AuditTrailFunc) Record(ctx context.Context, event *domain.AuditEvent) error {
	return f(ctx, event)
}

// NopAuditTrail discards every event.
type NopAuditTrail struct{}

// Record implements AuditTrail.
func (NopAuditTrail) Record(context.Context, *domain.AuditEvent) error { return nil }
