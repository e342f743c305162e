package http

import (
	"context"
	"log/slog"

	"github.com/example/tutorrec/internal/logging"
)

type contextKey string

const (
	personIDContextKey contextKey = "person_id"
	slotContextKey     contextKey = "slot"
)

// ContextWithPersonID injects the person identifier resolved from the request path.
func ContextWithPersonID(ctx context.Context, personID string) context.Context {
	return context.WithValue(ctx, personIDContextKey, personID)
}

// PersonIDFromContext extracts a person identifier previously associated with the context.
func PersonIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(personIDContextKey).(string)
	return id, ok
}

// ContextWithSlot injects the appointment slot resolved from the request path.
func ContextWithSlot(ctx context.Context, slot string) context.Context {
	return context.WithValue(ctx, slotContextKey, slot)
}

// SlotFromContext extracts an appointment slot previously associated with the context.
func SlotFromContext(ctx context.Context) (string, bool) {
	slot, ok := ctx.Value(slotContextKey).(string)
	return slot, ok
}

// ContextWithLogger attaches the request scoped logger. Services read it back
// through the logging package.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
