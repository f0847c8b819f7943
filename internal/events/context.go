package events

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	loggerKey contextKey = iota
	operationIDKey
)

// FromContext extracts logger from context, or returns fallback.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return Nop()
}

// WithLogger adds logger to context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithOperation tags the context with a fresh operation ID so every log line
// of one save or retrieve call can be correlated.
func WithOperation(ctx context.Context, logger *Logger, op string) context.Context {
	id := uuid.NewString()
	ctx = context.WithValue(ctx, operationIDKey, id)
	return WithLogger(ctx, logger.WithFields(map[string]interface{}{
		"op":    op,
		"op_id": id,
	}))
}

// GetOperationID retrieves the operation ID from context.
func GetOperationID(ctx context.Context) string {
	if id, ok := ctx.Value(operationIDKey).(string); ok {
		return id
	}
	return ""
}
