package tracing

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const operationIDKey contextKey = "operation_id"

// OperationIDFromContext returns the operation id, or "" when none is set.
func OperationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(operationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithOperationID returns ctx carrying id. An empty id leaves ctx
// unchanged.
func ContextWithOperationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, operationIDKey, id)
}

// EnsureOperationID returns ctx with an operation id, generating a UUID
// when the caller did not supply one.
func EnsureOperationID(ctx context.Context) (context.Context, string) {
	if id := OperationIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return ContextWithOperationID(ctx, id), id
}
