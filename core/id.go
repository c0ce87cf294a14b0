package core

import (
	"context"

	"github.com/google/uuid"
)

// NewID returns a random request or record identifier.
func NewID() string { return uuid.NewString() }

type requestIDKey struct{}

// ContextWithRequestID returns a child context carrying the request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
