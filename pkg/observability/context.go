package observability

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	correlationIDCtxKey contextKey = iota
	learnerIDCtxKey
)

// Attribute keys shared by log lines and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	LearnerIDKey     = "learner_id"
	SessionIDKey     = "session_id"
	ErrorKey         = "error"
)

// WithCorrelationID tags ctx with a correlation id. An empty id gets a
// fresh UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDCtxKey, id)
}

// CorrelationIDFromContext returns the correlation id or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDCtxKey)
}

// WithLearnerID scopes log lines to one learner.
func WithLearnerID(ctx context.Context, learnerID uuid.UUID) context.Context {
	if learnerID == uuid.Nil {
		return ctx
	}
	return context.WithValue(ctx, learnerIDCtxKey, learnerID.String())
}

// LearnerIDFromContext returns the learner id or "".
func LearnerIDFromContext(ctx context.Context) string {
	return stringValue(ctx, learnerIDCtxKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
