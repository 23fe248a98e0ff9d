package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type traceIDKey struct{}

// InjectTraceID attaches a fresh trace id to both the context and its
// logger, so every log line of one request or poller cycle can be tied
// together.
func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.New().String()
	logger := log.With().Str("traceId", id).Logger()
	return logger.WithContext(context.WithValue(ctx, traceIDKey{}, id))
}

// TraceID returns the trace id carried by ctx, or "" when none was injected.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
