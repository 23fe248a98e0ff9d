package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/observability/tracing"
)

const traceIDHeader = "X-Trace-Id"

// traceMiddleware gives every request a trace id, echoes it back to the
// caller and logs the request once it finishes.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.InjectTraceID(r.Context())
		w.Header().Set(traceIDHeader, tracing.TraceID(ctx))

		startTime := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		log.Ctx(ctx).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(startTime)).
			Msg("Handled request")
	})
}
