package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/symptomchecker/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ObservabilityMiddleware wraps each request in a span and records the
// request count and duration. It runs outside the mux, so identifiers in the
// path are folded into a route label before they reach span names or metrics.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeLabel(r.URL.Path)

			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+route)
			defer span.End()

			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Bool("http.event_stream", isEventStream(r)),
			)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rw, r.WithContext(ctx))

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
			observability.SetSpanAttributes(span, attribute.Int("http.status_code", rw.statusCode))
			if rw.statusCode >= http.StatusInternalServerError {
				observability.RecordError(span, fmt.Errorf("%s %s returned %d", r.Method, route, rw.statusCode))
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}
		})
	}
}

// routeLabel replaces the session id and medication index in session paths:
// /api/medication-sessions/3f2a/medications/1 becomes
// /api/medication-sessions/{id}/medications/{index}.
func routeLabel(path string) string {
	const sessions = "/api/medication-sessions/"
	if !strings.HasPrefix(path, sessions) || len(path) == len(sessions) {
		return path
	}

	parts := strings.Split(strings.TrimPrefix(path, sessions), "/")
	parts[0] = "{id}"
	if len(parts) >= 3 && parts[1] == "medications" {
		parts[2] = "{index}"
	}
	return sessions + strings.Join(parts, "/")
}

// responseWriter records the status code. It forwards Flush so session event
// streams still reach the client as they are written.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
