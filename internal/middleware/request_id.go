// file: internal/middleware/request_id.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"helpinghands/internal/contextutils"
)

type contextKey string

// requestStartKey is the context key for request start time
const requestStartKey contextKey = "request_start"

// Request ID header constants
const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderXCorrelationID = "X-Correlation-ID"
)

// RequestID generates or propagates a correlation ID and attaches a
// request-scoped logger to the context
func RequestID(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Reuse an upstream ID for distributed tracing
			requestID := r.Header.Get(HeaderXRequestID)
			if requestID == "" {
				requestID = r.Header.Get(HeaderXCorrelationID)
			}
			if requestID == "" {
				if id, err := uuid.NewV4(); err == nil {
					requestID = id.String()
				} else {
					requestID = "req_" + start.UTC().Format("20060102150405.000000000")
				}
			}

			w.Header().Set(HeaderXRequestID, requestID)
			w.Header().Set(HeaderXCorrelationID, requestID)

			requestLogger := logger.With(
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)

			ctx := contextutils.WithRequestID(r.Context(), requestID)
			ctx = contextutils.WithLogger(ctx, requestLogger)
			ctx = context.WithValue(ctx, requestStartKey, start)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestStart extracts the request start time from context
func GetRequestStart(ctx context.Context) time.Time {
	if start, ok := ctx.Value(requestStartKey).(time.Time); ok {
		return start
	}
	return time.Now()
}
