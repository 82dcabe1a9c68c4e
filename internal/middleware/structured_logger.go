// file: internal/middleware/structured_logger.go
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/contextutils"
)

// LoggingConfig holds request logging configuration
type LoggingConfig struct {
	SlowRequestThreshold time.Duration
	SkipPaths            []string
	ClientIP             *ClientIPResolver
}

// DefaultLoggingConfig returns default request logging configuration
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SlowRequestThreshold: 2 * time.Second,
		SkipPaths:            []string{"/health"},
	}
}

// StructuredLogger logs one line per completed request. It must run inside
// RequestID so the request-scoped logger is available.
func StructuredLogger(config *LoggingConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := GetRequestStart(r.Context())
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			requestLogger := contextutils.GetLogger(r.Context(), logger)
			fields := []zap.Field{
				zap.Int("status", rw.status),
				zap.Duration("duration", duration),
				zap.Int64("response_size", rw.bytesWritten),
				zap.String("remote_addr", config.ClientIP.ClientIP(r)),
			}
			if userID := contextutils.GetUserID(r.Context()); userID != 0 {
				fields = append(fields, zap.Int64("user_id", userID))
			}

			switch {
			case rw.status >= 500:
				requestLogger.Error("Request failed", fields...)
			case rw.status >= 400:
				requestLogger.Warn("Request completed with client error", fields...)
			default:
				requestLogger.Info("Request completed", fields...)
			}

			if config.SlowRequestThreshold > 0 && duration > config.SlowRequestThreshold {
				requestLogger.Warn("Slow request detected",
					zap.Duration("duration", duration),
					zap.Duration("threshold", config.SlowRequestThreshold),
				)
			}
		})
	}
}

// responseWriter captures the status code and body size
type responseWriter struct {
	http.ResponseWriter
	status       int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(data []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	written, err := rw.ResponseWriter.Write(data)
	rw.bytesWritten += int64(written)
	return written, err
}
