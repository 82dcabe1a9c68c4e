// File: internal/middleware/recovery.go
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"helpinghands/internal/contextutils"
	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// Recovery turns a handler panic into a logged 500 JSON response.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recovery(responses *response.Builder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				contextutils.GetLogger(r.Context(), logger).Error("Panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)

				err := services.NewInternalError("internal server error", fmt.Errorf("panic: %v", rec))
				responses.WriteError(w, r, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
