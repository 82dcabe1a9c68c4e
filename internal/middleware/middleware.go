// file: internal/middleware/middleware.go
package middleware

import "net/http"

// Chain applies middlewares so the first one listed runs outermost
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
