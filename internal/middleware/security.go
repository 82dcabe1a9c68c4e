// File: internal/middleware/security.go
package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/contextutils"
)

// SecureHeaders sets conservative headers for a JSON API
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// ===============================
// CORS
// ===============================

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns the CORS configuration for the given origins.
// "*" allows any origin; "*.example.com" allows its subdomains.
func DefaultCORSConfig(origins []string) *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Content-Type", "Authorization", HeaderXRequestID, HeaderXCorrelationID,
		},
		ExposedHeaders:   []string{HeaderXRequestID, HeaderXCorrelationID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORS answers preflight requests and decorates responses for allowed
// origins. Disallowed origins get no CORS headers.
func CORS(config *CORSConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !isOriginAllowed(origin, config.AllowedOrigins) {
				contextutils.GetLogger(r.Context(), logger).Debug("CORS origin not allowed",
					zap.String("origin", origin),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if config.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if len(config.ExposedHeaders) > 0 {
				h.Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				h.Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				h.Set("Access-Control-Max-Age", fmt.Sprintf("%.0f", config.MaxAge.Seconds()))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isOriginAllowed(origin string, allowed []string) bool {
	for _, pattern := range allowed {
		if matchOriginPattern(origin, pattern) {
			return true
		}
	}
	return false
}

// matchOriginPattern performs basic wildcard matching for origin patterns
func matchOriginPattern(origin, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		domain := pattern[2:]
		return strings.HasSuffix(origin, "."+domain)
	}
	return origin == pattern
}
