// file: internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"helpinghands/internal/contextutils"
	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// Authenticator verifies bearer tokens and stores the resulting principal
// in the request context. Role checks stay in the services.
type Authenticator struct {
	auth      services.AuthService
	responses *response.Builder
	logger    *zap.Logger
}

// NewAuthenticator creates the bearer token middleware
func NewAuthenticator(auth services.AuthService, responses *response.Builder, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		auth:      auth,
		responses: responses,
		logger:    logger,
	}
}

// Authenticate resolves the Authorization header. When required is false a
// missing header passes through anonymously, but an invalid token is
// still rejected.
func (a *Authenticator) Authenticate(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestLogger := contextutils.GetLogger(ctx, a.logger)

			token, present := bearerToken(r)
			if !present {
				if required {
					requestLogger.Debug("Authentication required but no token supplied")
					a.responses.WriteError(w, r, services.NewUnauthorizedError("authentication required", services.CodeAuthRequired))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			principal, err := a.auth.Authenticate(ctx, token)
			if err != nil {
				requestLogger.Warn("Token rejected", zap.Error(err))
				a.responses.WriteError(w, r, err)
				return
			}

			ctx = contextutils.WithPrincipal(ctx, principal)
			ctx = contextutils.WithLogger(ctx, requestLogger.With(
				zap.Int64("user_id", principal.UserID),
				zap.String("role", string(principal.Role)),
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth requires a valid bearer token
func (a *Authenticator) RequireAuth() func(http.Handler) http.Handler {
	return a.Authenticate(true)
}

// OptionalAuth attaches the principal when a token is supplied
func (a *Authenticator) OptionalAuth() func(http.Handler) http.Handler {
	return a.Authenticate(false)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// A header with any other scheme counts as present with an empty token.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}
