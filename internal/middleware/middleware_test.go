package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"helpinghands/internal/cache"
	"helpinghands/internal/contextutils"
	"helpinghands/internal/models"
	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// stubAuth accepts exactly one token
type stubAuth struct {
	token     string
	principal models.Principal
}

func (s *stubAuth) Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResult, error) {
	return nil, nil
}

func (s *stubAuth) Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResult, error) {
	return nil, nil
}

func (s *stubAuth) Authenticate(ctx context.Context, token string) (models.Principal, error) {
	if token != s.token {
		return models.Principal{}, services.NewUnauthorizedError("invalid or expired token", services.CodeInvalidToken)
	}
	return s.principal, nil
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) *response.ErrorDetail {
	t.Helper()
	var body response.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = contextutils.GetRequestID(r.Context())
		assert.NotNil(t, contextutils.GetLogger(r.Context(), nil))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXCorrelationID, "upstream-7")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-7", seen)
	assert.Equal(t, "upstream-7", rec.Header().Get(HeaderXRequestID))
}

func TestAuthenticator(t *testing.T) {
	responses := response.NewBuilder(nil, zap.NewNop())
	want := models.Principal{UserID: 3, Role: models.RoleDonor}
	auth := NewAuthenticator(&stubAuth{token: "good", principal: want}, responses, zap.NewNop())

	var got models.Principal
	var ok bool
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = contextutils.GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		required   bool
		header     string
		status     int
		code       string
		authorized bool
	}{
		{"valid token", true, "Bearer good", http.StatusOK, "", true},
		{"lowercase scheme", true, "bearer good", http.StatusOK, "", true},
		{"missing required", true, "", http.StatusUnauthorized, services.CodeAuthRequired, false},
		{"missing optional", false, "", http.StatusOK, "", false},
		{"bad token optional", false, "Bearer bad", http.StatusUnauthorized, services.CodeInvalidToken, false},
		{"wrong scheme", true, "Basic Zm9vOmJhcg==", http.StatusUnauthorized, services.CodeInvalidToken, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok = models.Principal{}, false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			auth.Authenticate(tt.required)(capture).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorBody(t, rec).Code)
			}
			assert.Equal(t, tt.authorized, ok)
			if tt.authorized {
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	responses := response.NewBuilder(nil, zap.NewNop())
	h := Recovery(responses, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("ledger exploded")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/donations", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := errorBody(t, rec)
	assert.Equal(t, services.ErrTypeInternal, detail.Type)
	assert.NotContains(t, rec.Body.String(), "ledger exploded")
}

func TestStructuredLogger_CapturesStatus(t *testing.T) {
	var captured *responseWriter
	h := StructuredLogger(nil, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/campaigns", nil))
	require.NotNil(t, captured)
	assert.Equal(t, http.StatusTeapot, captured.status)
	assert.Equal(t, int64(len("short and stout")), captured.bytesWritten)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORS(t *testing.T) {
	h := CORS(DefaultCORSConfig([]string{"http://localhost:3000", "*.helpinghands.org"}), zap.NewNop())(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/campaigns", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req.Header.Set("Origin", "https://admin.helpinghands.org")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://admin.helpinghands.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	c := cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	responses := response.NewBuilder(nil, zap.NewNop())
	limiter := NewRateLimiter(c, &RateLimiterConfig{Limit: 2, Window: time.Minute}, responses, zap.NewNop())
	start := time.Date(2024, 3, 1, 12, 0, 10, 0, time.UTC)
	limiter.now = func() time.Time { return start }
	h := limiter.Middleware(okHandler)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1").Code)
	rec := send("10.0.0.1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "50", rec.Header().Get("Retry-After"))
	assert.Equal(t, services.ErrTypeRateLimited, errorBody(t, rec).Type)

	// other clients and the next window are unaffected
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2").Code)
	limiter.now = func() time.Time { return start.Add(time.Minute) }
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1").Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler, mark("outer"), mark("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRateLimiter_ForwardedForFromUntrustedPeer(t *testing.T) {
	c := cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	limiter := NewRateLimiter(c, &RateLimiterConfig{Limit: 2, Window: time.Minute}, response.NewBuilder(nil, zap.NewNop()), zap.NewNop())
	limiter.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	h := limiter.Middleware(okHandler)

	blocked := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			blocked++
		}
	}
	assert.Equal(t, 48, blocked)
}

func TestRateLimiter_TrustedProxyKeysOnForwardedClient(t *testing.T) {
	c := cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	resolver, err := NewClientIPResolver([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	limiter := NewRateLimiter(c, &RateLimiterConfig{Limit: 1, Window: time.Minute, ClientIP: resolver}, response.NewBuilder(nil, zap.NewNop()), zap.NewNop())
	limiter.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	h := limiter.Middleware(okHandler)

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.1.2.3:443"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("203.0.113.7"))
	assert.Equal(t, http.StatusNoContent, send("203.0.113.8"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7"))
	// a client-supplied hop in front of the real one does not reset the count
	assert.Equal(t, http.StatusTooManyRequests, send("1.1.1.1, 203.0.113.7"))
}

func TestRateLimiter_InstancesShareBudget(t *testing.T) {
	c := cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	responses := response.NewBuilder(nil, zap.NewNop())
	limiters := []*RateLimiter{
		NewRateLimiter(c, &RateLimiterConfig{Limit: 10, Window: time.Minute}, responses, zap.NewNop()),
		NewRateLimiter(c, &RateLimiterConfig{Limit: 10, Window: time.Minute}, responses, zap.NewNop()),
	}
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, l := range limiters {
		l.now = func() time.Time { return start }
	}

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(l *RateLimiter) {
			defer wg.Done()
			result, err := l.Check(context.Background(), "10.0.0.9")
			if assert.NoError(t, err) && result.Allowed {
				allowed.Add(1)
			}
		}(limiters[i%2])
	}
	wg.Wait()

	assert.Equal(t, int64(10), allowed.Load())
}
