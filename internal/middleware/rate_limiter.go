// file: internal/middleware/rate_limiter.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/cache"
	"helpinghands/internal/contextutils"
	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// RateLimiterConfig holds rate limiting configuration
type RateLimiterConfig struct {
	Limit     int
	Window    time.Duration
	KeyPrefix string
	// FailOpen lets requests through when the cache cannot be read
	FailOpen bool
	// ClientIP keys requests; nil uses the socket address
	ClientIP *ClientIPResolver
}

// RateLimitResult represents the result of rate limit check
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// RateLimiter is a fixed-window, per client IP limiter. Counters live in
// the shared cache and are bumped with its atomic Increment, so several
// instances behind one Redis share a single budget.
type RateLimiter struct {
	cache     cache.Cache
	config    *RateLimiterConfig
	responses *response.Builder
	logger    *zap.Logger
	now       func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(c cache.Cache, config *RateLimiterConfig, responses *response.Builder, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "ratelimit"
	}
	return &RateLimiter{
		cache:     c,
		config:    config,
		responses: responses,
		logger:    logger,
		now:       time.Now,
	}
}

// Middleware rejects requests over the limit with 429 RATE_LIMITED
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.Limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := rl.config.ClientIP.ClientIP(r)
		result, err := rl.Check(r.Context(), clientIP)
		if err != nil {
			rl.logger.Error("Rate limit check failed", zap.Error(err), zap.String("ip", clientIP))
			if rl.config.FailOpen {
				next.ServeHTTP(w, r)
				return
			}
			rl.responses.WriteError(w, r, services.NewInternalError("rate limit unavailable", err))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

		if !result.Allowed {
			contextutils.GetLogger(r.Context(), rl.logger).Warn("Rate limit exceeded",
				zap.String("ip", clientIP),
				zap.Int("limit", result.Limit),
				zap.Duration("retry_after", result.RetryAfter),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			rl.responses.WriteError(w, r, services.NewRateLimitedError("too many requests", result.RetryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Check counts one attempt for key in the current window. Rejected
// attempts are counted too, so a client hammering the endpoint stays
// blocked until the window rolls over.
func (rl *RateLimiter) Check(ctx context.Context, key string) (*RateLimitResult, error) {
	now := rl.now()
	windowStart := now.Truncate(rl.config.Window)
	resetTime := windowStart.Add(rl.config.Window)
	windowKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	// one extra window of TTL covers clock skew between instances
	count, err := rl.cache.Increment(ctx, windowKey, 1, 2*rl.config.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	result := &RateLimitResult{
		Allowed:    count <= int64(rl.config.Limit),
		Limit:      rl.config.Limit,
		ResetTime:  resetTime,
		RetryAfter: resetTime.Sub(now),
	}

	result.Remaining = rl.config.Limit - int(min(count, int64(rl.config.Limit)))
	return result, nil
}
