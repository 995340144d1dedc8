package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
}

// hitScript counts a request and starts the window on the first hit, in one
// round trip. Returns {count, remaining ttl in ms}.
var hitScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// RateDecision is the outcome of counting one request
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter counts requests per key in fixed Redis windows
type RateLimiter struct {
	client *redis.Client
	config RateLimitConfig
}

func NewRateLimiter(client *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{client: client, config: config}
}

// Hit records one request for id
func (l *RateLimiter) Hit(ctx context.Context, id string) (RateDecision, error) {
	key := fmt.Sprintf("%s:%s", l.config.KeyPrefix, id)

	res, err := hitScript.Run(ctx, l.client, []string{key}, l.config.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return RateDecision{}, fmt.Errorf("failed to count request for %s: %w", key, err)
	}
	if len(res) != 2 {
		return RateDecision{}, fmt.Errorf("unexpected rate limit reply for %s: %v", key, res)
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = l.config.Window
	}

	remaining := l.config.RequestsPerWindow - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateDecision{
		Allowed:   count <= int64(l.config.RequestsPerWindow),
		Limit:     l.config.RequestsPerWindow,
		Remaining: remaining,
		ResetIn:   ttl,
	}, nil
}

// RateLimitMiddleware limits requests per visitor. Visitors without a client
// ID are keyed by remote address. Redis failures let the request through.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(redisClient, config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := r.RemoteAddr
			if id, ok := GetClientID(r.Context()); ok {
				clientID = id
			}

			decision, err := limiter.Hit(r.Context(), clientID)
			if err != nil {
				logger.Error("Rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				logger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.String("path", r.URL.Path),
					zap.Int("limit", decision.Limit),
				)

				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(decision.ResetIn).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(int(decision.ResetIn.Round(time.Second).Seconds())))

				respondWithError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
