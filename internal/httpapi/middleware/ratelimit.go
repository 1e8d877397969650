package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bengobox/time-service/internal/cache"
	"github.com/bengobox/time-service/internal/httpapi"
	"github.com/bengobox/time-service/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// WindowCounter increments a counter that resets once window has elapsed
// since its first increment. It returns the new count and the time left in
// the current window.
type WindowCounter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisWindowCounter implements WindowCounter with INCR and PEXPIRE.
type RedisWindowCounter struct {
	client *redis.Client
}

// NewRedisWindowCounter wraps a go-redis client.
func NewRedisWindowCounter(client *redis.Client) *RedisWindowCounter {
	return &RedisWindowCounter{client: client}
}

// Increment bumps key and starts its window on the first hit.
func (c *RedisWindowCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("increment %s: %w", key, err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		// First hit in the window, or a key left without expiry.
		if err := c.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = window
	}
	return incr.Val(), ttl, nil
}

// RateLimiter applies fixed-window request budgets backed by a WindowCounter.
type RateLimiter struct {
	counter   WindowCounter
	namespace string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewRateLimiter constructs a RateLimiter. metrics may be nil.
func NewRateLimiter(counter WindowCounter, namespace string, logger *zap.Logger, m *metrics.Metrics) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		counter:   counter,
		namespace: namespace,
		logger:    logger,
		metrics:   m,
	}
}

// Limit allows at most limit requests per window for each key returned by
// keyFn. Backend failures fail open.
func (l *RateLimiter) Limit(name string, limit int, window time.Duration, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cache.Key(l.namespace, "ratelimit", name, keyFn(r))
			count, ttl, err := l.counter.Increment(r.Context(), key, window)
			if err != nil {
				l.logger.Warn("rate limiter unavailable, allowing request",
					zap.String("limiter", name),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(limit) {
				if l.metrics != nil {
					l.metrics.RateLimited.WithLabelValues(name).Inc()
				}
				httpapi.RateLimited(w, ttl)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
