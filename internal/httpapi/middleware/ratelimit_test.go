package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bengobox/time-service/internal/httpapi"
	"github.com/bengobox/time-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	keys   []string
	err    error
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: map[string]int64{}}
}

func (c *memoryCounter) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, 0, c.err
	}
	c.keys = append(c.keys, key)
	c.counts[key]++
	return c.counts[key], window, nil
}

func remoteKey(r *http.Request) string { return r.RemoteAddr }

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	counter := newMemoryCounter()
	limiter := NewRateLimiter(counter, "time", zap.NewNop(), nil)
	h := limiter.Limit("time", 3, time.Minute, remoteKey)(okHandler)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/time", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, "time:ratelimit:time:192.0.2.1:1234", counter.keys[0])
}

func TestRateLimiterRejectsOverBudget(t *testing.T) {
	m := metrics.New("time-service")
	limiter := NewRateLimiter(newMemoryCounter(), "time", zap.NewNop(), m)
	h := limiter.Limit("time", 2, 30*time.Second, remoteKey)(okHandler)

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/time", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "30", last.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests","code":"rate_limited","retry_after_seconds":30}`, last.Body.String())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimited.WithLabelValues("time")))
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(newMemoryCounter(), "time", zap.NewNop(), nil)
	h := limiter.Limit("time", 1, time.Minute, remoteKey)(okHandler)

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		r := httptest.NewRequest(http.MethodGet, "/time", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}
}

func TestRateLimiterIgnoresForwardedHeadersFromOnePeer(t *testing.T) {
	counter := newMemoryCounter()
	limiter := NewRateLimiter(counter, "time", zap.NewNop(), nil)
	h := limiter.Limit("public", 2, time.Minute, httpapi.RemoteIP)(okHandler)

	allowed := 0
	for i := 0; i < 10; i++ {
		r := httptest.NewRequest(http.MethodGet, "/time", nil)
		r.RemoteAddr = fmt.Sprintf("198.51.100.9:%d", 40000+i)
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		r.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code == http.StatusOK {
			allowed++
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}

	assert.Equal(t, 2, allowed)
	assert.Equal(t, int64(10), counter.counts["time:ratelimit:public:198.51.100.9"])
}

func TestRateLimiterFailsOpen(t *testing.T) {
	counter := newMemoryCounter()
	counter.err = errors.New("connection refused")
	limiter := NewRateLimiter(counter, "time", zap.NewNop(), nil)
	h := limiter.Limit("time", 1, time.Minute, remoteKey)(okHandler)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/time", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

// setupTestRedis returns a client for a local Redis, skipping the test when
// none is reachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisWindowCounter(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	key := "time-test:ratelimit:" + t.Name()
	require.NoError(t, client.Del(ctx, key).Err())
	t.Cleanup(func() { client.Del(context.Background(), key) })

	counter := NewRedisWindowCounter(client)

	count, ttl, err := counter.Increment(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 10*time.Second, ttl)

	count, ttl, err = counter.Increment(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 10*time.Second)
}

func TestRedisWindowCounterResetsAfterWindow(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	key := "time-test:ratelimit:" + t.Name()
	require.NoError(t, client.Del(ctx, key).Err())

	counter := NewRedisWindowCounter(client)
	_, _, err := counter.Increment(ctx, key, 50*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)

	count, _, err := counter.Increment(ctx, key, time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.NoError(t, client.Del(ctx, key).Err())
}
