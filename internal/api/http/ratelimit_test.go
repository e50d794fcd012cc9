package http

import (
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketflow/ticketflow/internal/config"
)

func fixedClock() func() time.Time {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestRateLimiter_Memory(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 2}, nil, nil, nil)
	limiter.now = fixedClock()
	s := newTestServer(t, testTokens, limiter)

	assert.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil).status)
	assert.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil).status)

	resp := s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil)
	require.Equal(t, stdhttp.StatusTooManyRequests, resp.status)
	assert.Equal(t, "RATE_LIMITED", resp.envelope(t).Error.Code)
	assert.Equal(t, "1", resp.header.Get("Retry-After"))

	assert.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "bruno", nil).status,
		"buckets are per identity")
}

func TestRateLimiter_MemoryDropsIdleBuckets(t *testing.T) {
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 1}, nil, nil, nil)
	limiter.now = func() time.Time { return clock }
	s := newTestServer(t, testTokens, limiter)

	require.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil).status)
	require.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "bruno", nil).status)
	assert.Equal(t, 2, bucketCount(limiter))

	clock = clock.Add(bucketIdleTTL + time.Minute)
	require.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "support", nil).status)
	assert.Equal(t, 1, bucketCount(limiter), "idle callers are evicted")

	require.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil).status,
		"an evicted caller starts with a full bucket")
}

func bucketCount(l *RateLimiter) int {
	n := 0
	l.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestRateLimiter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 0}, client, nil, nil)
	limiter.now = func() time.Time { return clock }
	s := newTestServer(t, testTokens, limiter)

	assert.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil).status)
	assert.Equal(t, stdhttp.StatusTooManyRequests, s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil).status)
	assert.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "support", nil).status)

	key := "rl:user:a@x.com:" + itoa(clock.Unix())
	count, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "2", count)
	assert.True(t, mr.TTL(key) > 0)

	clock = clock.Add(time.Second)
	assert.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil).status)
}

func TestRateLimiter_RedisUnavailableFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	limiter := NewRateLimiter(config.RateLimitConfig{RPS: 1}, client, nil, nil)
	s := newTestServer(t, testTokens, limiter)
	assert.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil).status)
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{}, nil, nil, nil)
	s := newTestServer(t, testTokens, limiter)
	for i := 0; i < 20; i++ {
		require.Equal(t, stdhttp.StatusOK, s.do(t, stdhttp.MethodGet, "/api/tickets", "ana", nil).status)
	}
}
