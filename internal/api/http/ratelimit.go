package http

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ticketflow/ticketflow/internal/auth"
	"github.com/ticketflow/ticketflow/internal/config"
	"github.com/ticketflow/ticketflow/internal/observability"
	apperrors "github.com/ticketflow/ticketflow/pkg/util/errorutil"
)

const (
	limiterRedis  = "redis"
	limiterMemory = "memory"

	rateLimitWindow = time.Second

	// Memory buckets idle this long are dropped; a refilled bucket is
	// indistinguishable from a new one by then.
	bucketIdleTTL = 10 * time.Minute
)

// RateLimiter throttles callers by identity email, or by client IP before
// authentication. With a Redis client it counts requests in a shared fixed
// window; otherwise it keeps a token bucket per key in process memory.
type RateLimiter struct {
	rps     float64
	burst   int
	client  *redis.Client
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time

	buckets   sync.Map // key -> *memoryBucket
	lastSweep atomic.Int64
}

type memoryBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// NewRateLimiter builds a limiter. client may be nil.
func NewRateLimiter(cfg config.RateLimitConfig, client *redis.Client, metrics *observability.Metrics, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		rps:     cfg.RPS,
		burst:   cfg.Burst,
		client:  client,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Handle is the fiber middleware. It passes everything through when RPS <= 0.
func (l *RateLimiter) Handle(c *fiber.Ctx) error {
	if l.rps <= 0 {
		return c.Next()
	}
	key := rateLimitKey(c)
	if l.client != nil {
		return l.handleRedis(c, key)
	}
	return l.handleMemory(c, key)
}

func (l *RateLimiter) handleRedis(c *fiber.Ctx, key string) error {
	windowSeconds := int64(rateLimitWindow / time.Second)
	allowed := int64(l.rps*float64(windowSeconds)) + int64(l.burst)
	bucket := l.now().Unix() / windowSeconds
	redisKey := fmt.Sprintf("rl:%s:%d", key, bucket)

	ctx := c.UserContext()
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// Throttling is best effort; an unavailable Redis must not take the API down.
		l.logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
		return c.Next()
	}
	if count == 1 {
		_ = l.client.Expire(ctx, redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
	}
	if count > allowed {
		l.metrics.RecordRateLimit(limiterRedis, false)
		c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(windowSeconds, 10))
		return apperrors.NewRateLimited("rate limit exceeded")
	}
	l.metrics.RecordRateLimit(limiterRedis, true)
	return c.Next()
}

func (l *RateLimiter) handleMemory(c *fiber.Ctx, key string) error {
	now := l.now()
	allowed := l.bucket(key, now).AllowN(now, 1)
	l.sweep(now)
	if !allowed {
		l.metrics.RecordRateLimit(limiterMemory, false)
		c.Set(fiber.HeaderRetryAfter, "1")
		return apperrors.NewRateLimited("rate limit exceeded")
	}
	l.metrics.RecordRateLimit(limiterMemory, true)
	return c.Next()
}

func (l *RateLimiter) bucket(key string, now time.Time) *rate.Limiter {
	v, ok := l.buckets.Load(key)
	if !ok {
		burst := l.burst
		if burst < 1 {
			burst = 1
		}
		v, _ = l.buckets.LoadOrStore(key, &memoryBucket{limiter: rate.NewLimiter(rate.Limit(l.rps), burst)})
	}
	b := v.(*memoryBucket)
	b.lastSeen.Store(now.UnixNano())
	return b.limiter
}

// sweep drops idle buckets at most once per bucketIdleTTL, so the map holds
// only callers seen within roughly two TTLs.
func (l *RateLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(bucketIdleTTL) || !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-bucketIdleTTL).UnixNano()
	l.buckets.Range(func(key, v any) bool {
		if v.(*memoryBucket).lastSeen.Load() < cutoff {
			l.buckets.Delete(key)
		}
		return true
	})
}

func rateLimitKey(c *fiber.Ctx) string {
	if identity, ok := auth.IdentityFromContext(c); ok && identity.Email != "" {
		return "user:" + identity.Email
	}
	ip := c.IP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
