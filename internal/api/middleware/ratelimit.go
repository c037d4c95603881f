package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meddist/internal-api/internal/api/handler/v1/response"
	"github.com/meddist/internal-api/internal/pkg/metrics"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit answers 429 once the client IP exceeds its quota. Limiter errors let the request through.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		allowed, err := l.Allow(ctx.Request.Context(), ctx.ClientIP())
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.Error(err))
			ctx.Next()
			return
		}

		if !allowed {
			metrics.RateLimited.Inc()
			response.RenderErr(ctx, response.ErrTooManyRequests())
			return
		}

		ctx.Next()
	}
}

// Sliding window over a sorted set, one member per request.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]
redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  return 0
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, math.ceil(window / 1000000))
return 1
`)

// RedisLimiter shares the quota between every API instance.
type RedisLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
	now      func() time.Time
}

func NewRedisLimiter(client *redis.Client, requests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		requests: requests,
		window:   window,
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := slidingWindowScript.Run(ctx, l.client, []string{"ratelimit:" + key},
		l.now().UnixNano(), l.window.Nanoseconds(), l.requests, uuid.NewString()).Int()
	if err != nil {
		return false, fmt.Errorf("slidingWindowScript.Run -> %w", err)
	}

	return res == 1, nil
}

// LocalLimiter keeps one token bucket per key in memory. Buckets idle for a whole window
// are full again, so they are dropped.
type LocalLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*localBucket
	limit     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(requests int, window time.Duration) *LocalLimiter {
	if requests < 1 {
		requests = 1
	}

	return &LocalLimiter{
		limiters: make(map[string]*localBucket),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		window:   window,
		now:      time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}

	bucket, ok := l.limiters[key]
	if !ok {
		bucket = &localBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = bucket
	}
	bucket.lastSeen = now
	l.mu.Unlock()

	return bucket.limiter.AllowN(now, 1), nil
}

// sweep must be called with mu held.
func (l *LocalLimiter) sweep(now time.Time) {
	for key, bucket := range l.limiters {
		if now.Sub(bucket.lastSeen) >= l.window {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// Len reports how many keys currently hold a bucket.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.limiters)
}
