package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func serve(r *gin.Engine) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Code
}

func limitedRouter(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(l))
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	return r
}

func TestRateLimit_Local(t *testing.T) {
	r := limitedRouter(NewLocalLimiter(2, time.Hour))

	assert.Equal(t, http.StatusOK, serve(r))
	assert.Equal(t, http.StatusOK, serve(r))
	assert.Equal(t, http.StatusTooManyRequests, serve(r))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r := limitedRouter(failingLimiter{})

	assert.Equal(t, http.StatusOK, serve(r))
}

func TestLocalLimiter_DropsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		allowed, err := l.Allow(context.Background(), ip)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	assert.Equal(t, 3, l.Len())

	allowed, _ := l.Allow(context.Background(), "10.0.0.1")
	assert.False(t, allowed)

	now = now.Add(time.Minute)
	allowed, _ = l.Allow(context.Background(), "10.0.0.1")
	assert.True(t, allowed)
	assert.Equal(t, 1, l.Len())
}

// scriptRecorder answers every script call with 1 and keeps its arguments, so no Redis
// server is needed.
type scriptRecorder struct {
	args [][]any
}

func (r *scriptRecorder) DialHook(next redis.DialHook) redis.DialHook { return next }

func (r *scriptRecorder) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		r.args = append(r.args, cmd.Args())
		if c, ok := cmd.(*redis.Cmd); ok {
			c.SetVal(int64(1))
		}
		return nil
	}
}

func (r *scriptRecorder) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

var _ redis.Hook = (*scriptRecorder)(nil)

func TestRedisLimiter_UniqueMemberPerRequest(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rec := &scriptRecorder{}
	client.AddHook(rec)

	l := NewRedisLimiter(client, 10, time.Minute)
	frozen := time.Unix(1700000000, 0)
	l.now = func() time.Time { return frozen }

	for i := 0; i < 2; i++ {
		allowed, err := l.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	require.Len(t, rec.args, 2)
	first, second := rec.args[0], rec.args[1]
	assert.Equal(t, first[len(first)-4], second[len(second)-4], "same timestamp")
	assert.NotEqual(t, first[len(first)-1], second[len(second)-1])
}
