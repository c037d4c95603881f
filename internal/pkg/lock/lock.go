package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("lock not acquired")

type Unlock func(ctx context.Context) error

type Locker interface {
	Lock(ctx context.Context, name string) (Unlock, error)
}

// RedisLocker hands out redsync mutexes that expire after ttl.
type RedisLocker struct {
	rs  *redsync.Redsync
	ttl time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rs:  redsync.New(goredis.NewPool(client)),
		ttl: ttl,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, name string) (Unlock, error) {
	mutex := l.rs.NewMutex(name,
		redsync.WithExpiry(l.ttl),
		redsync.WithTries(32),
		redsync.WithRetryDelay(25*time.Millisecond),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, name, err)
	}

	return func(ctx context.Context) error {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			return fmt.Errorf("mutex.UnlockContext -> %w", err)
		}
		return nil
	}, nil
}

// NopLocker is used when Redis is disabled. Row versions still guard writes.
type NopLocker struct{}

func (NopLocker) Lock(context.Context, string) (Unlock, error) {
	return func(context.Context) error { return nil }, nil
}
