package activelock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"
)

const (
	// Redis key prefix for active-transfer locks
	lockKeyPrefix = "transfer:active:"

	// defaultLockTTL bounds how long a crashed initiation can hold a fowl.
	// The value comfortably exceeds the verification window so the lock
	// never expires under a live transfer; terminal transitions release
	// it explicitly.
	defaultLockTTL = 14 * 24 * time.Hour
)

// RedisLock is the distributed implementation, shared by all instances.
// The lock value is the holding transfer id so re-acquisition by the same
// transfer stays idempotent.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisLockOption configures a RedisLock instance.
type RedisLockOption func(*RedisLock)

// WithTTL overrides the lock expiry.
func WithTTL(ttl time.Duration) RedisLockOption {
	return func(l *RedisLock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func NewRedisLock(client *redis.Client, opts ...RedisLockOption) *RedisLock {
	l := &RedisLock{
		client: client,
		ttl:    defaultLockTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *RedisLock) Acquire(ctx context.Context, fowlID id.FowlID, transferID id.TransferID) error {
	key := lockKeyPrefix + fowlID.String()
	ok, err := l.client.SetNX(ctx, key, transferID.String(), l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire transfer lock: %w", err)
	}
	if ok {
		return nil
	}

	holder, err := l.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("acquire transfer lock: %w", err)
	}
	if holder == transferID.String() {
		return nil
	}
	return sentinel.ErrConflict
}

func (l *RedisLock) Release(ctx context.Context, fowlID id.FowlID) error {
	if err := l.client.Del(ctx, lockKeyPrefix+fowlID.String()).Err(); err != nil {
		return fmt.Errorf("release transfer lock: %w", err)
	}
	return nil
}
