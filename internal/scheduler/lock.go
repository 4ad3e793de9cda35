package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockKey is the redis key guarding indexing cycles across processes.
const DefaultLockKey = "arcadeindexor:cycle:lock"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker grants exclusive access to the watermark across processes.
type Locker interface {
	// TryLock attempts to take the lock without waiting.
	// When acquired it returns a release function that must be called once the cycle ends.
	TryLock(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

// RedisLock is a Locker backed by SET NX PX and a compare-and-delete release.
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

var _ Locker = (*RedisLock)(nil)

// NewRedisLock creates a lock on key that expires after ttl if never released.
func NewRedisLock(client redis.UniversalClient, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = DefaultLockKey
	}
	return &RedisLock{client: client, key: key, ttl: ttl}
}

// TryLock implements Locker. Every acquisition uses a fresh owner token so a
// release never deletes a lock that expired and was taken by someone else.
func (l *RedisLock) TryLock(ctx context.Context) (func(context.Context) error, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lock %s: %w", l.key, err)
		}
		return nil
	}

	return release, true, nil
}

// Key returns the redis key of the lock.
func (l *RedisLock) Key() string {
	return l.key
}
