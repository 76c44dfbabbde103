package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Lock guards a cron cycle so only one worker replica processes jobs at a
// time. Acquire reports false when another holder has the lock.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// lockStore is the slice of the redis client the lock needs.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// defaultLockTTL backstops a worker that dies without releasing: slightly
// longer than the hourly cycle so a healthy holder never loses the lock
// mid-cycle, short enough that a crashed one is replaced within two cycles.
const defaultLockTTL = 2 * time.Hour

// RedisLock implements Lock with SETNX and an owner token, so a replica can
// only release a lock it acquired itself.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	owner string
}

// NewRedisLock builds a RedisLock on the given key. A non-positive ttl falls
// back to defaultLockTTL.
func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("cron lock requires a redis store")
	}
	if key == "" {
		return nil, errors.New("cron lock requires a key")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{
		store: store,
		key:   key,
		ttl:   ttl,
		owner: uuid.NewString(),
	}, nil
}

// Acquire attempts to take the lock for this replica.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.store.SetNX(ctx, l.key, l.owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire cron lock %s: %w", l.key, err)
	}
	return ok, nil
}

// Release drops the lock if this replica still owns it. A missing key means
// the TTL already expired, which is fine.
func (l *RedisLock) Release(ctx context.Context) error {
	current, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("inspect cron lock %s: %w", l.key, err)
	}
	if current != l.owner {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release cron lock %s: %w", l.key, err)
	}
	return nil
}
