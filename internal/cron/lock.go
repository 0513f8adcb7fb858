package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/northwind-labs/storefront/pkg/instance"
)

const defaultLockTTL = time.Hour

// Lock guarantees at most one worker runs a cycle at a time.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// HolderReporter is implemented by locks that can name their current owner.
type HolderReporter interface {
	Holder(ctx context.Context) (string, error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	DelIfEqual(ctx context.Context, key, value string) (bool, error)
}

// RedisLock stores "<instance>:<uuid>" under key with SETNX and a TTL.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	token func() string
	held  string
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("redis client required for lock")
	case key == "":
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{
		store: store,
		key:   key,
		ttl:   ttl,
		token: func() string { return instance.GetID() + ":" + uuid.NewString() },
	}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := l.token()
	won, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if won {
		l.held = token
	}
	return won, nil
}

// Release deletes the key only while it still carries this lock's token.
// An expired or foreign lock is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.held == "" {
		return nil
	}
	if _, err := l.store.DelIfEqual(ctx, l.key, l.held); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	l.held = ""
	return nil
}

// Holder returns the token currently stored under the key, or "" when free.
func (l *RedisLock) Holder(ctx context.Context) (string, error) {
	v, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read lock holder: %w", err)
	}
	return v, nil
}
