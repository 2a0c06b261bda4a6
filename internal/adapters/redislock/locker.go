// Package redislock implements ports.Locker on Redis.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"onboardhub/internal/domain"
	"onboardhub/internal/ports"
)

const keyPrefix = "onboardhub:lock:"

type Locker struct {
	rdb    *redis.Client
	client *redislock.Client
}

var _ ports.Locker = (*Locker)(nil)

// Connect dials addr and verifies the connection with a ping.
func Connect(ctx context.Context, addr, password string) (*Locker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(rdb), nil
}

func New(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb, client: redislock.New(rdb)}
}

// Obtain tries once; a held key yields domain.ErrLocked rather than waiting.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, keyPrefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}

func (l *Locker) Close() error {
	return l.rdb.Close()
}
