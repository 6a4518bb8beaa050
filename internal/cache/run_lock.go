package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const (
	forecastRunLockKey = "lock:forecast:run"
	defaultLockTTL     = 5 * time.Minute
)

// ErrLockHeld is returned when another run already holds the lock.
var ErrLockHeld = errors.New("forecast run lock is held")

// ReleaseFunc gives the lock back. It is safe to call once.
type ReleaseFunc func(ctx context.Context) error

// RunLock guards against overlapping forecast runs.
type RunLock interface {
	Acquire(ctx context.Context) (ReleaseFunc, error)
}

type redisRunLock struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewRunLock returns a lock shared by every process talking to the same redis.
func NewRunLock(client redis.UniversalClient, ttl time.Duration) RunLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &redisRunLock{
		locker: redislock.New(client),
		ttl:    ttl,
	}
}

func (l *redisRunLock) Acquire(ctx context.Context) (ReleaseFunc, error) {
	lock, err := l.locker.Obtain(ctx, forecastRunLockKey, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, fmt.Errorf("obtain run lock: %w", err)
	}

	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// expired before the run finished
			return nil
		}
		return err
	}, nil
}

type localRunLock struct {
	mu sync.Mutex
}

// NewLocalRunLock only protects the current process. Used when redis is off.
func NewLocalRunLock() RunLock {
	return &localRunLock{}
}

func (l *localRunLock) Acquire(ctx context.Context) (ReleaseFunc, error) {
	if !l.mu.TryLock() {
		return nil, ErrLockHeld
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, nil
}
