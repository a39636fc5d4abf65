// Package lock provides short-lived named locks used to serialize bookings per bike.
package lock

import (
	"context"
	"errors"
	"time"
)

var ErrNotAcquired = errors.New("lock held by another request")

// Locker acquires a named lock for at most ttl. The returned release func is safe to call once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Noop always succeeds. Used when no Redis is configured; row locks in Postgres still apply.
type Noop struct{}

func (Noop) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
