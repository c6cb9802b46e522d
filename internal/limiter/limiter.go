// Package limiter provides the fixed-window request counter shared by the
// gateway and the realtime bridge. Windows are keyed by client origin and
// the current time bucket; counters live in a store visible to every
// process instance.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the shared counter store. The increment must be atomic (a
// single round-trip increment-and-read) so concurrent bursts from one
// origin are not undercounted.
type Counter interface {
	// IncrWindow increments key and returns the post-increment count.
	// On the first increment of a key the store arms the given TTL;
	// the window then expires on its own and is never deleted explicitly.
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisCounter implements Counter with INCR + EXPIRE-on-first-hit.
type RedisCounter struct{ RDB *redis.Client }

func NewRedisCounter(rdb *redis.Client) *RedisCounter { return &RedisCounter{RDB: rdb} }

func (c *RedisCounter) IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := c.RDB.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.RDB.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// Limiter counts attempts per origin per window bucket.
type Limiter struct {
	Store  Counter
	Prefix string        // key namespace, e.g. "wsrate"
	Limit  int64         // attempts allowed per bucket
	Window time.Duration // bucket length
	Now    func() time.Time
}

func New(store Counter, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{Store: store, Prefix: prefix, Limit: int64(limit), Window: window}
}

// Allow records one attempt from origin and reports whether it stays within
// the limit for the current bucket. A store error is returned as-is; the
// caller decides how a broken limiter maps to its protocol (the bridge
// fails closed with a distinct reason).
func (l *Limiter) Allow(ctx context.Context, origin string) (bool, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	bucket := now.UnixMilli() / l.Window.Milliseconds()
	key := fmt.Sprintf("%s:%s:%d", l.Prefix, origin, bucket)
	n, err := l.Store.IncrWindow(ctx, key, l.Window)
	if err != nil {
		return false, err
	}
	return n <= l.Limit, nil
}
