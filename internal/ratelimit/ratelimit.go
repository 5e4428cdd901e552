// internal/ratelimit/ratelimit.go
//
// Fixed-window request throttle backed by Redis.
//
// Context
// -------
// The public bulletin board is writable without login.  To keep a single
// client from flooding it, each post increments a per-client counter
// `genba:board:<client>:<window>` that expires with its window.  A nil
// *Limiter allows everything, so deployments without Redis just skip it.
//
// Notes
// -----
//   - INCR then EXPIRE on the first hit, the same pattern as a retry
//     counter.  A crash between the two leaves a key without TTL for one
//     window label only; the label changes every window so it is harmless.
//   - Redis errors fail open and are returned for logging.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimited is returned when a client exceeded its budget.  HTTP handlers
// map it to 429 Too Many Requests.
var ErrLimited = errors.New("rate limit exceeded")

// Counter is the subset of Redis the limiter uses.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Limiter allows Max events per Window for each key.
type Limiter struct {
	counter Counter
	prefix  string
	max     int64
	window  time.Duration
	now     func() time.Time
}

// New returns a limiter; max <= 0 yields nil (disabled).
func New(c Counter, prefix string, max int, window time.Duration) *Limiter {
	if max <= 0 || c == nil {
		return nil
	}
	return &Limiter{counter: c, prefix: prefix, max: int64(max), window: window, now: time.Now}
}

// Allow counts one event for key.  It returns ErrLimited once the window's
// budget is spent.  Counter failures are returned wrapped and should be
// treated as allowed.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	slot := l.now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	n, err := l.counter.Incr(ctx, k)
	if err != nil {
		return fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := l.counter.Expire(ctx, k, l.window); err != nil {
			return fmt.Errorf("ratelimit expire: %w", err)
		}
	}
	if n > l.max {
		return ErrLimited
	}
	return nil
}

// RedisCounter adapts a go-redis client to Counter.
type RedisCounter struct {
	rdb *redis.Client
}

// NewRedisClient dials lazily; go-redis connects on first command.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisCounter wraps rdb.
func NewRedisCounter(rdb *redis.Client) *RedisCounter { return &RedisCounter{rdb: rdb} }

// Incr implements Counter.
func (r *RedisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return r.rdb.Incr(ctx, key).Result()
}

// Expire implements Counter.
func (r *RedisCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.rdb.Expire(ctx, key, ttl).Err()
}
