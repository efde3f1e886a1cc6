// Package ratelimit provides the shared cooldown store that gates
// notification dispatch, keyed by (channel, incident). Grounded in
// check_rate_limit in original_source/backend/core/notifications.py,
// which the distilled spec.md §9 calls out to replace with a shared store
// (the original keeps an in-memory dict, fine for a single node but wrong
// once notify runs behind more than one instance).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter atomically checks and sets a cooldown key. CheckAndSet
// returns true when the caller may proceed (the key was not already set
// within cooldown), and unconditionally refreshes the key's TTL as a side
// effect of a successful check — mirroring check_rate_limit's
// read-then-write.
type RateLimiter interface {
	CheckAndSet(ctx context.Context, key string, cooldown time.Duration) (bool, error)
}

const keyPrefix = "solace:ratelimit:"

// RedisRateLimiter backs the cooldown store with Redis SET NX PX, making it
// safe across multiple notify-dispatching instances.
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter wraps an existing client.
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

func (r *RedisRateLimiter) CheckAndSet(ctx context.Context, key string, cooldown time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), cooldown).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// LocalRateLimiter is a mutex-guarded map fallback for single-node
// deployments with no Redis configured.
type LocalRateLimiter struct {
	mu      sync.Mutex
	lastSet map[string]time.Time
}

// NewLocalRateLimiter returns a ready-to-use in-process limiter.
func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{lastSet: make(map[string]time.Time)}
}

func (l *LocalRateLimiter) CheckAndSet(ctx context.Context, key string, cooldown time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	last, ok := l.lastSet[key]
	if ok && now.Sub(last) < cooldown {
		return false, nil
	}
	l.lastSet[key] = now
	return true, nil
}

// New picks a RedisRateLimiter when redisURL parses, falling back to a
// process-local limiter otherwise. Shared by cmd/api and cmd/worker so
// that running both against the same Redis gives them one cooldown store
// instead of two independent local ones undermining the shared-cooldown
// guarantee.
func New(redisURL string) RateLimiter {
	if redisURL == "" {
		return NewLocalRateLimiter()
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return NewLocalRateLimiter()
	}
	return NewRedisRateLimiter(redis.NewClient(opts))
}
