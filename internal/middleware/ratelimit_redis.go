package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "storefront:ratelimit:"

// RedisLimiter is a fixed-window limiter shared by every instance using the
// same redis.
type RedisLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// RedisLimiterConfig holds redis limiter configuration
type RedisLimiterConfig struct {
	Limit  int           // Requests per window (default 100)
	Window time.Duration // Window length (default 1 minute)
	Prefix string
	Now    func() time.Time
}

// NewRedisLimiter creates a limiter backed by client
func NewRedisLimiter(client *redis.Client, cfg RedisLimiterConfig) *RedisLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultRedisPrefix
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RedisLimiter{
		redis:  client,
		limit:  cfg.Limit,
		window: cfg.Window,
		prefix: cfg.Prefix,
		now:    cfg.Now,
	}
}

func (l *RedisLimiter) key(k string) string {
	return l.prefix + k
}

// Allow counts the request in the current window.
func (l *RedisLimiter) Allow(ctx context.Context, k string) (Decision, error) {
	key := l.key(k)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.redis.PExpire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	ttl, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		// Key lost its expiry; restart the window.
		if err := l.redis.PExpire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = l.window
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		Reset:     l.now().Add(ttl),
	}, nil
}
