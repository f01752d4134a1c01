// Package ratelimit implements fixed-window request limits keyed by client.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

func result(count, limit int, now, start time.Time, window time.Duration) Result {
	if count > limit {
		return Result{Allowed: false, Remaining: 0, RetryAfter: start.Add(window).Sub(now)}
	}
	return Result{Allowed: true, Remaining: limit - count}
}

// RedisLimiter shares counters between server instances. Each window gets
// its own key, so INCR and EXPIRE can be pipelined without a race.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	start := windowStart(now, l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, start.Unix())

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return result(int(incr.Val()), l.limit, now, start, l.window), nil
}

// MemoryLimiter keeps counters in process. Used when Redis is not
// configured and as the fallback when it is unreachable.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows map[string]*counter
}

type counter struct {
	start time.Time
	count int
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: map[string]*counter{},
	}
}

// WithClock replaces the time source.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := windowStart(now, l.window)

	c, ok := l.windows[key]
	if !ok || !c.start.Equal(start) {
		if len(l.windows) > 10000 {
			l.sweep(start)
		}
		c = &counter{start: start}
		l.windows[key] = c
	}
	c.count++

	return result(c.count, l.limit, now, start, l.window), nil
}

// sweep drops counters of finished windows.
func (l *MemoryLimiter) sweep(current time.Time) {
	for k, c := range l.windows {
		if c.start.Before(current) {
			delete(l.windows, k)
		}
	}
}

// Fallback consults primary and switches to secondary for any call where
// primary fails, so a Redis outage degrades to per-instance limits instead
// of rejecting logins.
type Fallback struct {
	primary   Limiter
	secondary Limiter
	log       *zap.Logger
}

func NewFallback(primary, secondary Limiter, log *zap.Logger) *Fallback {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fallback{primary: primary, secondary: secondary, log: log}
}

func (f *Fallback) Allow(ctx context.Context, key string) (Result, error) {
	res, err := f.primary.Allow(ctx, key)
	if err == nil {
		return res, nil
	}
	f.log.Warn("primary rate limiter failed, using fallback", zap.Error(err))
	return f.secondary.Allow(ctx, key)
}
