package ratelimit

import (
	"context"
	"sync"

	"order-import-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter keeps one token bucket per key in process memory
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
}

// NewLocalLimiter creates an in-process token bucket limiter
func NewLocalLimiter(ratePerSecond float64, burst int) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(ratePerSecond),
		burst:   burst,
	}
}

// Allow takes a token from the key's bucket
func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.Allow(), nil
}

// tokenTaker is implemented by *redisclient.Client
type tokenTaker interface {
	TakeToken(ctx context.Context, bucket string, ratePerSecond float64, capacity int) (bool, error)
}

// RedisLimiter shares token buckets across replicas through Redis
type RedisLimiter struct {
	redis         tokenTaker
	ratePerSecond float64
	burst         int
}

// NewRedisLimiter creates a Redis-backed token bucket limiter
func NewRedisLimiter(redis tokenTaker, ratePerSecond float64, burst int) *RedisLimiter {
	return &RedisLimiter{
		redis:         redis,
		ratePerSecond: ratePerSecond,
		burst:         burst,
	}
}

// Allow takes a token from the shared bucket
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.redis.TakeToken(ctx, key, l.ratePerSecond, l.burst)
}

// FallbackLimiter asks primary first and falls back to secondary when primary errors
type FallbackLimiter struct {
	primary   Limiter
	secondary Limiter
	logger    *zap.Logger
}

// NewFallbackLimiter creates a limiter that degrades to secondary on primary failures
func NewFallbackLimiter(primary, secondary Limiter) *FallbackLimiter {
	return &FallbackLimiter{
		primary:   primary,
		secondary: secondary,
		logger:    util.GetLogger(),
	}
}

// Allow consults primary, then secondary if primary could not answer
func (l *FallbackLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, err := l.primary.Allow(ctx, key)
	if err == nil {
		return allowed, nil
	}

	l.logger.Warn("Primary rate limiter failed, falling back to local limiter",
		zap.String("key", key),
		zap.Error(err))

	return l.secondary.Allow(ctx, key)
}
