package httpmiddleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter decides whether another request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucket is an in-memory per-key limiter.
type TokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
	now      func() time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates limiter with capacity tokens and rate per minute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
		now:      time.Now,
	}
}

// Allow takes one token for key.
func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.refill(key)
	if b == nil {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: l.now()}
		return l.capacity > 0, nil
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Blocked reports whether key has no tokens left without taking one.
func (l *TokenBucket) Blocked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.refill(key)
	return b != nil && b.tokens <= 0, nil
}

// Fail takes one token for key.
func (l *TokenBucket) Fail(ctx context.Context, key string) error {
	_, err := l.Allow(ctx, key)
	return err
}

// refill tops up the bucket for elapsed time. Caller holds mu.
func (l *TokenBucket) refill(key string) *bucket {
	b, ok := l.state[key]
	if !ok {
		return nil
	}
	now := l.now()
	n := int(now.Sub(b.last).Minutes() * float64(l.rate))
	if n > 0 {
		b.tokens += n
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	return b
}

// FailureLimiter blocks a key after too many failed attempts. Successful
// attempts are never counted.
type FailureLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
}

// RedisWindow counts failures per key in a fixed one-minute window shared by
// all API replicas. When Redis is unavailable it defers to fallback.
type RedisWindow struct {
	client   *redis.Client
	prefix   string
	limit    int
	fallback *TokenBucket
	now      func() time.Time
}

// NewRedisWindow blocks a key once it has limit failures in the current minute.
func NewRedisWindow(client *redis.Client, prefix string, limit int, fallback *TokenBucket) *RedisWindow {
	return &RedisWindow{client: client, prefix: prefix, limit: limit, fallback: fallback, now: time.Now}
}

func (l *RedisWindow) key(key string) string {
	return l.prefix + ":" + key + ":" + strconv.FormatInt(l.now().Unix()/60, 10)
}

// Blocked reads the failure count for the current window.
func (l *RedisWindow) Blocked(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(key)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		if l.fallback != nil {
			return l.fallback.Blocked(ctx, key)
		}
		return false, err
	}
	return n >= int64(l.limit), nil
}

// Fail increments the failure counter for the current window.
func (l *RedisWindow) Fail(ctx context.Context, key string) error {
	k := l.key(key)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		if l.fallback != nil {
			return l.fallback.Fail(ctx, key)
		}
		return err
	}
	return nil
}

// RateLimit returns a gin handler enforcing per-IP limits.
func RateLimit(l Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, err := l.Allow(c.Request.Context(), ip)
		if err != nil && logger != nil {
			logger.Warn("rate limiter degraded", zap.Error(err))
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

// LimitFailures rejects clients that are blocked and records every 4xx
// response other than 429 as a failure. Successful requests cost nothing.
func LimitFailures(l FailureLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		blocked, err := l.Blocked(c.Request.Context(), ip)
		if err != nil && logger != nil {
			logger.Warn("failure limiter degraded", zap.Error(err))
		}
		if blocked {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many failed attempts"})
			return
		}
		c.Next()
		status := c.Writer.Status()
		if status < 400 || status >= 500 || status == http.StatusTooManyRequests {
			return
		}
		if err := l.Fail(c.Request.Context(), ip); err != nil && logger != nil {
			logger.Warn("failure limiter degraded", zap.Error(err))
		}
	}
}
