// Package ratelimit bounds the request rate per client before a request
// reaches the activity pipeline.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gramwave/gramwave/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyRequest = "gramwave:ratelimit:%s"

// RequestLimiter applies a shared token bucket per client key. A nil
// limiter means rate limiting is disabled.
type RequestLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewRequestLimiter(cfg config.Config) (*RequestLimiter, error) {
	if !cfg.RateLimitEnabled {
		return nil, nil
	}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, fmt.Errorf("rate limit enabled but REDIS_ADDR is empty")
	}
	if cfg.RateLimitRate <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("rate limit rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("rate limit redis ping: %w", err)
	}

	return &RequestLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RateLimitRate,
		burst:  cfg.RateLimitBurst,
	}, nil
}

// Allow consumes one token for the client key.
func (l *RequestLimiter) Allow(ctx context.Context, clientKey string) (Result, error) {
	if l == nil {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyRequest, clientKey), l.rate, l.burst)
}
