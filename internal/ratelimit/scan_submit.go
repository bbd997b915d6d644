package ratelimit

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/sitescope/sitescope/internal/config"
)

const keyScanSubmit = "scan:submit:user:%s"

// ScanSubmitLimiter throttles scan submissions per user. State lives in
// redis, never in-process, so every instance of the service shares one
// view of the budget.
type ScanSubmitLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewScanSubmitLimiter(cfg config.Config) (*ScanSubmitLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	if limitCfg.RedisAddr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ScanSubmitRate <= 0 || limitCfg.ScanSubmitBurst <= 0 {
		return nil, errors.New("scan submit rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     limitCfg.RedisAddr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})

	return &ScanSubmitLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.ScanSubmitRate,
		burst:   limitCfg.ScanSubmitBurst,
	}, nil
}

// Allow reports whether userID may submit another scan right now. A nil
// limiter always allows.
func (l *ScanSubmitLimiter) Allow(ctx context.Context, userID string) (*Result, error) {
	if l == nil || !l.enabled {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyScanSubmit, userID), l.rate, l.burst)
}
