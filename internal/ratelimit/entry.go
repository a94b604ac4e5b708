package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/parkpro/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyEntryClient = "parking:entry:client:%s"

// EntryLimiter throttles vehicle entry requests per client.
type EntryLimiter struct {
	enabled bool
	bucket  Bucket
	rate    float64
	burst   int
}

func NewEntryLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*EntryLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if limitCfg.EntryRate <= 0 || limitCfg.EntryBurst <= 0 {
		return nil, errors.New("entry rate limit must be positive")
	}
	log = log.Named("ratelimit")

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		log.Info("entry rate limit using in-process buckets")
		return NewEntryLimiterWithBucket(NewLocalBucket(), limitCfg.EntryRate, limitCfg.EntryBurst), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	if lc != nil {
		lc.Append(fx.StopHook(client.Close))
	}
	log.Info("entry rate limit using redis", zap.String("addr", addr))
	return NewEntryLimiterWithBucket(NewTokenBucket(client), limitCfg.EntryRate, limitCfg.EntryBurst), nil
}

func NewEntryLimiterWithBucket(bucket Bucket, rate float64, burst int) *EntryLimiter {
	return &EntryLimiter{
		enabled: bucket != nil,
		bucket:  bucket,
		rate:    rate,
		burst:   burst,
	}
}

func (l *EntryLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowEntry consumes one token for clientKey. A disabled limiter allows
// everything.
func (l *EntryLimiter) AllowEntry(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyEntryClient, clientKey), l.rate, l.burst)
}
