package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalBucket is a per-process fallback used when no redis address is
// configured. Limits are per instance.
type LocalBucket struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

func NewLocalBucket() *LocalBucket {
	return &LocalBucket{
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

func (b *LocalBucket) Allow(ctx context.Context, key string, r float64, burst int) (*RateLimitResult, error) {
	if err := ctx.Err(); err != nil {
		return &RateLimitResult{Allowed: false}, err
	}
	if err := checkArgs(key, r, burst); err != nil {
		return &RateLimitResult{Allowed: false}, err
	}

	b.mu.Lock()
	limiter, ok := b.limiters[key]
	if !ok || limiter.Limit() != rate.Limit(r) || limiter.Burst() != burst {
		limiter = rate.NewLimiter(rate.Limit(r), burst)
		b.limiters[key] = limiter
	}
	b.mu.Unlock()

	now := b.now()
	allowed := limiter.AllowN(now, 1)
	return buildResult(allowed, limiter.TokensAt(now), r, burst, now), nil
}

var (
	_ Bucket = (*LocalBucket)(nil)
	_ Bucket = (*TokenBucket)(nil)
)
