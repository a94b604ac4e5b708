package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/parkpro/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalBucketAllowsBurstThenDenies(t *testing.T) {
	bucket := NewLocalBucket()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bucket.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := bucket.Allow(ctx, "k", 1, 3)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
	}

	res, err := bucket.Allow(ctx, "k", 1, 3)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 3, res.Limit)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Second, res.RetryAfter)

	other, err := bucket.Allow(ctx, "other", 1, 3)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "buckets are per key")

	fixed = fixed.Add(time.Second)
	res, err = bucket.Allow(ctx, "k", 1, 3)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "one token refills after a second")
}

func TestLocalBucketRejectsBadArgs(t *testing.T) {
	bucket := NewLocalBucket()
	_, err := bucket.Allow(context.Background(), "", 1, 1)
	require.ErrorIs(t, err, errEmptyKey)
	_, err = bucket.Allow(context.Background(), "k", 0, 1)
	require.ErrorIs(t, err, errInvalidRate)
}

func TestEntryLimiterDisabled(t *testing.T) {
	limiter, err := NewEntryLimiter(nil, config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowEntry(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestEntryLimiterLocalFallback(t *testing.T) {
	limiter, err := NewEntryLimiter(nil, config.Config{RateLimit: config.RateLimitConfig{
		Enabled:    true,
		EntryRate:  0.001,
		EntryBurst: 2,
	}}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, limiter.Enabled())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		res, err := limiter.AllowEntry(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := limiter.AllowEntry(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)
}

func TestEntryLimiterRejectsInvalidConfig(t *testing.T) {
	_, err := NewEntryLimiter(nil, config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}, zap.NewNop())
	require.Error(t, err)
}

func TestCastHelpers(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, int64(7), castToInt("7"))
	assert.InDelta(t, 2.5, castToFloat("2.5"), 1e-9)
	assert.InDelta(t, 0.0, castToFloat("nope"), 1e-9)
	assert.Equal(t, 2*time.Second, defaultBucketTTL(1, 1))
}
