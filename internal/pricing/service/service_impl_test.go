package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/parkpro/internal/clock"
	"github.com/smallbiznis/parkpro/internal/config"
	"github.com/smallbiznis/parkpro/internal/pricing/domain"
	"github.com/smallbiznis/parkpro/internal/pricing/repository"
	"github.com/smallbiznis/parkpro/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPricingService(t *testing.T, defaults config.PricingDefaults) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.PricingConfig{}))

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Repo:     repository.Provide(),
		Defaults: config.NewStaticPricingDefaults(defaults),
		Clock:    clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	return svc, db
}

func countConfigs(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.PricingConfig{}).Count(&count).Error)
	return count
}

func TestGetConfigCreatesDefaultOnFirstRead(t *testing.T) {
	svc, db := setupPricingService(t, config.DefaultPricing())
	ctx := context.Background()

	require.Equal(t, int64(0), countConfigs(t, db))

	cfg, err := svc.GetConfig(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.HourlyRate.Equal(decimal.NewFromInt(30)))
	assert.True(t, cfg.DailyRate.Equal(decimal.NewFromInt(100)))
	assert.True(t, cfg.MonthlyRate.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 8, cfg.DailyRateHoursThreshold)
	assert.Equal(t, int64(1), countConfigs(t, db), "default must be persisted before use")

	again, err := svc.GetConfig(ctx)
	require.NoError(t, err)
	assert.True(t, again.HourlyRate.Equal(cfg.HourlyRate))
	assert.Equal(t, int64(1), countConfigs(t, db))
}

func TestGetConfigUsesConfiguredDefaults(t *testing.T) {
	svc, _ := setupPricingService(t, config.PricingDefaults{
		HourlyRate:              45.5,
		DailyRate:               200,
		MonthlyRate:             2500,
		DailyRateHoursThreshold: 10,
	})

	cfg, err := svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.HourlyRate.Equal(decimal.RequireFromString("45.5")), "got %s", cfg.HourlyRate)
	assert.Equal(t, 10, cfg.DailyRateHoursThreshold)
}

func TestUpdateConfigReplacesWholeRecord(t *testing.T) {
	svc, db := setupPricingService(t, config.DefaultPricing())
	ctx := context.Background()

	_, err := svc.GetConfig(ctx)
	require.NoError(t, err)

	updated, err := svc.UpdateConfig(ctx, domain.UpdateRequest{
		HourlyRate:              decimal.NewFromInt(50),
		DailyRate:               decimal.NewFromInt(300),
		MonthlyRate:             decimal.NewFromInt(3000),
		DailyRateHoursThreshold: decimal.NewFromInt(6),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.DailyRateHoursThreshold)

	current, err := svc.GetConfig(ctx)
	require.NoError(t, err)
	assert.True(t, current.HourlyRate.Equal(decimal.NewFromInt(50)))
	assert.True(t, current.DailyRate.Equal(decimal.NewFromInt(300)))
	assert.True(t, current.MonthlyRate.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 6, current.DailyRateHoursThreshold)
	assert.Equal(t, int64(1), countConfigs(t, db))
}

func TestUpdateConfigWithoutPriorReadCreatesRecord(t *testing.T) {
	svc, db := setupPricingService(t, config.DefaultPricing())

	_, err := svc.UpdateConfig(context.Background(), domain.UpdateRequest{
		HourlyRate:              decimal.NewFromInt(35),
		DailyRate:               decimal.NewFromInt(120),
		MonthlyRate:             decimal.NewFromInt(1100),
		DailyRateHoursThreshold: decimal.NewFromInt(8),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countConfigs(t, db))
}

func TestUpdateConfigValidation(t *testing.T) {
	svc, db := setupPricingService(t, config.DefaultPricing())

	_, err := svc.UpdateConfig(context.Background(), domain.UpdateRequest{
		HourlyRate:              decimal.Zero,
		DailyRate:               decimal.NewFromInt(-1),
		MonthlyRate:             decimal.NewFromInt(1000),
		DailyRateHoursThreshold: decimal.RequireFromString("8.5"),
	})
	require.Error(t, err)

	var vErr *validation.Errors
	require.True(t, errors.As(err, &vErr))
	assert.True(t, vErr.Has("hourly_rate"))
	assert.True(t, vErr.Has("daily_rate"))
	assert.False(t, vErr.Has("monthly_rate"))
	assert.True(t, vErr.Has("daily_rate_hours_threshold"))
	assert.Equal(t, int64(0), countConfigs(t, db), "rejected update must not touch the store")
}

func TestUpdateConfigValidatesStoredValues(t *testing.T) {
	valid := domain.UpdateRequest{
		HourlyRate:              decimal.NewFromInt(30),
		DailyRate:               decimal.NewFromInt(100),
		MonthlyRate:             decimal.NewFromInt(1000),
		DailyRateHoursThreshold: decimal.NewFromInt(8),
	}

	cases := []struct {
		name  string
		edit  func(*domain.UpdateRequest)
		field string
	}{
		{"sub-cent hourly rounds to zero", func(r *domain.UpdateRequest) { r.HourlyRate = decimal.RequireFromString("0.001") }, "hourly_rate"},
		{"sub-cent daily rounds to zero", func(r *domain.UpdateRequest) { r.DailyRate = decimal.RequireFromString("0.004") }, "daily_rate"},
		{"sub-cent monthly rounds to zero", func(r *domain.UpdateRequest) { r.MonthlyRate = decimal.RequireFromString("0.0049") }, "monthly_rate"},
		{"threshold beyond int64", func(r *domain.UpdateRequest) {
			r.DailyRateHoursThreshold = decimal.RequireFromString("9223372036854775808")
		}, "daily_rate_hours_threshold"},
		{"threshold beyond int32", func(r *domain.UpdateRequest) {
			r.DailyRateHoursThreshold = decimal.NewFromInt(math.MaxInt32 + 1)
		}, "daily_rate_hours_threshold"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, db := setupPricingService(t, config.DefaultPricing())
			req := valid
			tc.edit(&req)

			_, err := svc.UpdateConfig(context.Background(), req)
			var vErr *validation.Errors
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.True(t, vErr.Has(tc.field))
			assert.Equal(t, int64(0), countConfigs(t, db))
		})
	}
}

func TestUpdateConfigAcceptsSmallestRoundedValues(t *testing.T) {
	svc, _ := setupPricingService(t, config.DefaultPricing())

	cfg, err := svc.UpdateConfig(context.Background(), domain.UpdateRequest{
		HourlyRate:              decimal.RequireFromString("0.005"),
		DailyRate:               decimal.RequireFromString("0.01"),
		MonthlyRate:             decimal.RequireFromString("0.01"),
		DailyRateHoursThreshold: decimal.NewFromInt(math.MaxInt32),
	})
	require.NoError(t, err)
	assert.True(t, cfg.HourlyRate.Equal(decimal.RequireFromString("0.01")), "got %s", cfg.HourlyRate)
	assert.Equal(t, math.MaxInt32, cfg.DailyRateHoursThreshold)
	require.NoError(t, cfg.Validate())
}

func TestPricingConfigValidate(t *testing.T) {
	good := domain.PricingConfig{
		HourlyRate:              decimal.NewFromInt(30),
		DailyRate:               decimal.NewFromInt(100),
		MonthlyRate:             decimal.NewFromInt(1000),
		DailyRateHoursThreshold: 8,
	}
	require.NoError(t, good.Validate())

	bad := good
	bad.HourlyRate = decimal.Zero
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidConfig)

	bad = good
	bad.DailyRateHoursThreshold = -1
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidConfig)
}
