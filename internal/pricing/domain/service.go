package domain

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

type UpdateRequest struct {
	HourlyRate              decimal.Decimal
	DailyRate               decimal.Decimal
	MonthlyRate             decimal.Decimal
	DailyRateHoursThreshold decimal.Decimal
}

type Service interface {
	// GetConfig returns the current config, creating and persisting the
	// default record first when none exists.
	GetConfig(context.Context) (PricingConfig, error)
	UpdateConfig(context.Context, UpdateRequest) (PricingConfig, error)
}

// MaxDailyRateHoursThreshold matches the INTEGER threshold column.
const MaxDailyRateHoursThreshold = math.MaxInt32

var (
	// ErrInvalidConfig marks a persisted config that cannot price a stay.
	ErrInvalidConfig     = errors.New("invalid_pricing_config")
	ErrInvalidHourlyRate = errors.New("invalid_hourly_rate")
	ErrInvalidDailyRate  = errors.New("invalid_daily_rate")
	ErrInvalidMonthly    = errors.New("invalid_monthly_rate")
	ErrInvalidThreshold  = errors.New("invalid_daily_rate_hours_threshold")
)
