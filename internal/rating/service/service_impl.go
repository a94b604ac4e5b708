package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/parkpro/internal/config"
	parkingdomain "github.com/smallbiznis/parkpro/internal/parking/domain"
	pricingdomain "github.com/smallbiznis/parkpro/internal/pricing/domain"
	ratingdomain "github.com/smallbiznis/parkpro/internal/rating/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	msPerMinute = int64(60 * 1000)
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

var surchargeMultiplier = decimal.NewFromInt(2)

type ServiceParam struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

type Service struct {
	mode ratingdomain.SurchargeMode
}

func NewService(p ServiceParam) ratingdomain.Service {
	mode := ratingdomain.ParseSurchargeMode(p.Cfg.Parking.SurchargeMode)
	p.Log.Named("rating.service").Info("rating policy loaded", zap.String("surcharge_mode", string(mode)))
	return New(mode)
}

func New(mode ratingdomain.SurchargeMode) *Service {
	return &Service{mode: mode}
}

func (s *Service) Mode() ratingdomain.SurchargeMode { return s.mode }

func (s *Service) CalculateDuration(entry, exit time.Time) ratingdomain.Duration {
	return CalculateDuration(entry, exit)
}

func (s *Service) ComputeCharge(d ratingdomain.Duration, class parkingdomain.CustomerClass, cfg pricingdomain.PricingConfig) decimal.Decimal {
	return ComputeCharge(s.mode, d, class, cfg)
}

// CalculateDuration breaks the interval down by successive integer division
// of the millisecond difference. A negative interval yields the zero duration.
func CalculateDuration(entry, exit time.Time) ratingdomain.Duration {
	diff := exit.Sub(entry).Milliseconds()
	if diff < 0 {
		diff = 0
	}
	total := diff / msPerMinute

	days := diff / msPerDay
	diff -= days * msPerDay
	hours := diff / msPerHour
	diff -= hours * msPerHour
	minutes := diff / msPerMinute

	return ratingdomain.Duration{
		Days:         days,
		Hours:        hours,
		Minutes:      minutes,
		TotalMinutes: total,
		Label:        durationLabel(days, hours, minutes),
	}
}

func durationLabel(days, hours, minutes int64) string {
	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, strconv.FormatInt(days, 10)+"d")
	}
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+"h")
	}
	if minutes > 0 || (days == 0 && hours == 0) {
		parts = append(parts, strconv.FormatInt(minutes, 10)+"m")
	}
	return strings.Join(parts, " ")
}

// ComputeCharge prices a stay. Monthly subscribers are pre-paid and always
// owe zero. cfg must pass PricingConfig.Validate.
func ComputeCharge(mode ratingdomain.SurchargeMode, d ratingdomain.Duration, class parkingdomain.CustomerClass, cfg pricingdomain.PricingConfig) decimal.Decimal {
	if class == parkingdomain.CustomerClassMonthly {
		return decimal.Zero
	}
	if cfg.HourlyRate.IsNegative() {
		return decimal.Zero
	}

	billable := d.BillableHours()
	threshold := int64(cfg.DailyRateHoursThreshold)
	if threshold < 0 {
		threshold = 0
	}
	rate := cfg.HourlyRate

	if billable <= threshold {
		return rate.Mul(decimal.NewFromInt(billable)).Round(2)
	}

	surchargeRate := rate.Mul(surchargeMultiplier)
	if mode == ratingdomain.SurchargeFull {
		return surchargeRate.Mul(decimal.NewFromInt(billable)).Round(2)
	}

	base := rate.Mul(decimal.NewFromInt(threshold))
	excess := surchargeRate.Mul(decimal.NewFromInt(billable - threshold))
	return base.Add(excess).Round(2)
}
