package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/parkpro/internal/clock"
	"github.com/smallbiznis/parkpro/internal/config"
	"github.com/smallbiznis/parkpro/internal/pricing/domain"
	"github.com/smallbiznis/parkpro/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var maxThreshold = decimal.NewFromInt(domain.MaxDailyRateHoursThreshold)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	Defaults *config.PricingDefaultsHolder
	Clock    clock.Clock
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	defaults *config.PricingDefaultsHolder
	clock    clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("pricing.service"),
		repo:     p.Repo,
		defaults: p.Defaults,
		clock:    p.Clock,
	}
}

func (s *Service) GetConfig(ctx context.Context) (domain.PricingConfig, error) {
	current, err := s.repo.Get(ctx, s.db, domain.DefaultConfigKey)
	if err != nil {
		return domain.PricingConfig{}, err
	}
	if current != nil {
		return *current, nil
	}

	seed := s.defaultConfig()
	if err := s.repo.InsertIfAbsent(ctx, s.db, &seed); err != nil {
		return domain.PricingConfig{}, err
	}

	// Another instance may have won the insert; read back whatever persisted.
	current, err = s.repo.Get(ctx, s.db, domain.DefaultConfigKey)
	if err != nil {
		return domain.PricingConfig{}, err
	}
	if current == nil {
		return domain.PricingConfig{}, errors.New("pricing config missing after seed")
	}

	s.log.Info("pricing config not found, created default",
		zap.String("hourly_rate", current.HourlyRate.String()),
		zap.String("daily_rate", current.DailyRate.String()),
		zap.String("monthly_rate", current.MonthlyRate.String()),
		zap.Int("daily_rate_hours_threshold", current.DailyRateHoursThreshold),
	)
	return *current, nil
}

func (s *Service) UpdateConfig(ctx context.Context, req domain.UpdateRequest) (domain.PricingConfig, error) {
	hourly := req.HourlyRate.Round(2)
	daily := req.DailyRate.Round(2)
	monthly := req.MonthlyRate.Round(2)

	var errs validation.Errors
	if !hourly.IsPositive() {
		errs.Add("hourly_rate", domain.ErrInvalidHourlyRate.Error(), "hourly rate must be at least 0.01")
	}
	if !daily.IsPositive() {
		errs.Add("daily_rate", domain.ErrInvalidDailyRate.Error(), "daily rate must be at least 0.01")
	}
	if !monthly.IsPositive() {
		errs.Add("monthly_rate", domain.ErrInvalidMonthly.Error(), "monthly rate must be at least 0.01")
	}
	threshold := req.DailyRateHoursThreshold
	if !threshold.IsPositive() || !threshold.IsInteger() || threshold.GreaterThan(maxThreshold) {
		errs.Add("daily_rate_hours_threshold", domain.ErrInvalidThreshold.Error(), "threshold must be a whole number of hours between 1 and 2147483647")
	}
	if err := errs.Err(); err != nil {
		return domain.PricingConfig{}, err
	}

	cfg := domain.PricingConfig{
		ConfigKey:               domain.DefaultConfigKey,
		HourlyRate:              hourly,
		DailyRate:               daily,
		MonthlyRate:             monthly,
		DailyRateHoursThreshold: int(threshold.IntPart()),
		UpdatedAt:               s.now(),
	}
	if err := s.repo.Replace(ctx, s.db, &cfg); err != nil {
		return domain.PricingConfig{}, err
	}

	s.log.Info("pricing config updated",
		zap.String("hourly_rate", cfg.HourlyRate.String()),
		zap.String("daily_rate", cfg.DailyRate.String()),
		zap.String("monthly_rate", cfg.MonthlyRate.String()),
		zap.Int("daily_rate_hours_threshold", cfg.DailyRateHoursThreshold),
	)
	return cfg, nil
}

func (s *Service) defaultConfig() domain.PricingConfig {
	defaults := s.defaults.Get()
	return domain.PricingConfig{
		ConfigKey:               domain.DefaultConfigKey,
		HourlyRate:              decimal.NewFromFloat(defaults.HourlyRate).Round(2),
		DailyRate:               decimal.NewFromFloat(defaults.DailyRate).Round(2),
		MonthlyRate:             decimal.NewFromFloat(defaults.MonthlyRate).Round(2),
		DailyRateHoursThreshold: defaults.DailyRateHoursThreshold,
		UpdatedAt:               s.now(),
	}
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}
