package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingDefaults seeds the persisted pricing configuration the first time it
// is read. Once the record exists the database is authoritative.
type PricingDefaults struct {
	HourlyRate              float64 `mapstructure:"hourlyRate"`
	DailyRate               float64 `mapstructure:"dailyRate"`
	MonthlyRate             float64 `mapstructure:"monthlyRate"`
	DailyRateHoursThreshold int     `mapstructure:"dailyRateHoursThreshold"`
}

func DefaultPricing() PricingDefaults {
	return PricingDefaults{
		HourlyRate:              30,
		DailyRate:               100,
		MonthlyRate:             1000,
		DailyRateHoursThreshold: 8,
	}
}

type PricingDefaultsHolder struct {
	current atomic.Value // holds PricingDefaults
}

func NewPricingDefaultsHolder() (*PricingDefaultsHolder, error) {
	return newPricingDefaultsHolder(true, "/var/lib/parkpro/config", "/etc/parkpro", ".")
}

// NewStaticPricingDefaults returns a holder that never reloads.
func NewStaticPricingDefaults(defaults PricingDefaults) *PricingDefaultsHolder {
	holder := &PricingDefaultsHolder{}
	holder.current.Store(defaults)
	return holder
}

func newPricingDefaultsHolder(watch bool, paths ...string) (*PricingDefaultsHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("PARKPRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricing()
	v.SetDefault("pricing.hourlyRate", defaults.HourlyRate)
	v.SetDefault("pricing.dailyRate", defaults.DailyRate)
	v.SetDefault("pricing.monthlyRate", defaults.MonthlyRate)
	v.SetDefault("pricing.dailyRateHoursThreshold", defaults.DailyRateHoursThreshold)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg PricingDefaults
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingDefaults(cfg); err != nil {
		return nil, err
	}

	holder := &PricingDefaultsHolder{}
	holder.current.Store(cfg)

	if watch && fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated PricingDefaults
			if err := v.UnmarshalKey("pricing", &updated); err != nil {
				log.Printf("[pricing-defaults] reload failed: %v", err)
				return
			}
			if err := validatePricingDefaults(updated); err != nil {
				log.Printf("[pricing-defaults] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[pricing-defaults] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *PricingDefaultsHolder) Get() PricingDefaults {
	if h == nil {
		return DefaultPricing()
	}
	value, ok := h.current.Load().(PricingDefaults)
	if !ok {
		return DefaultPricing()
	}
	return value
}

func validatePricingDefaults(cfg PricingDefaults) error {
	if cfg.HourlyRate <= 0 {
		return errors.New("pricing.hourlyRate must be positive")
	}
	if cfg.DailyRate <= 0 {
		return errors.New("pricing.dailyRate must be positive")
	}
	if cfg.MonthlyRate <= 0 {
		return errors.New("pricing.monthlyRate must be positive")
	}
	if cfg.DailyRateHoursThreshold <= 0 {
		return errors.New("pricing.dailyRateHoursThreshold must be positive")
	}
	return nil
}
