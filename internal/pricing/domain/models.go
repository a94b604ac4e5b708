package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultConfigKey identifies the single process-wide pricing record.
const DefaultConfigKey = "default"

// PricingConfig holds the current rates. It is always replaced as a whole.
type PricingConfig struct {
	ConfigKey               string          `gorm:"primaryKey;type:varchar(64)" json:"-"`
	HourlyRate              decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"hourly_rate"`
	DailyRate               decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"daily_rate"`
	MonthlyRate             decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"monthly_rate"`
	DailyRateHoursThreshold int             `gorm:"not null" json:"daily_rate_hours_threshold"`
	UpdatedAt               time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (PricingConfig) TableName() string { return "pricing_configs" }

// Validate reports whether a stored config can price a stay.
func (c PricingConfig) Validate() error {
	switch {
	case !c.HourlyRate.IsPositive():
		return fmt.Errorf("%w: hourly_rate %s", ErrInvalidConfig, c.HourlyRate)
	case !c.DailyRate.IsPositive():
		return fmt.Errorf("%w: daily_rate %s", ErrInvalidConfig, c.DailyRate)
	case !c.MonthlyRate.IsPositive():
		return fmt.Errorf("%w: monthly_rate %s", ErrInvalidConfig, c.MonthlyRate)
	case c.DailyRateHoursThreshold <= 0 || c.DailyRateHoursThreshold > MaxDailyRateHoursThreshold:
		return fmt.Errorf("%w: daily_rate_hours_threshold %d", ErrInvalidConfig, c.DailyRateHoursThreshold)
	}
	return nil
}
