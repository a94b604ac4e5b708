package domain

import (
	"time"

	"github.com/shopspring/decimal"
	parkingdomain "github.com/smallbiznis/parkpro/internal/parking/domain"
	pricingdomain "github.com/smallbiznis/parkpro/internal/pricing/domain"
)

// Service turns a parked interval into a duration and an amount owed.
// Implementations are pure and safe for concurrent use.
type Service interface {
	CalculateDuration(entry, exit time.Time) Duration
	ComputeCharge(d Duration, class parkingdomain.CustomerClass, cfg pricingdomain.PricingConfig) decimal.Decimal
	Mode() SurchargeMode
}
