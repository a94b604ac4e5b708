package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueStats sums the revenue ledger over calendar windows of the
// configured business timezone.
type RevenueStats struct {
	Today   decimal.Decimal `json:"today"`
	Month   decimal.Decimal `json:"month"`
	AllTime decimal.Decimal `json:"all_time"`
}

// ExpiringSubscription is a parked monthly vehicle whose term ends soon.
type ExpiringSubscription struct {
	SessionID     string    `json:"session_id"`
	LicensePlate  string    `json:"license_plate"`
	EntryAt       time.Time `json:"entry_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	DaysRemaining int       `json:"days_remaining"`
}

type RevenueRecord struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"`
	CarPlate string          `json:"car_plate"`
	Date     time.Time       `json:"date"`
}

type Overview struct {
	ParkedCount           int64                  `json:"parked_count"`
	MonthlySubscribers    int64                  `json:"monthly_subscribers"`
	ExpiringSubscriptions []ExpiringSubscription `json:"expiring_subscriptions"`
	Revenue               RevenueStats           `json:"revenue"`
	RecentRevenue         []RevenueRecord        `json:"recent_revenue"`
	GeneratedAt           time.Time              `json:"generated_at"`
}
