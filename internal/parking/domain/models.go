package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CustomerClass string

const (
	CustomerClassRegular CustomerClass = "regular"
	CustomerClassMonthly CustomerClass = "monthly"
)

// ParseCustomerClass accepts the class names case-insensitively; an empty
// value means a regular customer.
func ParseCustomerClass(raw string) (CustomerClass, bool) {
	switch CustomerClass(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CustomerClassRegular:
		return CustomerClassRegular, true
	case CustomerClassMonthly:
		return CustomerClassMonthly, true
	default:
		return "", false
	}
}

type SessionStatus string

const (
	SessionStatusParked SessionStatus = "parked"
	SessionStatusExited SessionStatus = "exited"
)

// Session is one continuous parked-to-exited occupancy of a vehicle.
type Session struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	LicensePlate   string        `gorm:"type:text;not null" json:"license_plate"`
	PlateKey       string        `gorm:"type:varchar(64);not null;index" json:"-"`
	CustomerMobile string        `gorm:"type:text;not null" json:"customer_mobile"`
	CustomerClass  CustomerClass `gorm:"type:varchar(16);not null" json:"customer_class"`
	EntryAt        time.Time     `gorm:"not null" json:"entry_at"`
	ExitAt         *time.Time    `json:"exit_at,omitempty"`
	Status         SessionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	ReceiptID      *snowflake.ID `json:"receipt_id,omitempty"`
	Version        int64         `gorm:"not null;default:1" json:"-"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "parking_sessions" }

func (s Session) IsParked() bool {
	return s.Status == SessionStatusParked
}

// Receipt is the immutable record of a completed session.
type Receipt struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	SessionID       snowflake.ID    `gorm:"not null;uniqueIndex" json:"session_id"`
	Number          string          `gorm:"type:varchar(32);not null;uniqueIndex" json:"number"`
	CarNumber       string          `gorm:"type:text;not null" json:"car_number"`
	EntryTime       time.Time       `gorm:"not null" json:"entry_time"`
	ExitTime        time.Time       `gorm:"not null" json:"exit_time"`
	DurationMinutes int64           `gorm:"not null" json:"duration_minutes"`
	DurationLabel   string          `gorm:"type:text;not null" json:"duration_label"`
	Charges         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"charges"`
	Summary         string          `gorm:"type:text;not null" json:"summary"`
	ExitTimestamp   time.Time       `gorm:"not null" json:"exit_timestamp"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Receipt) TableName() string { return "parking_receipts" }

type RevenueType string

const (
	RevenueTypeDaily   RevenueType = "daily"
	RevenueTypeMonthly RevenueType = "monthly"
)

// RevenueTypeFor maps a customer class to its ledger type.
func RevenueTypeFor(class CustomerClass) RevenueType {
	if class == CustomerClassMonthly {
		return RevenueTypeMonthly
	}
	return RevenueTypeDaily
}

// RevenueEntry is an append-only ledger line, one per receipt.
type RevenueEntry struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Amount    decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type      RevenueType       `gorm:"type:varchar(16);not null" json:"type"`
	Date      time.Time         `gorm:"not null;index" json:"date"`
	CarPlate  string            `gorm:"type:text;not null" json:"car_plate"`
	ReceiptID snowflake.ID      `gorm:"not null;uniqueIndex" json:"receipt_id"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (RevenueEntry) TableName() string { return "revenue_entries" }
