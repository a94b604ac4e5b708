package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EntryRequest struct {
	LicensePlate   string
	CustomerMobile string
	CustomerClass  string
}

// CheckoutResult is the exit payload handed back to the caller. The mobile
// number is included for downstream notification.
type CheckoutResult struct {
	Receipt        Receipt `json:"receipt"`
	Session        Session `json:"session"`
	CustomerMobile string  `json:"customer_mobile"`
	ReceiptText    string  `json:"receipt_text"`
}

type Service interface {
	Entry(context.Context, EntryRequest) (Session, error)
	FindByPlate(ctx context.Context, query string) ([]Session, error)
	Checkout(ctx context.Context, sessionID string) (CheckoutResult, error)
	ListParked(context.Context) ([]Session, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
	GetReceipt(ctx context.Context, receiptID string) (Receipt, error)
}

type ReceiptTextInput struct {
	CarNumber     string
	EntryTime     time.Time
	ExitTime      time.Time
	DurationLabel string
	Charge        decimal.Decimal
}

// ReceiptTextProvider produces the human-readable receipt summary. It may
// fail at any time; callers fall back to FallbackReceiptText.
type ReceiptTextProvider interface {
	Summarize(ctx context.Context, in ReceiptTextInput) (string, error)
}

// FallbackReceiptText is the deterministic summary used when no provider is
// available.
func FallbackReceiptText(in ReceiptTextInput) string {
	return fmt.Sprintf(
		"Thank you for parking with us! Car: %s Duration: %s Total: Rs %s",
		in.CarNumber,
		in.DurationLabel,
		in.Charge.StringFixed(2),
	)
}

const (
	MinPlateLength  = 3
	MaxPlateLength  = 32
	MinMobileDigits = 10
	// SubscriptionTermDays is the fixed term of a monthly subscription.
	SubscriptionTermDays = 30
)

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidQuery           = errors.New("invalid_query")
	ErrAlreadyParked          = errors.New("already_parked")
	ErrNotFound               = errors.New("not_found")
	ErrNoParkedSessions       = errors.New("no_parked_sessions")
	ErrNoMatch                = errors.New("no_match")
	ErrReceiptNotFound        = errors.New("receipt_not_found")
	ErrSubscriptionNotExpired = errors.New("subscription_not_expired")
	ErrReceiptTextUnavailable = errors.New("receipt_text_unavailable")

	// ErrTxConflict is returned by stores when a transaction lost a race.
	// The engine retries it; callers only ever see ErrTransientStore.
	ErrTxConflict = errors.New("tx_conflict")
	// ErrTransientStore is safe to retry and never leaves partial state.
	ErrTransientStore = errors.New("transient_store_error")
)

// IsNotFound reports whether err is one of the not-found outcomes.
func IsNotFound(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNoParkedSessions),
		errors.Is(err, ErrNoMatch),
		errors.Is(err, ErrReceiptNotFound):
		return true
	default:
		return false
	}
}
