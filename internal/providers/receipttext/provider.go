// Package receipttext generates the one-line summary printed on parking
// receipts.
package receipttext

import (
	"context"

	"github.com/smallbiznis/parkpro/internal/parking/domain"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Unavailable is used when no generator is configured. Every call fails with
// domain.ErrReceiptTextUnavailable so checkout falls back to the template.
type Unavailable struct{}

func (Unavailable) Summarize(context.Context, domain.ReceiptTextInput) (string, error) {
	return "", domain.ErrReceiptTextUnavailable
}

var _ domain.ReceiptTextProvider = Unavailable{}
