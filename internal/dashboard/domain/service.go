package domain

import "context"

const (
	// ExpiryWindowDays bounds how far ahead a subscription counts as expiring.
	ExpiryWindowDays   = 5
	RecentRevenueLimit = 20
)

type Service interface {
	Overview(ctx context.Context) (Overview, error)
}
