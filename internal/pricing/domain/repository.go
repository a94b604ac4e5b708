package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, key string) (*PricingConfig, error)
	// InsertIfAbsent creates the record unless one already exists.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, cfg *PricingConfig) error
	// Replace overwrites every field of the record in one statement.
	Replace(ctx context.Context, db *gorm.DB, cfg *PricingConfig) error
}
