package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/parkpro/internal/pricing/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, key string) (*domain.PricingConfig, error) {
	var cfg domain.PricingConfig
	err := db.WithContext(ctx).
		Where("config_key = ?", key).
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, cfg *domain.PricingConfig) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(cfg).Error
}

func (r *repo) Replace(ctx context.Context, db *gorm.DB, cfg *domain.PricingConfig) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "config_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"hourly_rate",
				"daily_rate",
				"monthly_rate",
				"daily_rate_hours_threshold",
				"updated_at",
			}),
		}).
		Create(cfg).Error
}
