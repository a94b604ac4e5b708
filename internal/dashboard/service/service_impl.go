package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/parkpro/internal/clock"
	"github.com/smallbiznis/parkpro/internal/config"
	dashboarddomain "github.com/smallbiznis/parkpro/internal/dashboard/domain"
	parkingdomain "github.com/smallbiznis/parkpro/internal/parking/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Cfg   config.Config
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	loc   *time.Location
}

func NewService(p Params) dashboarddomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
		loc:   p.Cfg.Location(),
	}
}

type classCountRow struct {
	CustomerClass string `gorm:"column:customer_class"`
	Total         int64  `gorm:"column:total"`
}

type expiringRow struct {
	ID           snowflake.ID `gorm:"column:id"`
	LicensePlate string       `gorm:"column:license_plate"`
	EntryAt      time.Time    `gorm:"column:entry_at"`
}

type sumRow struct {
	Total decimal.NullDecimal `gorm:"column:total"`
}

func (s *Service) Overview(ctx context.Context) (dashboarddomain.Overview, error) {
	now := s.clock.Now()
	out := dashboarddomain.Overview{GeneratedAt: now}

	var counts []classCountRow
	if err := s.db.WithContext(ctx).
		Model(&parkingdomain.Session{}).
		Select("customer_class, COUNT(*) AS total").
		Where("status = ?", parkingdomain.SessionStatusParked).
		Group("customer_class").
		Scan(&counts).Error; err != nil {
		return dashboarddomain.Overview{}, err
	}
	for _, row := range counts {
		out.ParkedCount += row.Total
		if row.CustomerClass == string(parkingdomain.CustomerClassMonthly) {
			out.MonthlySubscribers = row.Total
		}
	}

	expiring, err := s.expiringSubscriptions(ctx, now)
	if err != nil {
		return dashboarddomain.Overview{}, err
	}
	out.ExpiringSubscriptions = expiring

	stats, err := s.revenueStats(ctx, now)
	if err != nil {
		return dashboarddomain.Overview{}, err
	}
	out.Revenue = stats

	recent, err := s.recentRevenue(ctx)
	if err != nil {
		return dashboarddomain.Overview{}, err
	}
	out.RecentRevenue = recent

	return out, nil
}

// expiringSubscriptions lists parked monthly sessions whose term ends within
// the expiry window. Whole days remaining are truncated, so a term ending in
// under a day reports 0.
func (s *Service) expiringSubscriptions(ctx context.Context, now time.Time) ([]dashboarddomain.ExpiringSubscription, error) {
	term := parkingdomain.SubscriptionTermDays * 24 * time.Hour
	window := (dashboarddomain.ExpiryWindowDays + 1) * 24 * time.Hour

	// expiry in (now - 1d, now + window)
	lower := now.Add(-term - 24*time.Hour).UTC()
	upper := now.Add(-term + window).UTC()

	var rows []expiringRow
	if err := s.db.WithContext(ctx).
		Model(&parkingdomain.Session{}).
		Select("id, license_plate, entry_at").
		Where("status = ? AND customer_class = ?", parkingdomain.SessionStatusParked, parkingdomain.CustomerClassMonthly).
		Where("entry_at > ? AND entry_at < ?", lower, upper).
		Order("entry_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]dashboarddomain.ExpiringSubscription, 0, len(rows))
	for _, row := range rows {
		expiresAt := row.EntryAt.Add(term)
		days := int(expiresAt.Sub(now) / (24 * time.Hour))
		if days < 0 || days > dashboarddomain.ExpiryWindowDays {
			continue
		}
		out = append(out, dashboarddomain.ExpiringSubscription{
			SessionID:     row.ID.String(),
			LicensePlate:  row.LicensePlate,
			EntryAt:       row.EntryAt,
			ExpiresAt:     expiresAt,
			DaysRemaining: days,
		})
	}
	return out, nil
}

func (s *Service) revenueStats(ctx context.Context, now time.Time) (dashboarddomain.RevenueStats, error) {
	local := now.In(s.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)

	today, err := s.sumRevenue(ctx, &dayStart)
	if err != nil {
		return dashboarddomain.RevenueStats{}, err
	}
	month, err := s.sumRevenue(ctx, &monthStart)
	if err != nil {
		return dashboarddomain.RevenueStats{}, err
	}
	allTime, err := s.sumRevenue(ctx, nil)
	if err != nil {
		return dashboarddomain.RevenueStats{}, err
	}
	return dashboarddomain.RevenueStats{
		Today:   today,
		Month:   month,
		AllTime: allTime,
	}, nil
}

func (s *Service) sumRevenue(ctx context.Context, from *time.Time) (decimal.Decimal, error) {
	query := s.db.WithContext(ctx).
		Model(&parkingdomain.RevenueEntry{}).
		Select("SUM(amount) AS total")
	if from != nil {
		query = query.Where("date >= ?", from.UTC())
	}

	var row sumRow
	if err := query.Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal.Round(2), nil
}

func (s *Service) recentRevenue(ctx context.Context) ([]dashboarddomain.RevenueRecord, error) {
	var entries []parkingdomain.RevenueEntry
	if err := s.db.WithContext(ctx).
		Order("date DESC").
		Order("id DESC").
		Limit(dashboarddomain.RecentRevenueLimit).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	out := make([]dashboarddomain.RevenueRecord, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dashboarddomain.RevenueRecord{
			ID:       entry.ID.String(),
			Amount:   entry.Amount,
			Type:     string(entry.Type),
			CarPlate: entry.CarPlate,
			Date:     entry.Date,
		})
	}
	return out, nil
}
