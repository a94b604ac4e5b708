package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/parkpro/internal/clock"
	"github.com/smallbiznis/parkpro/internal/config"
	"github.com/smallbiznis/parkpro/internal/migration"
	parkingdomain "github.com/smallbiznis/parkpro/internal/parking/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var now = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *Service
	db   *gorm.DB
	node *snowflake.Node
}

func setup(t *testing.T, tz string) fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(now),
		Cfg:   config.Config{Timezone: tz},
	}).(*Service)
	return fixture{svc: svc, db: db, node: node}
}

func (f fixture) park(t *testing.T, plate string, class parkingdomain.CustomerClass, entryAt time.Time) parkingdomain.Session {
	t.Helper()
	session := parkingdomain.Session{
		ID:             f.node.Generate(),
		LicensePlate:   plate,
		PlateKey:       parkingdomain.PlateKey(plate),
		CustomerMobile: "9876543210",
		CustomerClass:  class,
		EntryAt:        entryAt,
		Status:         parkingdomain.SessionStatusParked,
		Version:        1,
		CreatedAt:      entryAt,
		UpdatedAt:      entryAt,
	}
	require.NoError(t, f.db.Create(&session).Error)
	return session
}

func (f fixture) revenue(t *testing.T, amount string, at time.Time) {
	t.Helper()
	entry := parkingdomain.RevenueEntry{
		ID:        f.node.Generate(),
		Amount:    decimal.RequireFromString(amount),
		Type:      parkingdomain.RevenueTypeDaily,
		Date:      at,
		CarPlate:  "XYZ-123",
		ReceiptID: f.node.Generate(),
		CreatedAt: at,
	}
	require.NoError(t, f.db.Create(&entry).Error)
}

func TestOverviewEmpty(t *testing.T) {
	f := setup(t, "UTC")

	out, err := f.svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, out.ParkedCount)
	assert.Zero(t, out.MonthlySubscribers)
	assert.Empty(t, out.ExpiringSubscriptions)
	assert.Empty(t, out.RecentRevenue)
	assert.True(t, out.Revenue.AllTime.IsZero())
	assert.True(t, out.GeneratedAt.Equal(now))
}

func TestOverviewCountsAndExpiry(t *testing.T) {
	f := setup(t, "UTC")
	day := 24 * time.Hour

	f.park(t, "AAA-111", parkingdomain.CustomerClassRegular, now.Add(-2*time.Hour))
	f.park(t, "BBB-222", parkingdomain.CustomerClassMonthly, now.Add(-2*day))
	soon := f.park(t, "CCC-333", parkingdomain.CustomerClassMonthly, now.Add(-27*day))
	lastDay := f.park(t, "DDD-444", parkingdomain.CustomerClassMonthly, now.Add(-30*day+time.Hour))
	f.park(t, "EEE-555", parkingdomain.CustomerClassMonthly, now.Add(-40*day))

	out, err := f.svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.ParkedCount)
	assert.Equal(t, int64(4), out.MonthlySubscribers)

	require.Len(t, out.ExpiringSubscriptions, 2)
	assert.Equal(t, soon.ID.String(), out.ExpiringSubscriptions[0].SessionID)
	assert.Equal(t, 3, out.ExpiringSubscriptions[0].DaysRemaining)
	assert.Equal(t, lastDay.ID.String(), out.ExpiringSubscriptions[1].SessionID)
	assert.Equal(t, 0, out.ExpiringSubscriptions[1].DaysRemaining)
}

func TestOverviewRevenueWindows(t *testing.T) {
	f := setup(t, "UTC")

	f.revenue(t, "180", now.Add(-time.Hour))
	f.revenue(t, "60.50", now.Add(-2*time.Hour))
	f.revenue(t, "420", time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC))
	f.revenue(t, "1000", time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC))

	out, err := f.svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Revenue.Today.Equal(decimal.RequireFromString("240.5")), "today %s", out.Revenue.Today)
	assert.True(t, out.Revenue.Month.Equal(decimal.RequireFromString("660.5")), "month %s", out.Revenue.Month)
	assert.True(t, out.Revenue.AllTime.Equal(decimal.RequireFromString("1660.5")), "all time %s", out.Revenue.AllTime)

	require.Len(t, out.RecentRevenue, 4)
	assert.True(t, out.RecentRevenue[0].Amount.Equal(decimal.NewFromInt(180)))
	assert.True(t, out.RecentRevenue[3].Amount.Equal(decimal.NewFromInt(1000)))
}

func TestOverviewTodayFollowsBusinessTimezone(t *testing.T) {
	// 10:00 UTC is 15:30 in Kolkata; 20:00 UTC the previous day is already
	// 01:30 local today.
	f := setup(t, "Asia/Kolkata")
	f.revenue(t, "100", time.Date(2024, 6, 14, 20, 0, 0, 0, time.UTC))
	f.revenue(t, "50", time.Date(2024, 6, 14, 18, 0, 0, 0, time.UTC))

	out, err := f.svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Revenue.Today.Equal(decimal.NewFromInt(100)), "today %s", out.Revenue.Today)
}

func TestRecentRevenueIsLimited(t *testing.T) {
	f := setup(t, "UTC")
	for i := 0; i < 25; i++ {
		f.revenue(t, "10", now.Add(-time.Duration(i)*time.Minute))
	}

	out, err := f.svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Len(t, out.RecentRevenue, 20)
}
