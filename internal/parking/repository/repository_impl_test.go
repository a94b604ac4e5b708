package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/parkpro/internal/migration"
	"github.com/smallbiznis/parkpro/internal/parking/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var entryAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) (domain.Store, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.AutoMigrate(conn))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return Provide(conn), conn, node
}

func parkedSession(node *snowflake.Node, plate string) *domain.Session {
	return &domain.Session{
		ID:             node.Generate(),
		LicensePlate:   domain.NormalizePlate(plate),
		PlateKey:       domain.PlateKey(plate),
		CustomerMobile: "9876543210",
		CustomerClass:  domain.CustomerClassRegular,
		EntryAt:        entryAt,
		Status:         domain.SessionStatusParked,
		Version:        1,
		CreatedAt:      entryAt,
		UpdatedAt:      entryAt,
	}
}

func TestInsertAndFindParked(t *testing.T) {
	store, _, node := setupStore(t)
	ctx := context.Background()

	session := parkedSession(node, "xyz-123")
	require.NoError(t, store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.InsertSession(ctx, session)
	}))

	var found *domain.Session
	require.NoError(t, store.WithinTx(ctx, func(tx domain.Tx) error {
		var err error
		found, err = tx.FindParkedByPlateKey(ctx, "XYZ123")
		return err
	}))
	require.NotNil(t, found)
	assert.Equal(t, session.ID, found.ID)

	parked, err := store.ListParked(ctx)
	require.NoError(t, err)
	assert.Len(t, parked, 1)

	missing, err := store.GetSession(ctx, node.Generate())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDuplicateParkedPlateIsConflict(t *testing.T) {
	store, _, node := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.InsertSession(ctx, parkedSession(node, "XYZ-123"))
	}))

	err := store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.InsertSession(ctx, parkedSession(node, "xyz 123"))
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTxConflict), "got %v", err)
}

func TestMarkExitedIsVersionGuarded(t *testing.T) {
	store, _, node := setupStore(t)
	ctx := context.Background()

	session := parkedSession(node, "ABC-999")
	require.NoError(t, store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.InsertSession(ctx, session)
	}))

	exitAt := entryAt.Add(2 * time.Hour)
	receiptID := node.Generate()
	require.NoError(t, store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.MarkExited(ctx, session.ID, session.Version, exitAt, receiptID)
	}))

	err := store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.MarkExited(ctx, session.ID, session.Version, exitAt, node.Generate())
	})
	assert.True(t, errors.Is(err, domain.ErrTxConflict), "stale version must conflict, got %v", err)

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.SessionStatusExited, got.Status)
	assert.Equal(t, session.Version+1, got.Version)
	require.NotNil(t, got.ReceiptID)
	assert.Equal(t, receiptID, *got.ReceiptID)
	require.NotNil(t, got.ExitAt)
	assert.True(t, got.ExitAt.Equal(exitAt))
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	store, conn, node := setupStore(t)
	ctx := context.Background()

	session := parkedSession(node, "ROLL-1")
	require.NoError(t, store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.InsertSession(ctx, session)
	}))

	boom := errors.New("boom")
	receipt := &domain.Receipt{
		ID:              node.Generate(),
		SessionID:       session.ID,
		Number:          "R-1",
		CarNumber:       session.LicensePlate,
		EntryTime:       entryAt,
		ExitTime:        entryAt.Add(time.Hour),
		DurationMinutes: 60,
		DurationLabel:   "1h",
		Charges:         decimal.NewFromInt(30),
		Summary:         "ok",
		ExitTimestamp:   entryAt.Add(time.Hour),
		CreatedAt:       entryAt.Add(time.Hour),
	}
	err := store.WithinTx(ctx, func(tx domain.Tx) error {
		if err := tx.MarkExited(ctx, session.ID, session.Version, receipt.ExitTime, receipt.ID); err != nil {
			return err
		}
		if err := tx.InsertReceipt(ctx, receipt); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusParked, got.Status)

	var receipts int64
	require.NoError(t, conn.Model(&domain.Receipt{}).Count(&receipts).Error)
	assert.Zero(t, receipts)
}

func TestReceiptAndRevenueRoundTrip(t *testing.T) {
	store, conn, node := setupStore(t)
	ctx := context.Background()

	session := parkedSession(node, "RND-42")
	receiptID := node.Generate()
	exitAt := entryAt.Add(5*time.Hour + 30*time.Minute)

	require.NoError(t, store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.InsertSession(ctx, session)
	}))
	require.NoError(t, store.WithinTx(ctx, func(tx domain.Tx) error {
		if err := tx.MarkExited(ctx, session.ID, session.Version, exitAt, receiptID); err != nil {
			return err
		}
		if err := tx.InsertReceipt(ctx, &domain.Receipt{
			ID:              receiptID,
			SessionID:       session.ID,
			Number:          "01HX",
			CarNumber:       session.LicensePlate,
			EntryTime:       entryAt,
			ExitTime:        exitAt,
			DurationMinutes: 330,
			DurationLabel:   "5h 30m",
			Charges:         decimal.NewFromInt(180),
			Summary:         "thanks",
			ExitTimestamp:   exitAt,
			CreatedAt:       exitAt,
		}); err != nil {
			return err
		}
		return tx.InsertRevenue(ctx, &domain.RevenueEntry{
			ID:        node.Generate(),
			Amount:    decimal.NewFromInt(180),
			Type:      domain.RevenueTypeDaily,
			Date:      exitAt,
			CarPlate:  session.LicensePlate,
			ReceiptID: receiptID,
			CreatedAt: exitAt,
		})
	}))

	receipt, err := store.GetReceipt(ctx, receiptID)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.True(t, receipt.Charges.Equal(decimal.NewFromInt(180)))
	assert.Equal(t, session.ID, receipt.SessionID)

	var entries int64
	require.NoError(t, conn.Model(&domain.RevenueEntry{}).Where("receipt_id = ?", receiptID).Count(&entries).Error)
	assert.Equal(t, int64(1), entries)
}
