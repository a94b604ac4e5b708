package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/parkpro/internal/parking/domain"
	"github.com/smallbiznis/parkpro/pkg/db"
	"gorm.io/gorm"
)

// Store is the relational session store. Atomic check-and-create for entry
// relies on the partial unique index over parked plate keys; checkout relies
// on the version guard in MarkExited.
type Store struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Store {
	return &Store{db: conn}
}

func (s *Store) GetSession(ctx context.Context, id snowflake.ID) (*domain.Session, error) {
	return getSession(ctx, s.db, id)
}

func (s *Store) ListParked(ctx context.Context) ([]domain.Session, error) {
	var sessions []domain.Session
	err := s.db.WithContext(ctx).
		Where("status = ?", domain.SessionStatusParked).
		Order("entry_at ASC").
		Order("id ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) GetReceipt(ctx context.Context, id snowflake.ID) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx})
	})
	return translateTxErr(err)
}

// translateTxErr folds driver-level races into ErrTxConflict so the engine
// can retry them without knowing the dialect.
func translateTxErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrTxConflict) {
		return err
	}
	if db.IsDuplicateKeyErr(err) || db.IsSerializationErr(err) {
		return fmt.Errorf("%w: %w", domain.ErrTxConflict, err)
	}
	return err
}

type txStore struct {
	db *gorm.DB
}

func (t *txStore) GetSession(ctx context.Context, id snowflake.ID) (*domain.Session, error) {
	return getSession(ctx, t.db, id)
}

func (t *txStore) FindParkedByPlateKey(ctx context.Context, plateKey string) (*domain.Session, error) {
	var session domain.Session
	err := t.db.WithContext(ctx).
		Where("plate_key = ? AND status = ?", plateKey, domain.SessionStatusParked).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (t *txStore) InsertSession(ctx context.Context, session *domain.Session) error {
	return t.db.WithContext(ctx).Create(session).Error
}

func (t *txStore) InsertReceipt(ctx context.Context, receipt *domain.Receipt) error {
	return t.db.WithContext(ctx).Create(receipt).Error
}

func (t *txStore) InsertRevenue(ctx context.Context, entry *domain.RevenueEntry) error {
	return t.db.WithContext(ctx).Create(entry).Error
}

func (t *txStore) MarkExited(ctx context.Context, id snowflake.ID, expectedVersion int64, exitAt time.Time, receiptID snowflake.ID) error {
	res := t.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND version = ? AND status = ?", id, expectedVersion, domain.SessionStatusParked).
		Updates(map[string]any{
			"status":     domain.SessionStatusExited,
			"exit_at":    exitAt,
			"receipt_id": receiptID,
			"version":    gorm.Expr("version + 1"),
			"updated_at": exitAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTxConflict
	}
	return nil
}

func getSession(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Session, error) {
	var session domain.Session
	err := conn.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}
