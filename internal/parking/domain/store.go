package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Store is the persistence collaborator of the lifecycle engine.
//
// WithinTx runs fn against a transactional handle. Writes made through the
// handle commit together or not at all; a write that races another
// transaction on a record read inside fn fails with ErrTxConflict and leaves
// nothing behind.
type Store interface {
	GetSession(ctx context.Context, id snowflake.ID) (*Session, error)
	ListParked(ctx context.Context) ([]Session, error)
	GetReceipt(ctx context.Context, id snowflake.ID) (*Receipt, error)
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is bound to a single atomic unit of work. Lookups return nil, nil when
// the record is absent.
type Tx interface {
	GetSession(ctx context.Context, id snowflake.ID) (*Session, error)
	FindParkedByPlateKey(ctx context.Context, plateKey string) (*Session, error)
	InsertSession(ctx context.Context, session *Session) error
	InsertReceipt(ctx context.Context, receipt *Receipt) error
	InsertRevenue(ctx context.Context, entry *RevenueEntry) error
	// MarkExited moves a parked session at expectedVersion to exited.
	MarkExited(ctx context.Context, id snowflake.ID, expectedVersion int64, exitAt time.Time, receiptID snowflake.ID) error
}
