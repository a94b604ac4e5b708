// Package memory is an in-process session store with optimistic concurrency.
// Transactions buffer their writes and validate everything they read at
// commit, so a transaction that raced another one fails with
// domain.ErrTxConflict and applies nothing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/parkpro/internal/parking/domain"
)

type Store struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]domain.Session
	// parked maps a plate key to its parked session.
	parked   map[string]snowflake.ID
	receipts map[snowflake.ID]domain.Receipt
	numbers  map[string]struct{}
	revenue  []domain.RevenueEntry

	commitHook func() error
}

func New() *Store {
	return &Store{
		sessions: make(map[snowflake.ID]domain.Session),
		parked:   make(map[string]snowflake.ID),
		receipts: make(map[snowflake.ID]domain.Receipt),
		numbers:  make(map[string]struct{}),
	}
}

// SetCommitHook installs fn to run at the start of every commit. A non-nil
// return aborts that commit with the returned error.
func (s *Store) SetCommitHook(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = fn
}

func (s *Store) GetSession(ctx context.Context, id snowflake.ID) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *Store) ListParked(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]domain.Session, 0, len(s.parked))
	for _, id := range s.parked {
		out = append(out, s.sessions[id])
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryAt.Equal(out[j].EntryAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].EntryAt.Before(out[j].EntryAt)
	})
	return out, nil
}

func (s *Store) GetReceipt(ctx context.Context, id snowflake.ID) (*domain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	receipt, ok := s.receipts[id]
	if !ok {
		return nil, nil
	}
	return &receipt, nil
}

// Revenue returns a copy of the ledger in insertion order.
func (s *Store) Revenue() []domain.RevenueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RevenueEntry, len(s.revenue))
	copy(out, s.revenue)
	return out
}

// Receipts returns a copy of every stored receipt.
func (s *Store) Receipts() []domain.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		out = append(out, r)
	}
	return out
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	tx := &memTx{
		store:        s,
		readSessions: make(map[snowflake.ID]int64),
		readPlates:   make(map[string]snowflake.ID),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

type exitWrite struct {
	id              snowflake.ID
	expectedVersion int64
	exitAt          time.Time
	receiptID       snowflake.ID
}

type memTx struct {
	store *Store

	// readSessions holds the version observed per session, 0 when absent.
	readSessions map[snowflake.ID]int64
	// readPlates holds the parked session observed per plate key, 0 when none.
	readPlates map[string]snowflake.ID

	sessions []domain.Session
	exits    []exitWrite
	receipts []domain.Receipt
	revenue  []domain.RevenueEntry
}

func (t *memTx) GetSession(ctx context.Context, id snowflake.ID) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	session, ok := t.store.sessions[id]
	if !ok {
		t.readSessions[id] = 0
		return nil, nil
	}
	t.readSessions[id] = session.Version
	return &session, nil
}

func (t *memTx) FindParkedByPlateKey(ctx context.Context, plateKey string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	id, ok := t.store.parked[plateKey]
	if !ok {
		t.readPlates[plateKey] = 0
		return nil, nil
	}
	t.readPlates[plateKey] = id
	session := t.store.sessions[id]
	return &session, nil
}

func (t *memTx) InsertSession(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.sessions = append(t.sessions, *session)
	return nil
}

func (t *memTx) InsertReceipt(ctx context.Context, receipt *domain.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.receipts = append(t.receipts, *receipt)
	return nil
}

func (t *memTx) InsertRevenue(ctx context.Context, entry *domain.RevenueEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.revenue = append(t.revenue, *entry)
	return nil
}

func (t *memTx) MarkExited(ctx context.Context, id snowflake.ID, expectedVersion int64, exitAt time.Time, receiptID snowflake.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	current, ok := t.store.sessions[id]
	t.store.mu.Unlock()
	if !ok || current.Version != expectedVersion || !current.IsParked() {
		return domain.ErrTxConflict
	}
	t.exits = append(t.exits, exitWrite{
		id:              id,
		expectedVersion: expectedVersion,
		exitAt:          exitAt,
		receiptID:       receiptID,
	})
	return nil
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitHook != nil {
		if err := s.commitHook(); err != nil {
			return err
		}
	}

	if err := s.validate(tx); err != nil {
		return err
	}

	for _, w := range tx.exits {
		session := s.sessions[w.id]
		exitAt := w.exitAt
		receiptID := w.receiptID
		session.Status = domain.SessionStatusExited
		session.ExitAt = &exitAt
		session.ReceiptID = &receiptID
		session.Version++
		session.UpdatedAt = exitAt
		s.sessions[w.id] = session
		delete(s.parked, session.PlateKey)
	}
	for _, session := range tx.sessions {
		s.sessions[session.ID] = session
		if session.IsParked() {
			s.parked[session.PlateKey] = session.ID
		}
	}
	for _, receipt := range tx.receipts {
		s.receipts[receipt.ID] = receipt
		s.numbers[receipt.Number] = struct{}{}
	}
	s.revenue = append(s.revenue, tx.revenue...)
	return nil
}

// validate runs under s.mu and checks every read and write of tx against the
// committed state.
func (s *Store) validate(tx *memTx) error {
	for id, version := range tx.readSessions {
		current, ok := s.sessions[id]
		switch {
		case version == 0 && ok:
			return domain.ErrTxConflict
		case version != 0 && (!ok || current.Version != version):
			return domain.ErrTxConflict
		}
	}
	for key, seen := range tx.readPlates {
		if s.parked[key] != seen {
			return domain.ErrTxConflict
		}
	}

	exiting := make(map[string]struct{}, len(tx.exits))
	for _, w := range tx.exits {
		current, ok := s.sessions[w.id]
		if !ok || current.Version != w.expectedVersion || !current.IsParked() {
			return domain.ErrTxConflict
		}
		exiting[current.PlateKey] = struct{}{}
	}

	inserted := make(map[string]struct{}, len(tx.sessions))
	for _, session := range tx.sessions {
		if _, exists := s.sessions[session.ID]; exists {
			return domain.ErrTxConflict
		}
		if !session.IsParked() {
			continue
		}
		if _, dup := inserted[session.PlateKey]; dup {
			return domain.ErrTxConflict
		}
		if _, taken := s.parked[session.PlateKey]; taken {
			if _, freed := exiting[session.PlateKey]; !freed {
				return domain.ErrTxConflict
			}
		}
		inserted[session.PlateKey] = struct{}{}
	}

	for _, receipt := range tx.receipts {
		if _, exists := s.receipts[receipt.ID]; exists {
			return domain.ErrTxConflict
		}
		if _, exists := s.numbers[receipt.Number]; exists {
			return domain.ErrTxConflict
		}
		for _, existing := range s.receipts {
			if existing.SessionID == receipt.SessionID {
				return domain.ErrTxConflict
			}
		}
	}
	return nil
}

var _ domain.Store = (*Store)(nil)
