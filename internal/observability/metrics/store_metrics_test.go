package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifyTxReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: TxReasonDeadlineExceeded},
		{name: "lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: TxReasonLockTimeout},
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, want: TxReasonSerializationFailure},
		{name: "unique", err: fmt.Errorf("tx_conflict: %w", gorm.ErrDuplicatedKey), want: TxReasonUniqueViolation},
		{name: "version", err: errors.New("tx_conflict"), want: TxReasonVersionMismatch},
		{name: "unknown", err: errors.New("boom"), want: TxReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyTxReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestStoreMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newStoreMetrics(registry, Config{ServiceName: "parkpro", Environment: "test"})

	m.IncAttempt(OperationCheckout)
	m.IncAttempt(OperationCheckout)
	m.IncConflict(OperationCheckout, errors.New("tx_conflict"))
	m.IncExhausted(OperationEntry)

	if got := testutil.ToFloat64(m.txAttempts.WithLabelValues(OperationCheckout)); got != 2 {
		t.Fatalf("expected 2 attempts, got %v", got)
	}
	if got := testutil.ToFloat64(m.txConflicts.WithLabelValues(OperationCheckout, TxReasonVersionMismatch)); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.txExhausted.WithLabelValues(OperationEntry)); got != 1 {
		t.Fatalf("expected 1 exhausted, got %v", got)
	}
}

func TestStoreMetricsNilSafe(t *testing.T) {
	var m *StoreMetrics
	m.IncAttempt(OperationEntry)
	m.IncConflict(OperationEntry, errors.New("x"))
	m.IncExhausted(OperationEntry)
}
