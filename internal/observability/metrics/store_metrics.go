package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	TxReasonDeadlineExceeded     = "deadline_exceeded"
	TxReasonSerializationFailure = "serialization_failure"
	TxReasonUniqueViolation      = "unique_violation"
	TxReasonLockTimeout          = "db_lock_timeout"
	TxReasonVersionMismatch      = "version_mismatch"
	TxReasonUnknown              = "unknown"
)

const (
	OperationEntry    = "entry"
	OperationCheckout = "checkout"
)

// StoreMetrics captures transactional health of the session store.
type StoreMetrics struct {
	txAttempts  *prometheus.CounterVec
	txConflicts *prometheus.CounterVec
	txExhausted *prometheus.CounterVec
	txDuration  *prometheus.HistogramVec
}

var (
	storeMetricsOnce sync.Once
	storeMetrics     *StoreMetrics
)

// StoreWithConfig returns the singleton store metrics registry using config labels.
func StoreWithConfig(cfg Config) *StoreMetrics {
	storeMetricsOnce.Do(func() {
		storeMetrics = newStoreMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return storeMetrics
}

func newStoreMetrics(registerer prometheus.Registerer, cfg Config) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "parkpro"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	txAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "parkpro_tx_attempts_total",
		Help:        "Session store transaction attempts by operation.",
		ConstLabels: constLabels,
	}, []string{"operation"})
	txConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "parkpro_tx_conflicts_total",
		Help:        "Session store transactions that lost a race and were retried.",
		ConstLabels: constLabels,
	}, []string{"operation", "reason"})
	txExhausted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "parkpro_tx_retries_exhausted_total",
		Help:        "Operations that gave up after the retry budget and reported a transient error.",
		ConstLabels: constLabels,
	}, []string{"operation"})
	txDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "parkpro_tx_duration_seconds",
		Help:        "Wall time of an engine operation including retries.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	}, []string{"operation"})

	registerer.MustRegister(txAttempts, txConflicts, txExhausted, txDuration)

	return &StoreMetrics{
		txAttempts:  txAttempts,
		txConflicts: txConflicts,
		txExhausted: txExhausted,
		txDuration:  txDuration,
	}
}

func (m *StoreMetrics) IncAttempt(operation string) {
	if m == nil {
		return
	}
	m.txAttempts.WithLabelValues(operation).Inc()
}

// IncConflict records a lost race with a low-cardinality reason.
func (m *StoreMetrics) IncConflict(operation string, err error) {
	if m == nil {
		return
	}
	m.txConflicts.WithLabelValues(operation, ClassifyTxReason(err)).Inc()
}

func (m *StoreMetrics) IncExhausted(operation string) {
	if m == nil {
		return
	}
	m.txExhausted.WithLabelValues(operation).Inc()
}

func (m *StoreMetrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.txDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ClassifyTxReason maps a store error to a low-cardinality reason. Errors the
// store already translated to a conflict without a driver cause report
// version_mismatch.
func ClassifyTxReason(err error) string {
	if err == nil {
		return TxReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return TxReasonDeadlineExceeded
	}
	if hasPGCode(err, "55P03") {
		return TxReasonLockTimeout
	}
	if hasPGCode(err, "40001") || hasPGCode(err, "40P01") {
		return TxReasonSerializationFailure
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return TxReasonUniqueViolation
	}
	if strings.Contains(err.Error(), "tx_conflict") {
		return TxReasonVersionMismatch
	}
	return TxReasonUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
