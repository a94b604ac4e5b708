package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/cenkalti/backoff/v5"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/parkpro/internal/clock"
	"github.com/smallbiznis/parkpro/internal/config"
	obslogger "github.com/smallbiznis/parkpro/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/parkpro/internal/observability/metrics"
	"github.com/smallbiznis/parkpro/internal/parking/domain"
	"github.com/smallbiznis/parkpro/internal/parking/liveevents"
	pricingdomain "github.com/smallbiznis/parkpro/internal/pricing/domain"
	ratingdomain "github.com/smallbiznis/parkpro/internal/rating/domain"
	"github.com/smallbiznis/parkpro/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultTxMaxAttempts      = 5
	defaultTxRetryInitial     = 10 * time.Millisecond
	defaultTxRetryMax         = 250 * time.Millisecond
	defaultReceiptTextTimeout = 3 * time.Second
)

const (
	receiptTextSourceProvider = "provider"
	receiptTextSourceFallback = "fallback"
)

type Params struct {
	fx.In

	Store   domain.Store
	Pricing pricingdomain.Service
	Rating  ratingdomain.Service
	Text    domain.ReceiptTextProvider `optional:"true"`
	Clock   clock.Clock
	Log     *zap.Logger
	GenID   *snowflake.Node
	Cfg     config.Config

	Live         *liveevents.Hub          `optional:"true"`
	Metrics      *obsmetrics.Metrics      `optional:"true"`
	StoreMetrics *obsmetrics.StoreMetrics `optional:"true"`
}

type Service struct {
	store   domain.Store
	pricing pricingdomain.Service
	rating  ratingdomain.Service
	text    domain.ReceiptTextProvider
	clock   clock.Clock
	log     *zap.Logger
	genID   *snowflake.Node

	live         *liveevents.Hub
	metrics      *obsmetrics.Metrics
	storeMetrics *obsmetrics.StoreMetrics

	maxAttempts  int
	retryInitial time.Duration
	retryMax     time.Duration
	textTimeout  time.Duration
}

func New(p Params) domain.Service {
	svc := &Service{
		store:        p.Store,
		pricing:      p.Pricing,
		rating:       p.Rating,
		text:         p.Text,
		clock:        p.Clock,
		log:          p.Log.Named("parking.service"),
		genID:        p.GenID,
		live:         p.Live,
		metrics:      p.Metrics,
		storeMetrics: p.StoreMetrics,
		maxAttempts:  p.Cfg.Parking.TxMaxAttempts,
		retryInitial: p.Cfg.Parking.TxRetryInitial,
		retryMax:     p.Cfg.Parking.TxRetryMax,
		textTimeout:  p.Cfg.Parking.ReceiptTextTimeout,
	}
	if svc.maxAttempts <= 0 {
		svc.maxAttempts = defaultTxMaxAttempts
	}
	if svc.retryInitial <= 0 {
		svc.retryInitial = defaultTxRetryInitial
	}
	if svc.retryMax < svc.retryInitial {
		svc.retryMax = defaultTxRetryMax
	}
	if svc.textTimeout <= 0 {
		svc.textTimeout = defaultReceiptTextTimeout
	}
	if svc.clock == nil {
		svc.clock = clock.New()
	}
	return svc
}

func (s *Service) Entry(ctx context.Context, req domain.EntryRequest) (domain.Session, error) {
	plate := domain.NormalizePlate(req.LicensePlate)
	plateKey := domain.PlateKey(req.LicensePlate)
	mobile := strings.TrimSpace(req.CustomerMobile)

	var errs validation.Errors
	if n := utf8.RuneCountInString(plate); n < domain.MinPlateLength || utf8.RuneCountInString(plateKey) < domain.MinPlateLength {
		errs.Add("license_plate", "invalid_license_plate", "license plate must have at least 3 characters besides spaces and hyphens")
	} else if n > domain.MaxPlateLength {
		errs.Add("license_plate", "invalid_license_plate", "license plate must be at most 32 characters")
	}
	if domain.CountDigits(mobile) < domain.MinMobileDigits {
		errs.Add("customer_mobile", "invalid_customer_mobile", "mobile number must contain at least 10 digits")
	}
	class, ok := domain.ParseCustomerClass(req.CustomerClass)
	if !ok {
		errs.Add("customer_class", "invalid_customer_class", "customer class must be regular or monthly")
	}
	if err := errs.Err(); err != nil {
		return domain.Session{}, err
	}

	var session domain.Session
	err := s.withRetry(ctx, obsmetrics.OperationEntry, func() error {
		now := s.clock.Now()
		session = domain.Session{
			ID:             s.genID.Generate(),
			LicensePlate:   plate,
			PlateKey:       plateKey,
			CustomerMobile: mobile,
			CustomerClass:  class,
			EntryAt:        now,
			Status:         domain.SessionStatusParked,
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.store.WithinTx(ctx, func(tx domain.Tx) error {
			existing, err := tx.FindParkedByPlateKey(ctx, plateKey)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrAlreadyParked
			}
			return tx.InsertSession(ctx, &session)
		})
	})
	if err != nil {
		return domain.Session{}, err
	}

	obslogger.WithContext(ctx, s.log).Info("vehicle entered",
		zap.String("session_id", session.ID.String()),
		zap.String("customer_class", string(session.CustomerClass)),
	)
	s.metrics.RecordSessionEntered(ctx, string(session.CustomerClass))
	s.live.Publish(liveevents.LiveEvent{
		Type:          liveevents.TypeSessionEntered,
		SessionID:     session.ID.String(),
		LicensePlate:  session.LicensePlate,
		CustomerClass: string(session.CustomerClass),
		OccurredAt:    session.EntryAt,
	})
	return session, nil
}

func (s *Service) FindByPlate(ctx context.Context, query string) ([]domain.Session, error) {
	key := domain.PlateKey(query)
	if key == "" {
		return nil, domain.ErrInvalidQuery
	}

	parked, err := s.store.ListParked(ctx)
	if err != nil {
		return nil, err
	}
	if len(parked) == 0 {
		return nil, domain.ErrNoParkedSessions
	}

	matches := make([]domain.Session, 0, 1)
	for _, session := range parked {
		if strings.Contains(session.PlateKey, key) {
			matches = append(matches, session)
		}
	}
	if len(matches) == 0 {
		return nil, domain.ErrNoMatch
	}
	return matches, nil
}

func (s *Service) ListParked(ctx context.Context) ([]domain.Session, error) {
	return s.store.ListParked(ctx)
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	id, err := parseID(sessionID)
	if err != nil {
		return domain.Session{}, domain.ErrInvalidID
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if session == nil {
		return domain.Session{}, domain.ErrNotFound
	}
	return *session, nil
}

func (s *Service) GetReceipt(ctx context.Context, receiptID string) (domain.Receipt, error) {
	id, err := parseID(receiptID)
	if err != nil {
		return domain.Receipt{}, domain.ErrInvalidID
	}
	receipt, err := s.store.GetReceipt(ctx, id)
	if err != nil {
		return domain.Receipt{}, err
	}
	if receipt == nil {
		return domain.Receipt{}, domain.ErrReceiptNotFound
	}
	return *receipt, nil
}

func (s *Service) Checkout(ctx context.Context, sessionID string) (domain.CheckoutResult, error) {
	id, err := parseID(sessionID)
	if err != nil {
		return domain.CheckoutResult{}, domain.ErrInvalidID
	}
	log := obslogger.WithSession(ctx, obslogger.WithContext(ctx, s.log), id.String())

	// One pricing snapshot per checkout, reused across retries.
	pricing, err := s.pricing.GetConfig(ctx)
	if err != nil {
		return domain.CheckoutResult{}, err
	}
	if err := pricing.Validate(); err != nil {
		log.Error("pricing config cannot price checkout", zap.Error(err))
		return domain.CheckoutResult{}, err
	}

	current, err := s.store.GetSession(ctx, id)
	if err != nil {
		return domain.CheckoutResult{}, err
	}
	if current == nil || !current.IsParked() {
		return domain.CheckoutResult{}, domain.ErrNotFound
	}

	exitAt := s.clock.Now()
	if exitAt.Before(current.EntryAt) {
		exitAt = current.EntryAt
	}
	duration := s.rating.CalculateDuration(current.EntryAt, exitAt)
	if current.CustomerClass == domain.CustomerClassMonthly && duration.Days < domain.SubscriptionTermDays {
		return domain.CheckoutResult{}, domain.ErrSubscriptionNotExpired
	}
	charge := s.rating.ComputeCharge(duration, current.CustomerClass, pricing)

	text, source := s.receiptText(ctx, log, domain.ReceiptTextInput{
		CarNumber:     current.LicensePlate,
		EntryTime:     current.EntryAt,
		ExitTime:      exitAt,
		DurationLabel: duration.Label,
		Charge:        charge,
	})

	var result domain.CheckoutResult
	err = s.withRetry(ctx, obsmetrics.OperationCheckout, func() error {
		return s.store.WithinTx(ctx, func(tx domain.Tx) error {
			session, err := tx.GetSession(ctx, id)
			if err != nil {
				return err
			}
			if session == nil || !session.IsParked() {
				return domain.ErrNotFound
			}

			receipt := domain.Receipt{
				ID:              s.genID.Generate(),
				SessionID:       session.ID,
				Number:          ulid.MustNew(ulid.Timestamp(exitAt), ulid.DefaultEntropy()).String(),
				CarNumber:       session.LicensePlate,
				EntryTime:       session.EntryAt,
				ExitTime:        exitAt,
				DurationMinutes: duration.TotalMinutes,
				DurationLabel:   duration.Label,
				Charges:         charge,
				Summary:         text,
				ExitTimestamp:   exitAt,
				CreatedAt:       exitAt,
			}
			revenueType := domain.RevenueTypeFor(session.CustomerClass)
			entry := domain.RevenueEntry{
				ID:        s.genID.Generate(),
				Amount:    charge,
				Type:      revenueType,
				Date:      exitAt,
				CarPlate:  session.LicensePlate,
				ReceiptID: receipt.ID,
				Metadata: datatypes.JSONMap{
					"session_id":       session.ID.String(),
					"receipt_number":   receipt.Number,
					"customer_class":   string(session.CustomerClass),
					"duration_minutes": duration.TotalMinutes,
					"surcharge_mode":   string(s.rating.Mode()),
					"receipt_text":     source,
				},
				CreatedAt: exitAt,
			}

			if err := tx.MarkExited(ctx, session.ID, session.Version, exitAt, receipt.ID); err != nil {
				return err
			}
			if err := tx.InsertReceipt(ctx, &receipt); err != nil {
				return err
			}
			if err := tx.InsertRevenue(ctx, &entry); err != nil {
				return err
			}

			exited := *session
			exited.Status = domain.SessionStatusExited
			exited.ExitAt = &exitAt
			exited.ReceiptID = &receipt.ID
			exited.Version = session.Version + 1
			exited.UpdatedAt = exitAt

			result = domain.CheckoutResult{
				Receipt:        receipt,
				Session:        exited,
				CustomerMobile: session.CustomerMobile,
				ReceiptText:    text,
			}
			return nil
		})
	})
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	log.Info("vehicle checked out",
		zap.String("receipt_id", result.Receipt.ID.String()),
		zap.String("receipt_number", result.Receipt.Number),
		zap.String("customer_class", string(result.Session.CustomerClass)),
		zap.Int64("duration_minutes", duration.TotalMinutes),
		zap.String("charges", charge.StringFixed(2)),
	)
	amount, _ := charge.Float64()
	s.metrics.RecordCheckout(ctx, string(result.Session.CustomerClass), string(domain.RevenueTypeFor(result.Session.CustomerClass)), amount)
	s.metrics.RecordReceiptText(ctx, source)
	s.live.Publish(liveevents.LiveEvent{
		Type:          liveevents.TypeSessionExited,
		SessionID:     result.Session.ID.String(),
		LicensePlate:  result.Session.LicensePlate,
		CustomerClass: string(result.Session.CustomerClass),
		ReceiptID:     result.Receipt.ID.String(),
		Charges:       charge.StringFixed(2),
		DurationLabel: duration.Label,
		OccurredAt:    exitAt,
	})
	return result, nil
}

// receiptText asks the provider for a summary and falls back to the template
// on any failure. It never returns an error.
func (s *Service) receiptText(ctx context.Context, log *zap.Logger, in domain.ReceiptTextInput) (string, string) {
	if s.text == nil {
		return domain.FallbackReceiptText(in), receiptTextSourceFallback
	}

	textCtx, cancel := context.WithTimeout(ctx, s.textTimeout)
	defer cancel()

	text, err := s.text.Summarize(textCtx, in)
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.ErrReceiptTextUnavailable
	}
	if err != nil {
		if errors.Is(err, domain.ErrReceiptTextUnavailable) {
			log.Debug("receipt text provider unavailable, using template")
		} else {
			log.Warn("receipt text generation failed, using template", zap.Error(err))
		}
		return domain.FallbackReceiptText(in), receiptTextSourceFallback
	}
	return strings.TrimSpace(text), receiptTextSourceProvider
}

// withRetry reruns fn while it loses transaction races. Business errors stop
// the loop immediately; an exhausted budget surfaces as ErrTransientStore.
func (s *Service) withRetry(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	defer func() {
		s.storeMetrics.ObserveDuration(operation, time.Since(start))
	}()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInitial
	b.MaxInterval = s.retryMax

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		s.storeMetrics.IncAttempt(operation)
		err := fn()
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, domain.ErrTxConflict):
			s.storeMetrics.IncConflict(operation, err)
			obslogger.WithContext(ctx, s.log).Debug("transaction conflict, retrying",
				zap.String("operation", operation),
				zap.Error(err),
			)
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.maxAttempts)),
	)
	if err == nil {
		return nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if errors.Is(err, domain.ErrTxConflict) {
		s.storeMetrics.IncExhausted(operation)
		obslogger.WithContext(ctx, s.log).Warn("transaction retries exhausted",
			zap.String("operation", operation),
			zap.Int("attempts", s.maxAttempts),
		)
		return fmt.Errorf("%w: %s", domain.ErrTransientStore, operation)
	}
	return err
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
