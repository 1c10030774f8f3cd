package robo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/connectors"
	"papertrader/src/controller"
	"papertrader/src/model"
)

type orderExecutor interface {
	Execute(ctx context.Context, req controller.OrderRequest) (*controller.ExecutionOutcome, error)
}

type settingsSource interface {
	FindEnabled(ctx context.Context) ([]model.RoboSettings, error)
	FindBySubject(ctx context.Context, subjectID uint) (*model.RoboSettings, error)
}

type lockRepository interface {
	Acquire(ctx context.Context, subjectID uint, owner string, ttl time.Duration, now time.Time) (bool, error)
	Release(ctx context.Context, subjectID uint, owner string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type usageRepository interface {
	usageReader
	Increment(ctx context.Context, subjectID uint, bucketType string, bucketStart time.Time, notional float64) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditSink interface {
	Write(ctx context.Context, subjectID uint, eventType string, payload map[string]interface{}) error
}

// Signal is one resolved autonomous trade instruction. A strategy-tagged
// signal is an idea execution and is scored by the eligibility gate inside
// the order pipeline; the configured-default resolver emits untagged
// signals.
type Signal struct {
	Symbol     string
	Side       string
	Notional   float64
	StrategyID *string
	Confidence *float64
	Alignment  *float64
}

// SignalResolver supplies the trade instruction for a tick. The default
// resolver falls back to the subject's configured symbol, side, and
// notional.
type SignalResolver interface {
	Resolve(ctx context.Context, settings *model.RoboSettings) (*Signal, error)
}

// SettingsSignalResolver is the configured-default resolver.
type SettingsSignalResolver struct{}

func (SettingsSignalResolver) Resolve(_ context.Context, settings *model.RoboSettings) (*Signal, error) {
	if settings.Symbol == "" || settings.OrderNotional <= 0 {
		return nil, fmt.Errorf("subject %d has no default signal configured", settings.SubjectID)
	}
	side := settings.DefaultSide
	if side == "" {
		side = model.SideBuy
	}
	return &Signal{Symbol: settings.Symbol, Side: side, Notional: settings.OrderNotional}, nil
}

// Coordinator drives autonomous execution: per-subject lease locking, quota
// accounting, order execution, and retrying notification. One subject's
// failure never aborts the tick for the others.
type Coordinator struct {
	settings settingsSource
	locks    lockRepository
	usage    usageRepository
	audits   auditSink
	orders   orderExecutor
	quotes   connectors.QuoteService
	notifier connectors.Notifier
	signals  SignalResolver
	cfg      Config
	now      func() time.Time
	sleep    func(d time.Duration)
}

func NewCoordinator(
	settings settingsSource,
	locks lockRepository,
	usage usageRepository,
	audits auditSink,
	orders orderExecutor,
	quotes connectors.QuoteService,
	notifier connectors.Notifier,
	signals SignalResolver,
	cfg Config,
) *Coordinator {
	if signals == nil {
		signals = SettingsSignalResolver{}
	}
	return &Coordinator{
		settings: settings,
		locks:    locks,
		usage:    usage,
		audits:   audits,
		orders:   orders,
		quotes:   quotes,
		notifier: notifier,
		signals:  signals,
		cfg:      cfg,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// StartLoop runs the trade tick and the slower cleanup cycle until the
// context is cancelled.
func (c *Coordinator) StartLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(c.cfg.CleanupInterval)
	defer cleanup.Stop()

	logger.WithFields(map[string]interface{}{
		"component":     "robo",
		"tick_interval": c.cfg.TickInterval.String(),
	}).Info("autonomous coordinator started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("autonomous coordinator stopped")
			return nil
		case <-ticker.C:
			c.RunTick(ctx)
		case <-cleanup.C:
			c.RunCleanup(ctx)
		}
	}
}

// RunTick processes every enabled subject once.
func (c *Coordinator) RunTick(ctx context.Context) {
	if !c.cfg.Enabled {
		logger.Warn("autonomous execution globally disabled, skipping tick")
		return
	}

	subjects, err := c.settings.FindEnabled(ctx)
	if err != nil {
		logger.WithError(err).Error("failed to list enabled subjects")
		return
	}

	for i := range subjects {
		subject := subjects[i]
		if err := c.runSubject(ctx, &subject); err != nil {
			logger.WithError(err).
				WithField("subject_id", subject.SubjectID).
				Error("subject tick failed")
			c.audit(ctx, subject.SubjectID, model.AuditRoboError, map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// RunCleanup prunes expired locks and stale usage buckets.
func (c *Coordinator) RunCleanup(ctx context.Context) {
	now := c.now()

	if pruned, err := c.locks.DeleteExpired(ctx, now); err == nil && pruned > 0 {
		logger.WithField("pruned", pruned).Info("expired execution locks removed")
	}
	if pruned, err := c.usage.DeleteOlderThan(ctx, now.Add(-c.cfg.UsageRetention)); err == nil && pruned > 0 {
		logger.WithField("pruned", pruned).Info("stale usage buckets removed")
	}
}

func (c *Coordinator) runSubject(ctx context.Context, stale *model.RoboSettings) error {
	now := c.now()
	owner := uuid.NewString()

	acquired, err := c.locks.Acquire(ctx, stale.SubjectID, owner, c.cfg.LockTTL, now)
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !acquired {
		logger.WithField("subject_id", stale.SubjectID).Info("subject locked, skipping")
		c.audit(ctx, stale.SubjectID, model.AuditLockSkipped, map[string]interface{}{
			"owner": owner,
		})
		return nil
	}
	defer func() {
		if err := c.locks.Release(context.WithoutCancel(ctx), stale.SubjectID, owner); err != nil {
			logger.WithError(err).Error("failed to release execution lock")
		}
	}()

	// re-read inside the lock to catch a disable race
	settings, err := c.settings.FindBySubject(ctx, stale.SubjectID)
	if err != nil {
		return err
	}
	if settings == nil || !settings.Enabled {
		logger.WithField("subject_id", stale.SubjectID).Info("subject disabled since tick started")
		c.audit(ctx, stale.SubjectID, model.AuditRoboDisabled, nil)
		return nil
	}

	signal, err := c.signals.Resolve(ctx, settings)
	if err != nil {
		return fmt.Errorf("resolving signal: %w", err)
	}

	quote, err := c.quotes.GetQuote(ctx, signal.Symbol)
	if err != nil {
		return err
	}

	if signal.Side == model.SideBuy {
		violated, err := checkQuota(ctx, c.usage, settings, signal.Notional, now)
		if err != nil {
			return fmt.Errorf("checking quotas: %w", err)
		}
		if len(violated) > 0 {
			logger.WithFields(map[string]interface{}{
				"subject_id": settings.SubjectID,
				"violated":   violated,
			}).Warn("trade blocked by spend quota")
			c.audit(ctx, settings.SubjectID, model.AuditQuotaBlock, map[string]interface{}{
				"symbol":   signal.Symbol,
				"notional": signal.Notional,
				"violated": violated,
			})
			return nil
		}
	}

	quantity := math.Floor(signal.Notional/quote.Price*1e6) / 1e6
	if quantity <= 0 {
		return fmt.Errorf("notional %.2f too small for %s at %.2f", signal.Notional, signal.Symbol, quote.Price)
	}

	outcome, err := c.orders.Execute(ctx, controller.OrderRequest{
		AccountID:     settings.SubjectID,
		Symbol:        signal.Symbol,
		Side:          signal.Side,
		OrderType:     model.OrderTypeMarket,
		Quantity:      quantity,
		StrategyID:    signal.StrategyID,
		Confidence:    signal.Confidence,
		Alignment:     signal.Alignment,
		ExtendedHours: settings.AllowExtendedHours,
	})
	if err != nil {
		return fmt.Errorf("executing order: %w", err)
	}
	if outcome.Blocked {
		// the controller audited the block already
		return nil
	}

	executedNotional := outcome.Trade.Notional()
	if signal.Side == model.SideBuy {
		for _, w := range limitsFor(settings) {
			if err := c.usage.Increment(ctx, settings.SubjectID, w.bucketType, WindowStart(w.bucketType, now), executedNotional); err != nil {
				return fmt.Errorf("incrementing %s usage: %w", w.bucketType, err)
			}
		}
	}

	c.audit(ctx, settings.SubjectID, model.AuditRoboExecuted, map[string]interface{}{
		"trade_id": outcome.Trade.ID,
		"symbol":   outcome.Trade.Symbol,
		"side":     outcome.Trade.Side,
		"notional": executedNotional,
	})

	c.notifyWithRetry(ctx, settings, outcome)
	return nil
}

// notifyWithRetry attempts delivery up to NotifyAttempts times with linear
// backoff. Delivery failure never fails the trade; the terminal outcome is
// recorded as its own audit event.
func (c *Coordinator) notifyWithRetry(ctx context.Context, settings *model.RoboSettings, outcome *controller.ExecutionOutcome) {
	details := map[string]interface{}{
		"symbol":     outcome.Trade.Symbol,
		"side":       outcome.Trade.Side,
		"quantity":   outcome.Trade.Quantity,
		"fill_price": outcome.Trade.FillPrice,
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.NotifyAttempts; attempt++ {
		receipt, err := c.notifier.Send(ctx, settings.NotifyTo, details)
		if err == nil {
			c.audit(ctx, settings.SubjectID, model.AuditNotifySuccess, map[string]interface{}{
				"provider":   receipt.Provider,
				"message_id": receipt.MessageID,
				"attempts":   attempt,
			})
			return
		}
		lastErr = err
		logger.WithError(err).
			WithField("attempt", attempt).
			Warn("notification attempt failed")

		if attempt < c.cfg.NotifyAttempts {
			c.sleep(time.Duration(attempt) * c.cfg.NotifyBackoff)
		}
	}

	c.audit(ctx, settings.SubjectID, model.AuditNotifyFailure, map[string]interface{}{
		"attempts": c.cfg.NotifyAttempts,
		"error":    lastErr.Error(),
	})
}

func (c *Coordinator) audit(ctx context.Context, subjectID uint, eventType string, payload map[string]interface{}) {
	if err := c.audits.Write(ctx, subjectID, eventType, payload); err != nil {
		logger.WithError(err).Error("failed to write audit event")
	}
}
