package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/account"
	"papertrader/src/connectors"
	"papertrader/src/eligibility"
	"papertrader/src/fillprice"
	"papertrader/src/ledger"
	"papertrader/src/model"
	"papertrader/src/risk"
)

var (
	// ErrMarketClosed rejects an order placed outside the regular session
	// without extended-hours permission.
	ErrMarketClosed = errors.New("market closed and extended hours not permitted")

	// ErrLimitNotSatisfied rejects a fill that violates the order's limit
	// price.
	ErrLimitNotSatisfied = errors.New("fill price violates limit price")

	// ErrMaxPriceExceeded rejects a buy fill above the max price per share.
	ErrMaxPriceExceeded = errors.New("fill price exceeds max price per share")
)

type executionRepository interface {
	CommitFill(ctx context.Context, order *model.Order, trade *model.Trade, guardCfg risk.GuardrailConfig, now time.Time) error
}

type orderRepository interface {
	Create(ctx context.Context, order *model.Order) error
}

type auditSink interface {
	Write(ctx context.Context, subjectID uint, eventType string, payload map[string]interface{}) error
}

type riskStateSource interface {
	GetOrCreate(ctx context.Context, accountID uint) (*model.RiskState, error)
}

type regimeResolver interface {
	GetOrCreate(ctx context.Context, accountID uint, date string) (*model.RegimeSnapshot, error)
}

type equitySink interface {
	Create(ctx context.Context, snapshot *model.EquitySnapshot) error
}

type snapshotService interface {
	Snapshot(ctx context.Context, accountID uint) (*account.Snapshot, error)
}

type strategyTradeSource interface {
	FindClosedByStrategy(ctx context.Context, accountID uint, strategyID string) ([]model.Trade, error)
}

// ExecutionOutcome is the result of one order-controller run. Guardrail
// blocks are outcomes, not errors: Blocked is set and BlockReason filled.
type ExecutionOutcome struct {
	Order       *model.Order `json:"order"`
	Trade       *model.Trade `json:"trade,omitempty"`
	Blocked     bool         `json:"blocked"`
	BlockReason string       `json:"block_reason,omitempty"`
	RealizedPnL float64      `json:"realized_pnl"`
}

// OrderController sequences the execution pipeline: validation, quote, the
// market session gate, fill pricing, limit enforcement, the eligibility gate
// for strategy-tagged requests, the guardrail, the ledger fold, persistence,
// plan linkage, and the derived snapshots. Any failure before persistence
// leaves no partial ledger state.
type OrderController struct {
	executions     executionRepository
	orders         orderRepository
	audits         auditSink
	riskStates     riskStateSource
	regimes        regimeResolver
	equity         equitySink
	accounts       snapshotService
	strategyTrades strategyTradeSource
	quotes         connectors.QuoteService
	calendar       connectors.MarketCalendar
	guardCfg       risk.GuardrailConfig
	gateCfg        eligibility.GateConfig
	cfg            Config
	now            func() time.Time
}

func NewOrderController(
	executions executionRepository,
	orders orderRepository,
	audits auditSink,
	riskStates riskStateSource,
	regimes regimeResolver,
	equity equitySink,
	accounts snapshotService,
	strategyTrades strategyTradeSource,
	quotes connectors.QuoteService,
	calendar connectors.MarketCalendar,
	guardCfg risk.GuardrailConfig,
	gateCfg eligibility.GateConfig,
	cfg Config,
) *OrderController {
	return &OrderController{
		executions:     executions,
		orders:         orders,
		audits:         audits,
		riskStates:     riskStates,
		regimes:        regimes,
		equity:         equity,
		accounts:       accounts,
		strategyTrades: strategyTrades,
		quotes:         quotes,
		calendar:       calendar,
		guardCfg:       guardCfg,
		gateCfg:        gateCfg,
		cfg:            cfg,
		now:            time.Now,
	}
}

// Execute runs the pipeline for one order request.
func (c *OrderController) Execute(ctx context.Context, req OrderRequest) (*ExecutionOutcome, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	now := c.now()

	quote, err := c.quotes.GetQuote(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	status := c.calendar.GetStatus(now)
	if status.Status == connectors.MarketClosed && !req.ExtendedHours {
		return nil, ErrMarketClosed
	}

	fill := fillprice.Apply(req.Side, quote.Price, c.cfg.SlippageBps, fillprice.DefaultTick)

	if err := enforcePriceConstraints(req, fill); err != nil {
		return nil, err
	}

	snapshot, err := c.accounts.Snapshot(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("rebuilding account snapshot: %w", err)
	}

	state, err := c.riskStates.GetOrCreate(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	notional := fill * req.Quantity

	// strategy-tagged requests are idea executions: the eligibility gate
	// must pass before any ledger mutation
	if req.StrategyID != nil {
		gate, err := c.checkEligibility(ctx, req, snapshot, state, fill, notional)
		if err != nil {
			return nil, err
		}
		if !gate.Eligible {
			return c.rejectForEligibility(ctx, req, fill, notional, gate)
		}
	}

	verdict := risk.Evaluate(c.guardCfg, snapshot.Equity, notional, snapshot.DailyRealizedPnL, state, now)
	if !verdict.OK {
		return c.rejectForGuardrail(ctx, req, fill, notional, verdict)
	}

	// fold against the current derived position to price the realized P&L
	current := ledger.Position{Symbol: req.Symbol}
	for _, pos := range snapshot.Positions {
		if pos.Symbol == req.Symbol {
			current = pos
			break
		}
	}
	_, realized := ledger.ApplyTrade(current, req.Side, req.Quantity, fill)
	realized -= c.cfg.CommissionPerTrade

	regimeSnapshot, err := c.regimes.GetOrCreate(ctx, req.AccountID, now.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		AccountID:        req.AccountID,
		Symbol:           req.Symbol,
		Side:             req.Side,
		OrderType:        req.OrderType,
		Quantity:         req.Quantity,
		LimitPrice:       req.LimitPrice,
		MaxPricePerShare: req.MaxPricePerShare,
		StrategyID:       req.StrategyID,
		FillPrice:        fill,
		Notional:         notional,
		Status:           model.OrderStatusFilled,
		ExtendedHours:    req.ExtendedHours,
	}

	trade := &model.Trade{
		AccountID:        req.AccountID,
		Symbol:           req.Symbol,
		Side:             req.Side,
		Quantity:         req.Quantity,
		FillPrice:        fill,
		Commission:       c.cfg.CommissionPerTrade,
		RealizedPnL:      realized,
		RiskPerShare:     req.RiskPerShare,
		StrategyID:       req.StrategyID,
		RegimeTrend:      regimeSnapshot.TrendChop,
		RegimeVolatility: regimeSnapshot.Volatility,
		RegimeRisk:       regimeSnapshot.Risk,
		ExecutedAt:       now,
	}
	attachRMultiple(trade, req)

	if err := c.executions.CommitFill(ctx, order, trade, c.guardCfg, now); err != nil {
		return nil, err
	}

	c.audit(ctx, req.AccountID, model.AuditTradeExecuted, map[string]interface{}{
		"trade_id":     trade.ID,
		"symbol":       trade.Symbol,
		"side":         trade.Side,
		"quantity":     trade.Quantity,
		"fill_price":   trade.FillPrice,
		"realized_pnl": trade.RealizedPnL,
	})

	c.persistEquitySnapshot(ctx, req.AccountID)

	logger.WithFields(map[string]interface{}{
		"component":  "controller",
		"account_id": req.AccountID,
		"symbol":     req.Symbol,
		"side":       req.Side,
		"fill_price": fill,
	}).Info("order executed")

	return &ExecutionOutcome{Order: order, Trade: trade, RealizedPnL: realized}, nil
}

func enforcePriceConstraints(req OrderRequest, fill float64) error {
	if req.OrderType == model.OrderTypeLimit {
		if req.Side == model.SideBuy && fill > *req.LimitPrice {
			return ErrLimitNotSatisfied
		}
		if req.Side == model.SideSell && fill < *req.LimitPrice {
			return ErrLimitNotSatisfied
		}
	}
	if req.MaxPricePerShare != nil && fill > *req.MaxPricePerShare {
		return ErrMaxPriceExceeded
	}
	return nil
}

// checkEligibility scores the request against the strategy's closed-trade
// sample and the account context.
func (c *OrderController) checkEligibility(
	ctx context.Context,
	req OrderRequest,
	snapshot *account.Snapshot,
	state *model.RiskState,
	fill, notional float64,
) (eligibility.Result, error) {
	sample, err := c.strategyTrades.FindClosedByStrategy(ctx, req.AccountID, *req.StrategyID)
	if err != nil {
		return eligibility.Result{}, fmt.Errorf("loading strategy sample: %w", err)
	}

	in := eligibility.Input{
		Sample:            sample,
		Equity:            snapshot.Equity,
		DailyPnL:          snapshot.DailyRealizedPnL,
		ConsecutiveLosses: state.ConsecutiveLosses,
		OpenExposure:      snapshot.OpenExposure(),
		PlannedNotional:   notional,
		EntryPrice:        fill,
	}
	if req.Confidence != nil {
		in.ConfidenceScore = *req.Confidence
	}
	if req.Alignment != nil {
		in.AlignmentScore = *req.Alignment
	}

	return eligibility.Check(c.gateCfg, in), nil
}

// rejectForEligibility persists the rejected order with every violated gate
// condition and reports the block as a first-class outcome, mirroring the
// guardrail path.
func (c *OrderController) rejectForEligibility(ctx context.Context, req OrderRequest, fill, notional float64, gate eligibility.Result) (*ExecutionOutcome, error) {
	reason := strings.Join(gate.ReasonsBlocked, ",")

	order := &model.Order{
		AccountID:        req.AccountID,
		Symbol:           req.Symbol,
		Side:             req.Side,
		OrderType:        req.OrderType,
		Quantity:         req.Quantity,
		LimitPrice:       req.LimitPrice,
		MaxPricePerShare: req.MaxPricePerShare,
		StrategyID:       req.StrategyID,
		FillPrice:        fill,
		Notional:         notional,
		Status:           model.OrderStatusRejected,
		Reason:           reason,
		ExtendedHours:    req.ExtendedHours,
	}

	if err := c.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	c.audit(ctx, req.AccountID, model.AuditEligibilityBlock, map[string]interface{}{
		"symbol":      req.Symbol,
		"side":        req.Side,
		"notional":    notional,
		"strategy_id": *req.StrategyID,
		"reasons":     gate.ReasonsBlocked,
	})

	return &ExecutionOutcome{Order: order, Blocked: true, BlockReason: reason}, nil
}

// rejectForGuardrail persists the rejected order and the audit record, then
// reports the block as a first-class outcome.
func (c *OrderController) rejectForGuardrail(ctx context.Context, req OrderRequest, fill, notional float64, verdict risk.Verdict) (*ExecutionOutcome, error) {
	order := &model.Order{
		AccountID:        req.AccountID,
		Symbol:           req.Symbol,
		Side:             req.Side,
		OrderType:        req.OrderType,
		Quantity:         req.Quantity,
		LimitPrice:       req.LimitPrice,
		MaxPricePerShare: req.MaxPricePerShare,
		StrategyID:       req.StrategyID,
		FillPrice:        fill,
		Notional:         notional,
		Status:           model.OrderStatusRejected,
		Reason:           verdict.Reason,
		ExtendedHours:    req.ExtendedHours,
	}

	if err := c.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	c.audit(ctx, req.AccountID, model.AuditGuardrailBlock, map[string]interface{}{
		"symbol":   req.Symbol,
		"side":     req.Side,
		"notional": notional,
		"reason":   verdict.Reason,
	})

	return &ExecutionOutcome{Order: order, Blocked: true, BlockReason: verdict.Reason}, nil
}

func attachRMultiple(trade *model.Trade, req OrderRequest) {
	if req.RiskPerShare == nil || *req.RiskPerShare <= 0 || trade.RealizedPnL == 0 {
		return
	}
	r := trade.RealizedPnL / (*req.RiskPerShare * trade.Quantity)
	trade.RMultiple = &r
}

func (c *OrderController) audit(ctx context.Context, subjectID uint, eventType string, payload map[string]interface{}) {
	if err := c.audits.Write(ctx, subjectID, eventType, payload); err != nil {
		logger.WithError(err).Error("failed to write audit event")
	}
}

// persistEquitySnapshot recomputes the account and stores the derived view.
// A failure here is logged, not propagated: the ledger is already committed
// and snapshots are rebuildable.
func (c *OrderController) persistEquitySnapshot(ctx context.Context, accountID uint) {
	snapshot, err := c.accounts.Snapshot(ctx, accountID)
	if err != nil {
		logger.WithError(err).Error("failed to recompute equity snapshot")
		return
	}

	record := &model.EquitySnapshot{
		AccountID:        accountID,
		Cash:             snapshot.Cash,
		PositionsValue:   snapshot.PositionsValue,
		Equity:           snapshot.Equity,
		DailyRealizedPnL: snapshot.DailyRealizedPnL,
		TotalRealizedPnL: snapshot.TotalRealizedPnL,
	}
	if err := c.equity.Create(ctx, record); err != nil {
		logger.WithError(err).Error("failed to persist equity snapshot")
	}
}
