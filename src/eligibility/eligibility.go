package eligibility

import (
	"math"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/model"
)

const (
	ReasonInsufficientTrades    = "insufficient_trade_history"
	ReasonNonPositiveExpectancy = "non_positive_expectancy"
	ReasonLowSharpe             = "sharpe_below_minimum"
	ReasonNegativeRecentR       = "recent_performance_negative"
	ReasonLowConfidence         = "confidence_below_minimum"
	ReasonLowAlignment          = "regime_alignment_below_minimum"
	ReasonDailyDrawdown         = "daily_drawdown_exceeded"
	ReasonCircuitBreaker        = "circuit_breaker_active"
	ReasonExposureExceeded      = "projected_exposure_exceeded"
	ReasonZeroShares            = "position_size_below_one_share"
)

// GateConfig holds the statistical and account thresholds an idea must clear
// before it can mutate the ledger.
type GateConfig struct {
	MinTradeCount        int
	MinSharpe            float64
	MinConfidence        float64
	MinAlignment         float64
	MaxDailyDrawdownPct  float64
	MaxConsecutiveLosses int
	MaxExposurePct       float64
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinTradeCount:        30,
		MinSharpe:            0.3,
		MinConfidence:        70,
		MinAlignment:         55,
		MaxDailyDrawdownPct:  0.015,
		MaxConsecutiveLosses: 3,
		MaxExposurePct:       0.20,
	}
}

// Input carries everything the gate scores: the strategy's closed-trade
// sample (oldest first), the account context, and the proposed idea.
type Input struct {
	Sample            []model.Trade
	Equity            float64
	DailyPnL          float64
	ConsecutiveLosses int
	OpenExposure      float64
	PlannedNotional   float64
	EntryPrice        float64
	ConfidenceScore   float64
	AlignmentScore    float64
}

// AccountStats echoes the account context the decision was made against.
type AccountStats struct {
	Equity            float64 `json:"equity"`
	DailyPnL          float64 `json:"daily_pnl"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
}

// ProjectedStats describes the account as it would look after the trade.
type ProjectedStats struct {
	Exposure       float64 `json:"exposure"`
	ExposurePct    float64 `json:"exposure_pct"`
	RecommendedQty float64 `json:"recommended_qty"`
}

// Result reports eligibility along with every violated condition; callers
// rely on the full reason list, not just the first failure.
type Result struct {
	Eligible       bool           `json:"eligible"`
	ReasonsBlocked []string       `json:"reasons_blocked"`
	Strategy       StrategyStats  `json:"strategy_stats"`
	Account        AccountStats   `json:"account_stats"`
	Projected      ProjectedStats `json:"projected_stats"`
}

// Check scores the idea. All blocking conditions are evaluated; an idea is
// eligible only when none fire.
func Check(cfg GateConfig, in Input) Result {
	stats := ComputeStats(rMultiples(in.Sample))

	projectedExposure := in.OpenExposure + in.PlannedNotional
	var qty float64
	if in.EntryPrice > 0 {
		qty = math.Floor(in.PlannedNotional / in.EntryPrice)
	}

	result := Result{
		Strategy: stats,
		Account: AccountStats{
			Equity:            in.Equity,
			DailyPnL:          in.DailyPnL,
			ConsecutiveLosses: in.ConsecutiveLosses,
		},
		Projected: ProjectedStats{
			Exposure:       projectedExposure,
			RecommendedQty: qty,
		},
	}
	if in.Equity > 0 {
		result.Projected.ExposurePct = projectedExposure / in.Equity
	}

	var reasons []string
	if stats.TradeCount < cfg.MinTradeCount {
		reasons = append(reasons, ReasonInsufficientTrades)
	}
	if stats.Expectancy <= 0 {
		reasons = append(reasons, ReasonNonPositiveExpectancy)
	}
	if stats.SharpeLike < cfg.MinSharpe {
		reasons = append(reasons, ReasonLowSharpe)
	}
	if stats.RecentAvgR == nil || *stats.RecentAvgR < 0 {
		reasons = append(reasons, ReasonNegativeRecentR)
	}
	if in.ConfidenceScore < cfg.MinConfidence {
		reasons = append(reasons, ReasonLowConfidence)
	}
	if in.AlignmentScore < cfg.MinAlignment {
		reasons = append(reasons, ReasonLowAlignment)
	}
	if in.DailyPnL < -in.Equity*cfg.MaxDailyDrawdownPct {
		reasons = append(reasons, ReasonDailyDrawdown)
	}
	if in.ConsecutiveLosses >= cfg.MaxConsecutiveLosses {
		reasons = append(reasons, ReasonCircuitBreaker)
	}
	if in.Equity > 0 && projectedExposure > in.Equity*cfg.MaxExposurePct {
		reasons = append(reasons, ReasonExposureExceeded)
	}
	if qty < 1 {
		reasons = append(reasons, ReasonZeroShares)
	}

	result.ReasonsBlocked = reasons
	result.Eligible = len(reasons) == 0

	if !result.Eligible {
		logger.WithFields(map[string]interface{}{
			"component": "eligibility",
			"reasons":   reasons,
		}).Info("idea blocked by eligibility gate")
	}

	return result
}

// rMultiples extracts the recorded R-multiples from a closed-trade sample,
// skipping trades that carry no risk reference.
func rMultiples(sample []model.Trade) []float64 {
	rs := make([]float64, 0, len(sample))
	for _, t := range sample {
		if t.RMultiple != nil {
			rs = append(rs, *t.RMultiple)
		}
	}
	return rs
}
