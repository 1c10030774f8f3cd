package risk

import (
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/model"
)

const (
	ReasonCooldownActive    = "cooldown_active"
	ReasonPositionTooLarge  = "position_too_large"
	ReasonDailyLossBreached = "daily_loss_breached"
)

// GuardrailConfig holds the hard pre-trade limits. These are independent of
// any strategy statistics.
type GuardrailConfig struct {
	MaxPositionPct       float64
	MaxDailyLossPct      float64
	CooldownHours        int
	MaxConsecutiveLosses int
}

// DefaultGuardrailConfig reasonable defaults, tweak per account tier.
func DefaultGuardrailConfig() GuardrailConfig {
	return GuardrailConfig{
		MaxPositionPct:       0.10,
		MaxDailyLossPct:      0.03,
		CooldownHours:        24,
		MaxConsecutiveLosses: 3,
	}
}

// Verdict is a first-class result, not an error. Reason is empty when OK.
type Verdict struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Evaluate runs the guardrail checks in order, short-circuiting on the first
// failure: active cooldown, then position size, then daily loss.
func Evaluate(cfg GuardrailConfig, equity, orderNotional, dailyPnL float64, state *model.RiskState, now time.Time) Verdict {
	if state != nil && state.CooldownActive(now) {
		logger.WithFields(map[string]interface{}{
			"component":      "guardrail",
			"cooldown_until": state.CooldownUntil,
		}).Warn("order blocked by active cooldown")
		return Verdict{Reason: ReasonCooldownActive}
	}

	if orderNotional > equity*cfg.MaxPositionPct {
		logger.WithFields(map[string]interface{}{
			"component":      "guardrail",
			"order_notional": orderNotional,
			"max_notional":   equity * cfg.MaxPositionPct,
		}).Warn("order blocked by max position size")
		return Verdict{Reason: ReasonPositionTooLarge}
	}

	if dailyPnL < -equity*cfg.MaxDailyLossPct {
		logger.WithFields(map[string]interface{}{
			"component": "guardrail",
			"daily_pnl": dailyPnL,
			"max_loss":  equity * cfg.MaxDailyLossPct,
		}).Warn("order blocked by daily loss limit")
		return Verdict{Reason: ReasonDailyLossBreached}
	}

	return Verdict{OK: true}
}

// UpdateCooldown reacts to the realized P&L of a just-committed trade:
// losses increment the consecutive-loss counter, wins reset it, a flat
// result leaves it unchanged. Hitting the loss limit arms the cooldown.
//
// Callers must run this inside the same transaction that committed the
// trade; a lost update here would let a losing streak go unnoticed.
func UpdateCooldown(cfg GuardrailConfig, state *model.RiskState, realizedPnL float64, now time.Time) {
	switch {
	case realizedPnL < 0:
		state.ConsecutiveLosses++
	case realizedPnL > 0:
		state.ConsecutiveLosses = 0
	}

	if state.ConsecutiveLosses >= cfg.MaxConsecutiveLosses {
		until := now.Add(time.Duration(cfg.CooldownHours) * time.Hour)
		state.CooldownUntil = &until
		logger.WithFields(map[string]interface{}{
			"component":          "guardrail",
			"account_id":         state.AccountID,
			"consecutive_losses": state.ConsecutiveLosses,
			"cooldown_until":     until.Format(time.RFC3339),
		}).Warn(fmt.Sprintf("cooldown armed after %d consecutive losses", state.ConsecutiveLosses))
	}
}
