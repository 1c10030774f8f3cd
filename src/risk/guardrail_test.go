package risk

import (
	"testing"
	"time"

	"papertrader/src/model"
)

func TestEvaluate_CheckOrder(t *testing.T) {
	cfg := DefaultGuardrailConfig()
	now := time.Date(2025, time.June, 2, 15, 0, 0, 0, time.UTC)
	cooldownUntil := now.Add(2 * time.Hour)

	tests := []struct {
		name       string
		equity     float64
		notional   float64
		dailyPnL   float64
		state      *model.RiskState
		wantOK     bool
		wantReason string
	}{
		{
			name:     "all clear",
			equity:   100000,
			notional: 5000,
			wantOK:   true,
		},
		{
			name:       "cooldown wins over every other violation",
			equity:     100000,
			notional:   50000,
			dailyPnL:   -10000,
			state:      &model.RiskState{CooldownUntil: &cooldownUntil},
			wantReason: ReasonCooldownActive,
		},
		{
			name:       "position size before daily loss",
			equity:     100000,
			notional:   10001,
			dailyPnL:   -10000,
			wantReason: ReasonPositionTooLarge,
		},
		{
			name:       "daily loss breached",
			equity:     100000,
			notional:   5000,
			dailyPnL:   -3001,
			wantReason: ReasonDailyLossBreached,
		},
		{
			name:     "loss exactly at limit passes",
			equity:   100000,
			notional: 5000,
			dailyPnL: -3000,
			wantOK:   true,
		},
		{
			name:     "notional exactly at cap passes",
			equity:   100000,
			notional: 10000,
			wantOK:   true,
		},
		{
			name:     "expired cooldown is ignored",
			equity:   100000,
			notional: 5000,
			state:    &model.RiskState{CooldownUntil: timePtr(now.Add(-time.Minute))},
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(cfg, tt.equity, tt.notional, tt.dailyPnL, tt.state, now)
			if got.OK != tt.wantOK {
				t.Fatalf("verdict mismatch. got=%+v wantOK=%v", got, tt.wantOK)
			}
			if got.Reason != tt.wantReason {
				t.Fatalf("reason mismatch. got=%q want=%q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestUpdateCooldown_ArmsAfterConsecutiveLosses(t *testing.T) {
	cfg := DefaultGuardrailConfig()
	now := time.Date(2025, time.June, 2, 15, 0, 0, 0, time.UTC)
	state := &model.RiskState{AccountID: 1}

	UpdateCooldown(cfg, state, -50, now)
	UpdateCooldown(cfg, state, -30, now)
	if state.CooldownUntil != nil {
		t.Fatalf("cooldown armed too early at %d losses", state.ConsecutiveLosses)
	}

	UpdateCooldown(cfg, state, -10, now)
	if state.ConsecutiveLosses != 3 {
		t.Fatalf("consecutive losses mismatch. got=%d want=3", state.ConsecutiveLosses)
	}
	if state.CooldownUntil == nil {
		t.Fatal("cooldown should be armed after the third loss")
	}
	want := now.Add(24 * time.Hour)
	if !state.CooldownUntil.Equal(want) {
		t.Fatalf("cooldown until mismatch. got=%s want=%s", state.CooldownUntil, want)
	}
}

func TestUpdateCooldown_WinResetsStreak(t *testing.T) {
	cfg := DefaultGuardrailConfig()
	now := time.Now()
	state := &model.RiskState{ConsecutiveLosses: 2}

	UpdateCooldown(cfg, state, 120, now)

	if state.ConsecutiveLosses != 0 {
		t.Fatalf("win must reset the streak. got=%d", state.ConsecutiveLosses)
	}
	if state.CooldownUntil != nil {
		t.Fatal("win must not arm a cooldown")
	}
}

func TestUpdateCooldown_FlatLeavesStreakUnchanged(t *testing.T) {
	cfg := DefaultGuardrailConfig()
	now := time.Now()
	state := &model.RiskState{ConsecutiveLosses: 2}

	UpdateCooldown(cfg, state, 0, now)

	if state.ConsecutiveLosses != 2 {
		t.Fatalf("flat trade must leave the streak unchanged. got=%d", state.ConsecutiveLosses)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
