package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"papertrader/src/database"
	"papertrader/src/model"
	"papertrader/src/risk"
)

func TestCommitFillPersistsOrderAndTrade(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&ExecutionRepository{}).WithDB(db)

	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	order := &model.Order{AccountID: 1, Symbol: "AAPL", Side: model.SideBuy, OrderType: model.OrderTypeMarket, Quantity: 10, FillPrice: 100.05, Notional: 1000.5, Status: model.OrderStatusFilled}
	trade := &model.Trade{AccountID: 1, Symbol: "AAPL", Side: model.SideBuy, Quantity: 10, FillPrice: 100.05, ExecutedAt: now}

	if err := repo.CommitFill(context.Background(), order, trade, risk.DefaultGuardrailConfig(), now); err != nil {
		t.Fatalf("unexpected error committing fill: %v", err)
	}

	if order.ID == 0 || trade.ID == 0 {
		t.Fatalf("identifiers not assigned. order=%d trade=%d", order.ID, trade.ID)
	}
	if trade.OrderID == nil || *trade.OrderID != order.ID {
		t.Fatalf("trade must reference its order: %+v", trade)
	}

	var state model.RiskState
	if err := db.Where("account_id = ?", 1).First(&state).Error; err != nil {
		t.Fatalf("risk state must be created in the same transaction: %v", err)
	}
	if state.ConsecutiveLosses != 0 {
		t.Fatalf("flat trade must not touch the loss streak. got=%d", state.ConsecutiveLosses)
	}
}

func TestCommitFillLinksPendingIdea(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&ExecutionRepository{}).WithDB(db)
	plans := (&PlanRepository{}).WithDB(db)

	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	date := now.UTC().Format("2006-01-02")

	plan := &model.TradePlan{
		AccountID: 1,
		PlanDate:  date,
		Ideas: []model.TradeIdea{
			{IdeaID: "idea-1", Symbol: "NVDA", Side: model.SideBuy, StrategyID: "momentum_breakout", Status: model.IdeaStatusPending},
			{IdeaID: "idea-2", Symbol: "NVDA", Side: model.SideBuy, StrategyID: "momentum_breakout", Status: model.IdeaStatusPending},
		},
	}
	if err := plans.Create(context.Background(), plan); err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}

	strategy := "momentum_breakout"
	order := &model.Order{AccountID: 1, Symbol: "NVDA", Side: model.SideBuy, OrderType: model.OrderTypeMarket, Quantity: 2, FillPrice: 420, Status: model.OrderStatusFilled}
	trade := &model.Trade{AccountID: 1, Symbol: "NVDA", Side: model.SideBuy, Quantity: 2, FillPrice: 420, StrategyID: &strategy, ExecutedAt: now}

	if err := repo.CommitFill(context.Background(), order, trade, risk.DefaultGuardrailConfig(), now); err != nil {
		t.Fatalf("unexpected error committing fill: %v", err)
	}

	if trade.PlanIdeaID == nil || *trade.PlanIdeaID != "idea-1" {
		t.Fatalf("trade must link the first pending idea: %+v", trade.PlanIdeaID)
	}

	found, err := plans.FindByDate(context.Background(), 1, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, second := found.Ideas[0], found.Ideas[1]
	if first.Status != model.IdeaStatusExecuted || first.TradeID == nil || *first.TradeID != trade.ID {
		t.Fatalf("first idea must be executed and linked: %+v", first)
	}
	if second.Status != model.IdeaStatusPending {
		t.Fatalf("second idea must stay pending: %+v", second)
	}

	var events []model.AuditEvent
	if err := db.Where("event_type = ?", model.AuditIdeaExecuted).Find(&events).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("the linkage transition must write exactly one audit event. got=%d", len(events))
	}
	if events[0].SubjectID != 1 {
		t.Fatalf("audit subject mismatch: %+v", events[0])
	}
	if !strings.Contains(events[0].Payload, `"idea_id":"idea-1"`) {
		t.Fatalf("audit payload must name the idea: %q", events[0].Payload)
	}
}

func TestCommitFillWithoutStrategySkipsLinkage(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&ExecutionRepository{}).WithDB(db)

	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	order := &model.Order{AccountID: 1, Symbol: "AAPL", Side: model.SideBuy, OrderType: model.OrderTypeMarket, Quantity: 1, FillPrice: 100, Status: model.OrderStatusFilled}
	trade := &model.Trade{AccountID: 1, Symbol: "AAPL", Side: model.SideBuy, Quantity: 1, FillPrice: 100, ExecutedAt: now}

	if err := repo.CommitFill(context.Background(), order, trade, risk.DefaultGuardrailConfig(), now); err != nil {
		t.Fatalf("unexpected error committing fill: %v", err)
	}
	if trade.PlanIdeaID != nil {
		t.Fatalf("manual trade must not link an idea: %v", *trade.PlanIdeaID)
	}

	var count int64
	if err := db.Model(&model.AuditEvent{}).Where("event_type = ?", model.AuditIdeaExecuted).Count(&count).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("no linkage means no idea audit. got=%d", count)
	}
}

func TestCommitFillArmsCooldownOnThirdLoss(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&ExecutionRepository{}).WithDB(db)

	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	cfg := risk.DefaultGuardrailConfig()

	for i := 0; i < 3; i++ {
		order := &model.Order{AccountID: 1, Symbol: "AAPL", Side: model.SideSell, OrderType: model.OrderTypeMarket, Quantity: 1, FillPrice: 90, Status: model.OrderStatusFilled}
		trade := &model.Trade{AccountID: 1, Symbol: "AAPL", Side: model.SideSell, Quantity: 1, FillPrice: 90, RealizedPnL: -10, ExecutedAt: now}
		if err := repo.CommitFill(context.Background(), order, trade, cfg, now); err != nil {
			t.Fatalf("unexpected error on loss %d: %v", i+1, err)
		}
	}

	var state model.RiskState
	if err := db.Where("account_id = ?", 1).First(&state).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.ConsecutiveLosses != 3 {
		t.Fatalf("loss streak mismatch. got=%d want=3", state.ConsecutiveLosses)
	}
	if state.CooldownUntil == nil {
		t.Fatal("third consecutive loss must arm the cooldown")
	}
	want := now.Add(24 * time.Hour)
	if !state.CooldownUntil.Equal(want) {
		t.Fatalf("cooldown until mismatch. got=%s want=%s", state.CooldownUntil, want)
	}
}
