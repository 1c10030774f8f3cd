package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
	"papertrader/src/risk"
)

// ExecutionRepository commits a priced fill as one transaction: the order
// record, the trade, the plan-idea linkage, and the risk-state update all
// land together or not at all. The cooldown update in particular must never
// be lost to a race with the trade it reacts to.
type ExecutionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository() *ExecutionRepository {
	return &ExecutionRepository{db: database.MainDB}
}

func (r *ExecutionRepository) WithDB(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// CommitFill persists order and trade and performs the dependent writes.
// The trade's OrderID and PlanIdeaID are filled in during the transaction.
func (r *ExecutionRepository) CommitFill(
	ctx context.Context,
	order *model.Order,
	trade *model.Trade,
	guardCfg risk.GuardrailConfig,
	now time.Time,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		trade.OrderID = &order.ID
		if err := tx.Create(trade).Error; err != nil {
			return err
		}

		if err := linkPlanIdea(tx, trade, now); err != nil {
			return err
		}

		return updateRiskState(tx, guardCfg, trade, now)
	})

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "ExecutionRepository",
			"op":     "CommitFill",
			"symbol": trade.Symbol,
			"side":   trade.Side,
		}).WithError(err).Error("Failed to commit fill")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "ExecutionRepository",
		"op":       "CommitFill",
		"order_id": order.ID,
		"trade_id": trade.ID,
	}).Info("Fill committed")

	return nil
}

// linkPlanIdea attaches the trade to the first pending idea of today's plan
// with a matching symbol and strategy. A trade links to at most one idea and
// an already-linked or terminal idea is never touched, so the operation is
// idempotent.
func linkPlanIdea(tx *gorm.DB, trade *model.Trade, now time.Time) error {
	if trade.StrategyID == nil {
		return nil
	}

	date := now.UTC().Format("2006-01-02")

	var plan model.TradePlan
	err := tx.Where("account_id = ? AND plan_date = ?", trade.AccountID, date).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var idea model.TradeIdea
	err = tx.
		Where("plan_id = ? AND symbol = ? AND strategy_id = ? AND status = ?",
			plan.ID, trade.Symbol, *trade.StrategyID, model.IdeaStatusPending).
		Order("id ASC").
		First(&idea).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := tx.Model(&model.TradeIdea{}).
		Where("id = ? AND status = ?", idea.ID, model.IdeaStatusPending).
		Updates(map[string]interface{}{
			"status":     model.IdeaStatusExecuted,
			"trade_id":   trade.ID,
			"updated_at": now,
		}).Error; err != nil {
		return err
	}

	trade.PlanIdeaID = &idea.IdeaID
	if err := tx.Model(&model.Trade{}).
		Where("id = ?", trade.ID).
		Update("plan_idea_id", idea.IdeaID).Error; err != nil {
		return err
	}

	// the idea transition must leave a durable audit record in the same
	// transaction as the linkage itself
	var payload string
	if b, err := json.Marshal(map[string]interface{}{
		"idea_id":  idea.IdeaID,
		"trade_id": trade.ID,
	}); err == nil {
		payload = string(b)
	}
	event := model.AuditEvent{
		EventID:   uuid.NewString(),
		SubjectID: trade.AccountID,
		EventType: model.AuditIdeaExecuted,
		Payload:   payload,
		CreatedAt: now,
	}
	return tx.Create(&event).Error
}

// updateRiskState applies the cooldown reaction to this trade's realized
// P&L inside the commit transaction.
func updateRiskState(tx *gorm.DB, cfg risk.GuardrailConfig, trade *model.Trade, now time.Time) error {
	var state model.RiskState
	err := tx.Where("account_id = ?", trade.AccountID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = model.RiskState{AccountID: trade.AccountID}
		if err := tx.Create(&state).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	risk.UpdateCooldown(cfg, &state, trade.RealizedPnL, now)
	return tx.Save(&state).Error
}
