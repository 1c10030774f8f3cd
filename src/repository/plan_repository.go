package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// ErrTerminalIdea is returned on any attempt to transition a plan idea out
// of a terminal state.
var ErrTerminalIdea = errors.New("plan idea is in a terminal state")

// PlanRepository handles trade plans and their ideas.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository() *PlanRepository {
	return &PlanRepository{db: database.MainDB}
}

func (r *PlanRepository) WithDB(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a plan with its ranking snapshot and ideas. The unique
// (account_id, plan_date) index rejects duplicates at the store level.
func (r *PlanRepository) Create(ctx context.Context, plan *model.TradePlan) error {
	err := r.db.WithContext(ctx).Create(plan).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "PlanRepository",
			"op":         "Create",
			"account_id": plan.AccountID,
			"plan_date":  plan.PlanDate,
		}).WithError(err).Error("Failed to create trade plan")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":      "PlanRepository",
		"op":        "Create",
		"plan_id":   plan.ID,
		"plan_date": plan.PlanDate,
	}).Info("Trade plan created")

	return nil
}

// ExistsForDate reports whether a plan already exists for the account/date.
func (r *PlanRepository) ExistsForDate(ctx context.Context, accountID uint, date string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.TradePlan{}).
		Where("account_id = ? AND plan_date = ?", accountID, date).
		Count(&count).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "PlanRepository",
			"op":         "ExistsForDate",
			"account_id": accountID,
			"plan_date":  date,
		}).WithError(err).Error("Failed to count plans")
		return false, err
	}

	return count > 0, nil
}

// FindByDate fetches the plan with rankings and ideas preloaded.
// Returns (nil, nil) if no plan exists.
func (r *PlanRepository) FindByDate(ctx context.Context, accountID uint, date string) (*model.TradePlan, error) {
	var plan model.TradePlan

	err := r.db.WithContext(ctx).
		Preload("RankedStrategies").
		Preload("Ideas").
		Where("account_id = ? AND plan_date = ?", accountID, date).
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":       "PlanRepository",
			"op":         "FindByDate",
			"account_id": accountID,
			"plan_date":  date,
		}).WithError(err).Error("Failed to fetch plan")
		return nil, err
	}

	return &plan, nil
}

// TransitionIdea moves an idea to a new status, enforcing the one-way
// PENDING -> EXECUTED|SKIPPED state machine inside a transaction.
func (r *PlanRepository) TransitionIdea(ctx context.Context, ideaID string, next model.IdeaStatus, tradeID *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var idea model.TradeIdea
		if err := tx.Where("idea_id = ?", ideaID).First(&idea).Error; err != nil {
			return err
		}

		if !idea.Status.CanTransitionTo(next) {
			logger.WithFields(map[string]interface{}{
				"repo":    "PlanRepository",
				"op":      "TransitionIdea",
				"idea_id": ideaID,
				"from":    idea.Status,
				"to":      next,
			}).Warn("Rejected illegal idea transition")
			return fmt.Errorf("%w: %s -> %s", ErrTerminalIdea, idea.Status, next)
		}

		updates := map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		}
		if tradeID != nil {
			updates["trade_id"] = *tradeID
		}

		return tx.Model(&model.TradeIdea{}).
			Where("idea_id = ?", ideaID).
			Updates(updates).Error
	})
}
