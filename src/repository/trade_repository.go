package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// TradeRepository handles read/write operations for the trade ledger.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new repository instance using the main
// read/write database.
func NewTradeRepository() *TradeRepository {
	return &TradeRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance. Useful for
// tests or when using a specific session/transaction.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// FindByAccount returns the full ordered trade log for one account. The
// ledger fold depends on this ordering.
func (r *TradeRepository) FindByAccount(ctx context.Context, accountID uint) ([]model.Trade, error) {
	var trades []model.Trade

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("executed_at ASC, id ASC").
		Find(&trades).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "TradeRepository",
			"op":         "FindByAccount",
			"account_id": accountID,
		}).WithError(err).Error("Failed to fetch trades")
		return nil, err
	}

	return trades, nil
}

// FindClosedSince returns trades with a recorded R-multiple executed at or
// after the given time, oldest first. These are the closed, risk-referenced
// outcomes used by ranking and the eligibility gate.
func (r *TradeRepository) FindClosedSince(ctx context.Context, accountID uint, since time.Time) ([]model.Trade, error) {
	var trades []model.Trade

	err := r.db.WithContext(ctx).
		Where("account_id = ? AND r_multiple IS NOT NULL AND executed_at >= ?", accountID, since).
		Order("executed_at ASC, id ASC").
		Find(&trades).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "TradeRepository",
			"op":         "FindClosedSince",
			"account_id": accountID,
		}).WithError(err).Error("Failed to fetch closed trades")
		return nil, err
	}

	return trades, nil
}

// FindClosedByStrategy returns the closed-trade sample for one strategy,
// oldest first.
func (r *TradeRepository) FindClosedByStrategy(ctx context.Context, accountID uint, strategyID string) ([]model.Trade, error) {
	var trades []model.Trade

	err := r.db.WithContext(ctx).
		Where("account_id = ? AND strategy_id = ? AND r_multiple IS NOT NULL", accountID, strategyID).
		Order("executed_at ASC, id ASC").
		Find(&trades).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "TradeRepository",
			"op":          "FindClosedByStrategy",
			"account_id":  accountID,
			"strategy_id": strategyID,
		}).WithError(err).Error("Failed to fetch strategy trades")
		return nil, err
	}

	return trades, nil
}

// FindLatest returns the most recent trades, newest first.
func (r *TradeRepository) FindLatest(ctx context.Context, accountID uint, limit int) ([]model.Trade, error) {
	if limit <= 0 {
		limit = 20
	}

	var trades []model.Trade

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		Limit(limit).
		Find(&trades).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "TradeRepository",
			"op":         "FindLatest",
			"account_id": accountID,
		}).WithError(err).Error("Failed to fetch latest trades")
		return nil, err
	}

	return trades, nil
}
