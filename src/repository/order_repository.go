package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// OrderRepository handles standalone order records. Filled orders are
// written by the ExecutionRepository inside the fill transaction; this
// repository exists for rejected orders and reads.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{db: database.MainDB}
}

func (r *OrderRepository) WithDB(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order record.
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "OrderRepository",
			"op":     "Create",
			"symbol": order.Symbol,
			"side":   order.Side,
		}).WithError(err).Error("Failed to create order")
		return err
	}
	return nil
}

// FindLatest returns the latest orders for an account, newest first.
func (r *OrderRepository) FindLatest(ctx context.Context, accountID uint, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 20
	}

	var orders []model.Order

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "OrderRepository",
			"op":         "FindLatest",
			"account_id": accountID,
		}).WithError(err).Error("Failed to fetch latest orders")
		return nil, err
	}

	return orders, nil
}
