package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// EquityRepository stores the derived equity snapshots written after each
// committed trade.
type EquityRepository struct {
	db *gorm.DB
}

func NewEquityRepository() *EquityRepository {
	return &EquityRepository{db: database.MainDB}
}

func (r *EquityRepository) WithDB(db *gorm.DB) *EquityRepository {
	return &EquityRepository{db: db}
}

func (r *EquityRepository) Create(ctx context.Context, snapshot *model.EquitySnapshot) error {
	err := r.db.WithContext(ctx).Create(snapshot).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "EquityRepository",
			"op":         "Create",
			"account_id": snapshot.AccountID,
		}).WithError(err).Error("Failed to create equity snapshot")
	}
	return err
}

// FindLatest returns the most recent snapshot, or (nil, nil) when the
// account has none yet.
func (r *EquityRepository) FindLatest(ctx context.Context, accountID uint) (*model.EquitySnapshot, error) {
	var snapshot model.EquitySnapshot

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		First(&snapshot).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":       "EquityRepository",
			"op":         "FindLatest",
			"account_id": accountID,
		}).WithError(err).Error("Failed to fetch equity snapshot")
		return nil, err
	}

	return &snapshot, nil
}
