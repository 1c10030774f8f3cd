package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// RiskStateRepository handles the per-account mutable risk record.
type RiskStateRepository struct {
	db *gorm.DB
}

func NewRiskStateRepository() *RiskStateRepository {
	return &RiskStateRepository{db: database.MainDB}
}

func (r *RiskStateRepository) WithDB(db *gorm.DB) *RiskStateRepository {
	return &RiskStateRepository{db: db}
}

// GetOrCreate fetches the account's risk state, creating a zeroed record on
// first use.
func (r *RiskStateRepository) GetOrCreate(ctx context.Context, accountID uint) (*model.RiskState, error) {
	var state model.RiskState

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&state).Error

	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.WithFields(map[string]interface{}{
			"repo":       "RiskStateRepository",
			"op":         "GetOrCreate",
			"account_id": accountID,
		}).WithError(err).Error("Failed to fetch risk state")
		return nil, err
	}

	state = model.RiskState{AccountID: accountID}
	if err := r.db.WithContext(ctx).Create(&state).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "RiskStateRepository",
			"op":         "GetOrCreate",
			"account_id": accountID,
		}).WithError(err).Error("Failed to create risk state")
		return nil, err
	}

	return &state, nil
}

// Save persists an updated risk state.
func (r *RiskStateRepository) Save(ctx context.Context, state *model.RiskState) error {
	err := r.db.WithContext(ctx).Save(state).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "RiskStateRepository",
			"op":         "Save",
			"account_id": state.AccountID,
		}).WithError(err).Error("Failed to save risk state")
	}
	return err
}
