package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/database"
	"papertrader/src/model"
)

// RegimeRepository stores the daily regime snapshots.
type RegimeRepository struct {
	db *gorm.DB
}

func NewRegimeRepository() *RegimeRepository {
	return &RegimeRepository{db: database.MainDB}
}

func (r *RegimeRepository) WithDB(db *gorm.DB) *RegimeRepository {
	return &RegimeRepository{db: db}
}

// FindByDate fetches the snapshot for the account/date.
// Returns (nil, nil) if none exists yet.
func (r *RegimeRepository) FindByDate(ctx context.Context, accountID uint, date string) (*model.RegimeSnapshot, error) {
	var snapshot model.RegimeSnapshot

	err := r.db.WithContext(ctx).
		Where("account_id = ? AND snapshot_date = ?", accountID, date).
		First(&snapshot).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":       "RegimeRepository",
			"op":         "FindByDate",
			"account_id": accountID,
			"date":       date,
		}).WithError(err).Error("Failed to fetch regime snapshot")
		return nil, err
	}

	return &snapshot, nil
}

// Create inserts a snapshot. The unique (account_id, snapshot_date) index
// keeps detection to one snapshot per day even under a race; callers should
// re-read on a duplicate-key error.
func (r *RegimeRepository) Create(ctx context.Context, snapshot *model.RegimeSnapshot) error {
	err := r.db.WithContext(ctx).Create(snapshot).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "RegimeRepository",
			"op":         "Create",
			"account_id": snapshot.AccountID,
			"date":       snapshot.SnapshotDate,
		}).WithError(err).Error("Failed to create regime snapshot")
	}
	return err
}
