package regime

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"papertrader/src/connectors"
	"papertrader/src/model"
)

type snapshotStore interface {
	FindByDate(ctx context.Context, accountID uint, date string) (*model.RegimeSnapshot, error)
	Create(ctx context.Context, snapshot *model.RegimeSnapshot) error
}

// Service caches regime detection behind the persisted daily snapshot:
// detection runs at most once per calendar date per account.
type Service struct {
	store    snapshotStore
	detector connectors.RegimeDetector
}

func NewService(store snapshotStore, detector connectors.RegimeDetector) *Service {
	return &Service{store: store, detector: detector}
}

// GetOrCreate returns the account's snapshot for the date, running the
// detector only when none is stored yet. A concurrent creator winning the
// unique-index race is treated as a cache hit.
func (s *Service) GetOrCreate(ctx context.Context, accountID uint, date string) (*model.RegimeSnapshot, error) {
	existing, err := s.store.FindByDate(ctx, accountID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	detected, err := s.detector.DetectRegime(ctx)
	if err != nil {
		return nil, err
	}
	detected.AccountID = accountID
	detected.SnapshotDate = date

	if err := s.store.Create(ctx, detected); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, findErr := s.store.FindByDate(ctx, accountID, date)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, fmt.Errorf("persisting regime snapshot: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"component":  "regime",
		"account_id": accountID,
		"date":       date,
	}).Info("regime snapshot cached for the day")

	return detected, nil
}
