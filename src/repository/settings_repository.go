package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papertrader/src/database"
	"papertrader/src/model"
)

// SettingsRepository handles autonomous execution settings per subject.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{db: database.MainDB}
}

func (r *SettingsRepository) WithDB(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// FindEnabled returns settings of all subjects with autonomous execution
// switched on.
func (r *SettingsRepository) FindEnabled(ctx context.Context) ([]model.RoboSettings, error) {
	var settings []model.RoboSettings

	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("subject_id ASC").
		Find(&settings).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SettingsRepository",
			"op":   "FindEnabled",
		}).WithError(err).Error("Failed to fetch enabled settings")
		return nil, err
	}

	return settings, nil
}

// FindBySubject fetches one subject's settings.
// Returns (nil, nil) when the subject has none.
func (r *SettingsRepository) FindBySubject(ctx context.Context, subjectID uint) (*model.RoboSettings, error) {
	var settings model.RoboSettings

	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		First(&settings).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":       "SettingsRepository",
			"op":         "FindBySubject",
			"subject_id": subjectID,
		}).WithError(err).Error("Failed to fetch settings")
		return nil, err
	}

	return &settings, nil
}

// Upsert creates or replaces a subject's settings.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *model.RoboSettings) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}},
			UpdateAll: true,
		}).
		Create(settings).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "SettingsRepository",
			"op":         "Upsert",
			"subject_id": settings.SubjectID,
		}).WithError(err).Error("Failed to upsert settings")
	}
	return err
}
