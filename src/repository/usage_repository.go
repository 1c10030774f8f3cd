package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papertrader/src/database"
	"papertrader/src/model"
)

// UsageRepository handles the per-window spend counters for autonomous
// subjects.
type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository() *UsageRepository {
	return &UsageRepository{db: database.MainDB}
}

func (r *UsageRepository) WithDB(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Increment adds notional to the (subject, bucket, window) counter with an
// atomic upsert. Concurrent increments for the same bucket must not lose
// updates, so the addition happens inside the database.
func (r *UsageRepository) Increment(ctx context.Context, subjectID uint, bucketType string, bucketStart time.Time, notional float64) error {
	bucket := model.UsageBucket{
		SubjectID:     subjectID,
		BucketType:    bucketType,
		BucketStart:   bucketStart,
		SpentNotional: notional,
		UpdatedAt:     time.Now(),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "subject_id"}, {Name: "bucket_type"}, {Name: "bucket_start"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"spent_notional": gorm.Expr("usage_buckets.spent_notional + ?", notional),
				"updated_at":     time.Now(),
			}),
		}).
		Create(&bucket).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "UsageRepository",
			"op":          "Increment",
			"subject_id":  subjectID,
			"bucket_type": bucketType,
		}).WithError(err).Error("Failed to increment usage bucket")
		return err
	}

	return nil
}

// Spent returns the notional consumed in one window, zero when the bucket
// does not exist yet.
func (r *UsageRepository) Spent(ctx context.Context, subjectID uint, bucketType string, bucketStart time.Time) (float64, error) {
	var bucket model.UsageBucket

	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND bucket_type = ? AND bucket_start = ?", subjectID, bucketType, bucketStart).
		First(&bucket).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":        "UsageRepository",
			"op":          "Spent",
			"subject_id":  subjectID,
			"bucket_type": bucketType,
		}).WithError(err).Error("Failed to fetch usage bucket")
		return 0, err
	}

	return bucket.SpentNotional, nil
}

// DeleteOlderThan prunes buckets whose window started before the cutoff.
func (r *UsageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("bucket_start < ?", cutoff).
		Delete(&model.UsageBucket{})

	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "UsageRepository",
			"op":   "DeleteOlderThan",
		}).WithError(res.Error).Error("Failed to prune usage buckets")
		return 0, res.Error
	}

	return res.RowsAffected, nil
}
