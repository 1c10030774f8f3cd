package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papertrader/src/database"
	"papertrader/src/model"
)

// LockRepository implements the lease-based per-subject execution lock.
type LockRepository struct {
	db *gorm.DB
}

func NewLockRepository() *LockRepository {
	return &LockRepository{db: database.MainDB}
}

func (r *LockRepository) WithDB(db *gorm.DB) *LockRepository {
	return &LockRepository{db: db}
}

// Acquire attempts to take the subject's lease until now+ttl. The whole
// operation is a single conditional upsert: insert the lock row, or take
// over an existing row only when its lease has expired. This is the
// compare-and-swap the concurrency model depends on; it must never be split
// into a read followed by a write.
func (r *LockRepository) Acquire(ctx context.Context, subjectID uint, owner string, ttl time.Duration, now time.Time) (bool, error) {
	lock := model.ExecutionLock{
		SubjectID:   subjectID,
		Owner:       owner,
		LockedUntil: now.Add(ttl),
		UpdatedAt:   now,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "subject_id"}},
			Where: clause.Where{
				Exprs: []clause.Expression{
					gorm.Expr("execution_locks.locked_until <= ?", now),
				},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"owner":        owner,
				"locked_until": now.Add(ttl),
				"updated_at":   now,
			}),
		}).
		Create(&lock)

	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "LockRepository",
			"op":         "Acquire",
			"subject_id": subjectID,
		}).WithError(res.Error).Error("Failed to acquire execution lock")
		return false, res.Error
	}

	acquired := res.RowsAffected > 0
	if !acquired {
		logger.WithFields(map[string]interface{}{
			"repo":       "LockRepository",
			"op":         "Acquire",
			"subject_id": subjectID,
			"owner":      owner,
		}).Info("Execution lock held by another owner")
	}

	return acquired, nil
}

// Release frees the lease, but only for the owner that holds it. Releasing
// a lease that expired and was taken over by someone else is a no-op.
func (r *LockRepository) Release(ctx context.Context, subjectID uint, owner string) error {
	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND owner = ?", subjectID, owner).
		Delete(&model.ExecutionLock{}).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "LockRepository",
			"op":         "Release",
			"subject_id": subjectID,
			"owner":      owner,
		}).WithError(err).Error("Failed to release execution lock")
	}
	return err
}

// DeleteExpired removes leases that lapsed before the cutoff. Crashed
// holders leave these behind; they are reclaimable anyway, this just keeps
// the table small.
func (r *LockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("locked_until <= ?", now).
		Delete(&model.ExecutionLock{})

	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "LockRepository",
			"op":   "DeleteExpired",
		}).WithError(res.Error).Error("Failed to prune expired locks")
		return 0, res.Error
	}

	return res.RowsAffected, nil
}
