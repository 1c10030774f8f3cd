package model

import "time"

const (
	BucketDay   = "day"
	BucketWeek  = "week"
	BucketMonth = "month"
)

// UsageBucket accumulates notional spent by an autonomous subject inside one
// quota window. One row per (subject, bucket_type, bucket_start); increments
// are atomic upserts and the counter is never decremented.
type UsageBucket struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SubjectID     uint      `gorm:"not null;uniqueIndex:idx_usage_subject_window" json:"subject_id"`
	BucketType    string    `gorm:"size:10;not null;uniqueIndex:idx_usage_subject_window" json:"bucket_type"`
	BucketStart   time.Time `gorm:"not null;uniqueIndex:idx_usage_subject_window" json:"bucket_start"`
	SpentNotional float64   `gorm:"not null;default:0" json:"spent_notional"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (UsageBucket) TableName() string {
	return "usage_buckets"
}

// ExecutionLock is a lease-based mutual exclusion record per subject.
// A lease with locked_until in the past is reclaimable by any owner.
type ExecutionLock struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SubjectID   uint      `gorm:"uniqueIndex;not null" json:"subject_id"`
	Owner       string    `gorm:"size:40;not null" json:"owner"`
	LockedUntil time.Time `gorm:"not null" json:"locked_until"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ExecutionLock) TableName() string {
	return "execution_locks"
}
