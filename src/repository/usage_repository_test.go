package repository

import (
	"context"
	"testing"
	"time"

	"papertrader/src/database"
	"papertrader/src/model"
)

func TestUsageRepositoryIncrementAccumulates(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&UsageRepository{}).WithDB(db)

	ctx := context.Background()
	window := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)

	if err := repo.Increment(ctx, 7, model.BucketDay, window, 150); err != nil {
		t.Fatalf("unexpected error on first increment: %v", err)
	}
	if err := repo.Increment(ctx, 7, model.BucketDay, window, 250); err != nil {
		t.Fatalf("unexpected error on second increment: %v", err)
	}

	spent, err := repo.Spent(ctx, 7, model.BucketDay, window)
	if err != nil {
		t.Fatalf("unexpected error reading spend: %v", err)
	}
	if spent != 400 {
		t.Fatalf("increments must accumulate in one row. got=%v want=400", spent)
	}

	var count int64
	if err := db.Model(&model.UsageBucket{}).Count(&count).Error; err != nil {
		t.Fatalf("unexpected error counting buckets: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single bucket row. got=%d", count)
	}
}

func TestUsageRepositoryWindowsAreIndependent(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&UsageRepository{}).WithDB(db)

	ctx := context.Background()
	day := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	week := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	if err := repo.Increment(ctx, 7, model.BucketDay, day, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Increment(ctx, 7, model.BucketWeek, week, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Increment(ctx, 8, model.BucketDay, day, 999); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spent, err := repo.Spent(ctx, 7, model.BucketDay, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spent != 100 {
		t.Fatalf("bucket rows must not bleed across subjects or windows. got=%v", spent)
	}
}

func TestUsageRepositorySpentMissingBucketIsZero(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&UsageRepository{}).WithDB(db)

	spent, err := repo.Spent(context.Background(), 99, model.BucketMonth, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("a missing bucket is not an error: %v", err)
	}
	if spent != 0 {
		t.Fatalf("missing bucket must read as zero. got=%v", spent)
	}
}

func TestUsageRepositoryDeleteOlderThan(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&UsageRepository{}).WithDB(db)

	ctx := context.Background()
	stale := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)

	if err := repo.Increment(ctx, 7, model.BucketDay, stale, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Increment(ctx, 7, model.BucketDay, fresh, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pruned, err := repo.DeleteOlderThan(ctx, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error pruning: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected one stale bucket pruned. got=%d", pruned)
	}

	spent, err := repo.Spent(ctx, 7, model.BucketDay, fresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spent != 100 {
		t.Fatalf("fresh bucket must survive pruning. got=%v", spent)
	}
}
