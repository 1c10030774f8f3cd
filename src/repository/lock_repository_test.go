package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"papertrader/src/database"
)

func TestLockRepositoryAcquire(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&LockRepository{}).WithDB(db)

	ctx := context.Background()
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	ttl := 30 * time.Second

	acquired, err := repo.Acquire(ctx, 7, "owner-a", ttl, now)
	if err != nil {
		t.Fatalf("unexpected error acquiring fresh lock: %v", err)
	}
	if !acquired {
		t.Fatal("fresh lock must be acquirable")
	}

	// a second owner inside the lease window must lose
	acquired, err = repo.Acquire(ctx, 7, "owner-b", ttl, now.Add(10*time.Second))
	if err != nil {
		t.Fatalf("unexpected error on contended acquire: %v", err)
	}
	if acquired {
		t.Fatal("live lease must not be stolen")
	}

	// the same subject, after expiry, is reclaimable by anyone
	acquired, err = repo.Acquire(ctx, 7, "owner-b", ttl, now.Add(ttl))
	if err != nil {
		t.Fatalf("unexpected error reclaiming expired lease: %v", err)
	}
	if !acquired {
		t.Fatal("expired lease must be reclaimable")
	}

	// a different subject is independent
	acquired, err = repo.Acquire(ctx, 8, "owner-a", ttl, now)
	if err != nil {
		t.Fatalf("unexpected error acquiring other subject: %v", err)
	}
	if !acquired {
		t.Fatal("locks must be scoped per subject")
	}
}

func TestLockRepositoryAcquireRaceHasOneWinner(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// a private in-memory database exists per connection; pin the pool so
	// every goroutine contends for the same database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	repo := (&LockRepository{}).WithDB(db)

	ctx := context.Background()
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	ttl := 30 * time.Second

	const contenders = 8
	results := make([]bool, contenders)
	errs := make([]error, contenders)

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.Acquire(ctx, 7, fmt.Sprintf("owner-%d", i), ttl, now)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < contenders; i++ {
		if errs[i] != nil {
			t.Fatalf("contender %d errored: %v", i, errs[i])
		}
		if results[i] {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("exactly one concurrent acquire must win. got=%d", winners)
	}
}

func TestLockRepositoryReleaseOnlyByOwner(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&LockRepository{}).WithDB(db)

	ctx := context.Background()
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
	ttl := 30 * time.Second

	if _, err := repo.Acquire(ctx, 7, "owner-a", ttl, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a stranger's release is a no-op; the lease keeps blocking
	if err := repo.Release(ctx, 7, "owner-b"); err != nil {
		t.Fatalf("foreign release must not error: %v", err)
	}
	acquired, err := repo.Acquire(ctx, 7, "owner-c", ttl, now.Add(time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Fatal("lease must survive a foreign release")
	}

	// the holder's release frees the subject immediately
	if err := repo.Release(ctx, 7, "owner-a"); err != nil {
		t.Fatalf("unexpected error releasing: %v", err)
	}
	acquired, err = repo.Acquire(ctx, 7, "owner-c", ttl, now.Add(2*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("released subject must be acquirable before expiry")
	}
}

func TestLockRepositoryDeleteExpired(t *testing.T) {
	db, err := database.OpenTestDB()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	repo := (&LockRepository{}).WithDB(db)

	ctx := context.Background()
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)

	if _, err := repo.Acquire(ctx, 1, "owner-a", 30*time.Second, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.Acquire(ctx, 2, "owner-b", 10*time.Minute, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pruned, err := repo.DeleteExpired(ctx, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error pruning: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected exactly the lapsed lease pruned. got=%d", pruned)
	}

	// the surviving lease still blocks its subject
	acquired, err := repo.Acquire(ctx, 2, "owner-c", 30*time.Second, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Fatal("live lease must survive pruning")
	}
}
