package guestusage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/leadscout/leadscout/model"
)

// TestGormStoreIncrement exercises the single-statement upsert against a real
// PostgreSQL instance, including the concurrent over-limit race.
// Requires DB_HOST, DB_USER_NAME, DB_PASSWORD, DB_NAME, DB_PORT.
func TestGormStoreIncrement(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER_NAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&model.GuestUsage{}); err != nil {
		t.Fatalf("failed to migrate guest_usage: %v", err)
	}

	ctx := context.Background()
	store := NewGormStore(db)
	key := fmt.Sprintf("it-%d", time.Now().UnixNano())
	defer db.Where("client_key = ?", key).Delete(&model.GuestUsage{})

	now := time.Now()
	window := 24 * time.Hour
	limit := 5

	t.Run("creates row with count 1", func(t *testing.T) {
		count, admitted, err := store.IncrementWithin(ctx, key, "integration-agent", now, window, limit)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if !admitted || count != 1 {
			t.Fatalf("got (count=%d, admitted=%v), want (1, true)", count, admitted)
		}
	})

	t.Run("increments up to the limit then declines", func(t *testing.T) {
		for want := 2; want <= limit; want++ {
			count, admitted, err := store.IncrementWithin(ctx, key, "integration-agent", time.Now(), window, limit)
			if err != nil {
				t.Fatalf("increment %d: %v", want, err)
			}
			if !admitted || count != want {
				t.Fatalf("increment %d: got (count=%d, admitted=%v)", want, count, admitted)
			}
		}
		_, admitted, err := store.IncrementWithin(ctx, key, "integration-agent", time.Now(), window, limit)
		if err != nil {
			t.Fatalf("over-limit increment: %v", err)
		}
		if admitted {
			t.Fatal("increment past the limit must be declined")
		}
	})

	t.Run("stale row resets to 1", func(t *testing.T) {
		staleAt := time.Now().Add(-25 * time.Hour)
		res := db.Model(&model.GuestUsage{}).Where("client_key = ?", key).
			UpdateColumn("updated_at", staleAt)
		if res.Error != nil {
			t.Fatalf("backdating row: %v", res.Error)
		}

		count, admitted, err := store.IncrementWithin(ctx, key, "integration-agent", time.Now(), window, limit)
		if err != nil {
			t.Fatalf("increment after window: %v", err)
		}
		if !admitted || count != 1 {
			t.Fatalf("got (count=%d, admitted=%v), want reset to (1, true)", count, admitted)
		}
	})

	t.Run("concurrent callers cannot exceed the limit", func(t *testing.T) {
		raceKey := fmt.Sprintf("race-%d", time.Now().UnixNano())
		defer db.Where("client_key = ?", raceKey).Delete(&model.GuestUsage{})

		const callers = 20
		var wg sync.WaitGroup
		results := make(chan bool, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, admitted, err := store.IncrementWithin(ctx, raceKey, "racer", time.Now(), window, limit)
				results <- err == nil && admitted
			}()
		}
		wg.Wait()
		close(results)

		admittedCount := 0
		for ok := range results {
			if ok {
				admittedCount++
			}
		}
		if admittedCount != limit {
			t.Errorf("admitted %d concurrent increments, want %d", admittedCount, limit)
		}

		rec, err := store.Get(ctx, raceKey)
		if err != nil || rec == nil {
			t.Fatalf("reading race row: rec=%v err=%v", rec, err)
		}
		if rec.SearchCount != limit {
			t.Errorf("stored count = %d, want %d", rec.SearchCount, limit)
		}
	})
}
