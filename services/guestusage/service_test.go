package guestusage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leadscout/leadscout/model"
)

// memStore mirrors the conditional-increment semantics of the SQL store in
// memory so service behavior can be tested without a database. The mutex
// stands in for the row-level atomicity PostgreSQL provides.
type memStore struct {
	mu       sync.Mutex
	rows     map[string]*model.GuestUsage
	failGet  bool
	failIncr bool
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]*model.GuestUsage{}}
}

func (s *memStore) Get(ctx context.Context, clientKey string) (*model.GuestUsage, error) {
	if s.failGet {
		return nil, errors.New("storage unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[clientKey]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) IncrementWithin(ctx context.Context, clientKey, userAgent string, now time.Time, window time.Duration, limit int) (int, bool, error) {
	if s.failIncr {
		return 0, false, errors.New("storage unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[clientKey]
	if !ok {
		s.rows[clientKey] = &model.GuestUsage{
			ClientKey:   clientKey,
			UserAgent:   userAgent,
			SearchCount: 1,
			FirstSeenAt: now,
			LastSeenAt:  now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return 1, true, nil
	}

	stale := !rec.UpdatedAt.After(now.Add(-window))
	switch {
	case stale:
		rec.SearchCount = 1
	case rec.SearchCount < limit:
		rec.SearchCount++
	default:
		return limit, false, nil
	}
	rec.UserAgent = userAgent
	rec.LastSeenAt = now
	rec.UpdatedAt = now
	return rec.SearchCount, true, nil
}

func (s *memStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, rec := range s.rows {
		if rec.LastSeenAt.Before(cutoff) {
			delete(s.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

// seed installs a row with explicit timestamps, bypassing the increment path
func (s *memStore) seed(clientKey string, count int, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[clientKey] = &model.GuestUsage{
		ClientKey:   clientKey,
		SearchCount: count,
		FirstSeenAt: updatedAt,
		LastSeenAt:  updatedAt,
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (s *memStore) storedCount(clientKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[clientKey]
	if !ok {
		return 0
	}
	return rec.SearchCount
}

func TestLimitEnforcement(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, 5)
	key := "203.0.113.7"

	for i := 0; i < 5; i++ {
		if d := svc.Authorize(ctx, key); !d.Allowed {
			t.Fatalf("action %d: expected Allow, got Deny (%s)", i+1, d.Reason)
		}
		d, err := svc.Record(ctx, key, "test-agent")
		if err != nil {
			t.Fatalf("action %d: record failed: %v", i+1, err)
		}
		if !d.Allowed {
			t.Fatalf("action %d: record denied before limit", i+1)
		}
		if want := 5 - (i + 1); d.Remaining != want {
			t.Errorf("action %d: remaining = %d, want %d", i+1, d.Remaining, want)
		}
	}

	d := svc.Authorize(ctx, key)
	if d.Allowed {
		t.Fatal("6th authorize: expected Deny after limit reached")
	}
	if d.Reason != ReasonLimitReached {
		t.Errorf("deny reason = %q, want %q", d.Reason, ReasonLimitReached)
	}
	if d.Remaining != 0 {
		t.Errorf("remaining after limit = %d, want 0", d.Remaining)
	}
}

func TestResetAfterWindow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, 5)
	key := "198.51.100.23"

	// Limit consumed 25 hours ago.
	store.seed(key, 5, time.Now().Add(-25*time.Hour))

	d := svc.Authorize(ctx, key)
	if !d.Allowed {
		t.Fatalf("expected Allow after window elapsed, got Deny (%s)", d.Reason)
	}
	if d.Remaining != 5 {
		t.Errorf("remaining after lazy reset = %d, want full limit 5", d.Remaining)
	}

	rd, err := svc.Record(ctx, key, "test-agent")
	if err != nil {
		t.Fatalf("record after window: %v", err)
	}
	if !rd.Allowed {
		t.Fatal("record after window should be admitted")
	}
	if got := store.storedCount(key); got != 1 {
		t.Errorf("stored count after reset = %d, want 1 (not previous+1)", got)
	}
}

func TestWindowJustUnderThreshold(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, 5)
	key := "198.51.100.24"

	// 23h59m old: still inside the window, count must hold.
	store.seed(key, 5, time.Now().Add(-24*time.Hour+time.Minute))

	if d := svc.Authorize(ctx, key); d.Allowed {
		t.Fatal("expected Deny while window has not fully elapsed")
	}
}

func TestKeyIndependence(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, 2)

	for i := 0; i < 2; i++ {
		if _, err := svc.Record(ctx, "10.0.0.1", "a"); err != nil {
			t.Fatalf("record key A: %v", err)
		}
	}

	if d := svc.Authorize(ctx, "10.0.0.1"); d.Allowed {
		t.Fatal("key A should be at its limit")
	}
	if d := svc.Authorize(ctx, "10.0.0.2"); !d.Allowed {
		t.Fatal("key B must be unaffected by key A's usage")
	}
	if d, _ := svc.Record(ctx, "10.0.0.2", "b"); !d.Allowed {
		t.Fatal("key B record must be admitted")
	}
	if got := store.storedCount("10.0.0.2"); got != 1 {
		t.Errorf("key B count = %d, want 1", got)
	}
}

func TestCountTracksActionsWithinWindow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, 10)
	key := "192.0.2.9"

	for k := 1; k <= 7; k++ {
		if _, err := svc.Record(ctx, key, "agent"); err != nil {
			t.Fatalf("record %d: %v", k, err)
		}
		if got := store.storedCount(key); got != k {
			t.Fatalf("after %d records count = %d, want %d", k, got, k)
		}
	}
}

func TestConcurrentRecordsNeverExceedLimit(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	limit := 5
	svc := NewService(store, limit)
	key := "203.0.113.99"

	const callers = 25
	var wg sync.WaitGroup
	admitted := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := svc.Record(ctx, key, "racer")
			admitted <- err == nil && d.Allowed
		}()
	}
	wg.Wait()
	close(admitted)

	admittedCount := 0
	for ok := range admitted {
		if ok {
			admittedCount++
		}
	}

	if admittedCount != limit {
		t.Errorf("admitted %d concurrent records, want exactly %d", admittedCount, limit)
	}
	if got := store.storedCount(key); got != limit {
		t.Errorf("stored count after race = %d, want %d", got, limit)
	}
}

func TestFailClosedOnStorageErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup failure denies", func(t *testing.T) {
		store := newMemStore()
		store.failGet = true
		svc := NewService(store, 5)

		d := svc.Authorize(ctx, "203.0.113.7")
		if d.Allowed {
			t.Fatal("authorize must deny when the lookup fails")
		}
		if d.Reason != ReasonUnavailable {
			t.Errorf("reason = %q, want %q", d.Reason, ReasonUnavailable)
		}
	})

	t.Run("write failure denies", func(t *testing.T) {
		store := newMemStore()
		store.failIncr = true
		svc := NewService(store, 5)

		d, err := svc.Record(ctx, "203.0.113.7", "agent")
		if err == nil {
			t.Fatal("expected error from failing store")
		}
		if d.Allowed {
			t.Fatal("record must report denial when the write fails")
		}
	})

	t.Run("empty key denies", func(t *testing.T) {
		svc := NewService(newMemStore(), 5)
		if d := svc.Authorize(ctx, ""); d.Allowed {
			t.Fatal("empty client key must be denied, not bucketed together")
		}
		if d, _ := svc.Record(ctx, "", "agent"); d.Allowed {
			t.Fatal("empty client key record must be denied")
		}
	})
}

func TestPruneRemovesOnlyIdleRows(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, 5)

	store.seed("old-key", 3, time.Now().Add(-40*24*time.Hour))
	if _, err := svc.Record(ctx, "fresh-key", "agent"); err != nil {
		t.Fatalf("record fresh key: %v", err)
	}

	deleted, err := svc.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("pruned %d rows, want 1", deleted)
	}
	if store.storedCount("fresh-key") != 1 {
		t.Error("prune must not touch active rows")
	}
	if store.storedCount("old-key") != 0 {
		t.Error("idle row should have been pruned")
	}
}

func TestDefaultLimitApplied(t *testing.T) {
	svc := NewService(newMemStore(), 0)
	if svc.Limit() != DefaultDailyLimit {
		t.Errorf("limit = %d, want default %d", svc.Limit(), DefaultDailyLimit)
	}
}
