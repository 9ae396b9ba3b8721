package guestusage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/leadscout/leadscout/model"
)

// Store is the persistence contract for guest usage rows. Implementations
// must make IncrementWithin a single atomic operation: the stale-reset and
// the increment may never be two separately observable writes, and the limit
// is enforced here, not by any advisory pre-check.
type Store interface {
	// Get returns the row for clientKey, or (nil, nil) when none exists.
	Get(ctx context.Context, clientKey string) (*model.GuestUsage, error)

	// IncrementWithin records one action for clientKey. A missing row is
	// created with count 1; a row whose updated_at is older than window is
	// reset to 1; otherwise the count is incremented, but only while it is
	// below limit. Returns the stored count and whether the action was
	// admitted.
	IncrementWithin(ctx context.Context, clientKey, userAgent string, now time.Time, window time.Duration, limit int) (int, bool, error)

	// PruneBefore deletes rows whose last activity predates cutoff.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GormStore implements Store on PostgreSQL through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a guest usage store backed by the given DB
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get looks up a single row by client key
func (s *GormStore) Get(ctx context.Context, clientKey string) (*model.GuestUsage, error) {
	var rec model.GuestUsage
	err := s.db.WithContext(ctx).Where("client_key = ?", clientKey).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// incrementSQL folds create, stale-reset and guarded increment into one
// statement so concurrent requests for the same key serialize on the row.
// The DO UPDATE WHERE clause makes an at-limit fresh row return no rows,
// which reports the denial.
const incrementSQL = `
INSERT INTO guest_usage (client_key, user_agent, search_count, first_seen_at, last_seen_at, created_at, updated_at)
VALUES (?, ?, 1, ?, ?, ?, ?)
ON CONFLICT (client_key) DO UPDATE
SET search_count = CASE
        WHEN guest_usage.updated_at <= ? THEN 1
        ELSE guest_usage.search_count + 1
    END,
    user_agent   = EXCLUDED.user_agent,
    last_seen_at = EXCLUDED.last_seen_at,
    updated_at   = EXCLUDED.updated_at
WHERE guest_usage.updated_at <= ?
   OR guest_usage.search_count < ?
RETURNING search_count`

// IncrementWithin runs the atomic conditional increment
func (s *GormStore) IncrementWithin(ctx context.Context, clientKey, userAgent string, now time.Time, window time.Duration, limit int) (int, bool, error) {
	staleBefore := now.Add(-window)

	var count int
	res := s.db.WithContext(ctx).Raw(incrementSQL,
		clientKey, userAgent, now, now, now, now,
		staleBefore,
		staleBefore, limit,
	).Scan(&count)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Fresh row already at the limit; the conflict update declined.
		return limit, false, nil
	}
	return count, true, nil
}

// PruneBefore removes long-idle rows. This is storage hygiene only; limit
// correctness never depends on it because stale rows count as zero anyway.
func (s *GormStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("last_seen_at < ?", cutoff).Delete(&model.GuestUsage{})
	return res.RowsAffected, res.Error
}
