package guestusage

import (
	"context"
	"log"
	"time"
)

// Denial reasons surfaced to callers. These are fixed, non-technical strings;
// internal counters and keys never leak through them.
const (
	ReasonLimitReached = "daily free-search limit reached"
	ReasonUnavailable  = "usage tracking unavailable, try again later"
)

// DefaultDailyLimit applies when no limit is configured
const DefaultDailyLimit = 5

// DefaultWindow is the rolling reset window measured from each key's own
// last activity, not from a calendar boundary.
const DefaultWindow = 24 * time.Hour

// Decision is the outcome of an authorization or recording call
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	Reason    string    `json:"reason,omitempty"`
}

// Service gates anonymous callers to a fixed number of searches per rolling
// 24-hour window, keyed by client IP. Authenticated callers never reach it.
type Service struct {
	store  Store
	limit  int
	window time.Duration
}

// NewService creates a tracker with the given per-window limit
func NewService(store Store, limit int) *Service {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Service{
		store:  store,
		limit:  limit,
		window: DefaultWindow,
	}
}

// Limit returns the configured per-window action limit
func (s *Service) Limit() int {
	return s.limit
}

// Authorize is the advisory pre-check run before the gated action. It exists
// to skip spending an external API call on an obviously over-limit caller;
// the binding enforcement happens inside Record. Every failure path denies:
// an anonymous rate limiter that fails open stops bounding abuse.
func (s *Service) Authorize(ctx context.Context, clientKey string) Decision {
	if clientKey == "" {
		return Decision{Allowed: false, Reason: ReasonUnavailable}
	}

	now := time.Now()

	rec, err := s.store.Get(ctx, clientKey)
	if err != nil {
		log.Printf("guest usage lookup failed, denying: %v", err)
		return Decision{Allowed: false, Reason: ReasonUnavailable}
	}
	if rec == nil {
		return Decision{Allowed: true, Remaining: s.limit, ResetAt: now.Add(s.window)}
	}

	effective := rec.SearchCount
	resetAt := rec.UpdatedAt.Add(s.window)
	if now.Sub(rec.UpdatedAt) >= s.window {
		// Lazy reset: a stale row counts as zero without being rewritten.
		effective = 0
		resetAt = now.Add(s.window)
	}

	if effective >= s.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt, Reason: ReasonLimitReached}
	}
	return Decision{Allowed: true, Remaining: s.limit - effective, ResetAt: resetAt}
}

// Record counts one performed action against clientKey. Call it only after
// the gated action actually ran. The store applies reset and increment as one
// atomic write guarded by the limit, so two racing requests cannot push a key
// over it; a race loser comes back not-allowed and is treated as denied even
// though its action ran.
func (s *Service) Record(ctx context.Context, clientKey, userAgent string) (Decision, error) {
	if clientKey == "" {
		return Decision{Allowed: false, Reason: ReasonUnavailable}, ErrNoClientIdentity
	}

	now := time.Now()

	count, admitted, err := s.store.IncrementWithin(ctx, clientKey, userAgent, now, s.window, s.limit)
	if err != nil {
		log.Printf("guest usage increment failed, denying: %v", err)
		return Decision{Allowed: false, Reason: ReasonUnavailable}, err
	}
	if !admitted {
		return Decision{Allowed: false, Remaining: 0, ResetAt: now.Add(s.window), Reason: ReasonLimitReached}, nil
	}

	remaining := s.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining, ResetAt: now.Add(s.window)}, nil
}

// Prune deletes rows idle for longer than olderThan. Pure storage hygiene;
// scheduled from cron, never required for limit correctness.
func (s *Service) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.store.PruneBefore(ctx, time.Now().Add(-olderThan))
}
