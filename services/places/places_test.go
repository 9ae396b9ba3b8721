package places

import (
	"errors"
	"testing"
	"time"
)

func TestMilesToMeters(t *testing.T) {
	tests := []struct {
		name  string
		miles float64
		want  uint
	}{
		{name: "ten miles", miles: 10, want: 16093},
		{name: "max radius", miles: 30, want: 48280},
		{name: "half mile", miles: 0.5, want: 805},
		{name: "zero", miles: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MilesToMeters(tt.miles); got != tt.want {
				t.Errorf("MilesToMeters(%v) = %d, want %d", tt.miles, got, tt.want)
			}
		})
	}
}

func TestGeocodeCacheKeyNormalization(t *testing.T) {
	a := geocodeCacheKey("Austin, TX")
	b := geocodeCacheKey("  austin,   tx ")
	if a != b {
		t.Errorf("expected equivalent addresses to share a cache key, got %q and %q", a, b)
	}

	c := geocodeCacheKey("Dallas, TX")
	if a == c {
		t.Errorf("expected distinct addresses to produce distinct cache keys")
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := DefaultRetryConfig()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 500 * time.Millisecond},
		{attempt: 1, want: 1 * time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 6, want: 30 * time.Second}, // capped at MaxBackoff
	}

	for _, tt := range tests {
		if got := CalculateBackoff(tt.attempt, config); got != tt.want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "quota exhausted", err: errors.New("maps: OVER_QUERY_LIMIT"), want: true},
		{name: "transient server failure", err: errors.New("maps: UNKNOWN_ERROR"), want: true},
		{name: "bad request", err: errors.New("maps: INVALID_REQUEST"), want: false},
		{name: "denied", err: errors.New("maps: REQUEST_DENIED API key invalid"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.want {
				t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRateLimiterBurstDrain(t *testing.T) {
	// Near-zero refill so the burst is all the test sees
	limiter := NewRateLimiter(RateLimiterConfig{
		MaxTokens:          2,
		RefillRate:         0.0001,
		MinInterval:        time.Millisecond,
		DetailsMaxTokens:   3,
		DetailsRefillRate:  0.0001,
		DetailsMinInterval: time.Millisecond,
	})

	for i := 0; i < 2; i++ {
		if !limiter.TryAcquire(false) {
			t.Fatalf("search acquire %d should succeed within burst", i+1)
		}
	}
	if limiter.TryAcquire(false) {
		t.Errorf("search acquire beyond burst should fail")
	}

	// Details bucket is independent of the search bucket
	for i := 0; i < 3; i++ {
		if !limiter.TryAcquire(true) {
			t.Fatalf("details acquire %d should succeed within burst", i+1)
		}
	}
	if limiter.TryAcquire(true) {
		t.Errorf("details acquire beyond burst should fail")
	}

	if tokens := limiter.AvailableTokens(false); tokens >= 1 {
		t.Errorf("expected drained search bucket, have %v tokens", tokens)
	}
}
