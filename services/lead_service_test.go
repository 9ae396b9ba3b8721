package services

import (
	"testing"

	"github.com/leadscout/leadscout/services/places"
)

func TestIsPotentialLead(t *testing.T) {
	tests := []struct {
		name       string
		detail     places.Detail
		maxReviews int
		want       bool
	}{
		{
			name:       "few reviews, no website, operational",
			detail:     places.Detail{ReviewCount: 3, BusinessStatus: "OPERATIONAL"},
			maxReviews: 15,
			want:       true,
		},
		{
			name:       "zero reviews qualifies",
			detail:     places.Detail{ReviewCount: 0, BusinessStatus: "OPERATIONAL"},
			maxReviews: 15,
			want:       true,
		},
		{
			name:       "at the review threshold",
			detail:     places.Detail{ReviewCount: 15, BusinessStatus: "OPERATIONAL"},
			maxReviews: 15,
			want:       false,
		},
		{
			name:       "one under the threshold",
			detail:     places.Detail{ReviewCount: 14, BusinessStatus: "OPERATIONAL"},
			maxReviews: 15,
			want:       true,
		},
		{
			name:       "has a website",
			detail:     places.Detail{ReviewCount: 3, Website: "https://example.com", BusinessStatus: "OPERATIONAL"},
			maxReviews: 15,
			want:       false,
		},
		{
			name:       "whitespace website counts as none",
			detail:     places.Detail{ReviewCount: 3, Website: "   ", BusinessStatus: "OPERATIONAL"},
			maxReviews: 15,
			want:       true,
		},
		{
			name:       "temporarily closed",
			detail:     places.Detail{ReviewCount: 3, BusinessStatus: "CLOSED_TEMPORARILY"},
			maxReviews: 15,
			want:       false,
		},
		{
			name:       "permanently closed",
			detail:     places.Detail{ReviewCount: 3, BusinessStatus: "CLOSED_PERMANENTLY"},
			maxReviews: 15,
			want:       false,
		},
		{
			name:       "missing status treated as operating",
			detail:     places.Detail{ReviewCount: 3},
			maxReviews: 15,
			want:       true,
		},
		{
			name:       "custom threshold",
			detail:     places.Detail{ReviewCount: 40, BusinessStatus: "OPERATIONAL"},
			maxReviews: 50,
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPotentialLead(&tt.detail, tt.maxReviews); got != tt.want {
				t.Errorf("IsPotentialLead() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchRequestNormalize(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		req := SearchRequest{Location: "  Austin, TX  ", Keyword: " plumber "}
		req.normalize()

		if req.RadiusMiles != DefaultRadiusMiles {
			t.Errorf("RadiusMiles = %v, want %v", req.RadiusMiles, DefaultRadiusMiles)
		}
		if req.MaxReviews != DefaultMaxReviews {
			t.Errorf("MaxReviews = %v, want %v", req.MaxReviews, DefaultMaxReviews)
		}
		if req.Location != "Austin, TX" {
			t.Errorf("Location = %q, want trimmed", req.Location)
		}
		if req.Keyword != "plumber" {
			t.Errorf("Keyword = %q, want trimmed", req.Keyword)
		}
	})

	t.Run("radius capped", func(t *testing.T) {
		req := SearchRequest{Location: "Austin", Keyword: "plumber", RadiusMiles: 120}
		req.normalize()
		if req.RadiusMiles != MaxRadiusMiles {
			t.Errorf("RadiusMiles = %v, want %v", req.RadiusMiles, MaxRadiusMiles)
		}
	})

	t.Run("valid values untouched", func(t *testing.T) {
		req := SearchRequest{Location: "Austin", Keyword: "plumber", RadiusMiles: 25, MaxReviews: 40}
		req.normalize()
		if req.RadiusMiles != 25 || req.MaxReviews != 40 {
			t.Errorf("normalize changed valid values: radius %v, maxReviews %v", req.RadiusMiles, req.MaxReviews)
		}
	})
}
