package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/leadscout/leadscout/model"
	"github.com/leadscout/leadscout/services/places"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// DefaultRadiusMiles is used when a search omits the radius
	DefaultRadiusMiles = 10.0
	// FreeRadiusMiles is the radius ceiling for guests and free-plan users
	FreeRadiusMiles = 15.0
	// MaxRadiusMiles caps how far a single search may reach on any plan
	MaxRadiusMiles = 30.0
	// DefaultMaxReviews is the review-count ceiling under which a business
	// counts as a lead
	DefaultMaxReviews = 15

	// detailsConcurrency bounds the fan-out of place details lookups
	detailsConcurrency = 8
	// topResultsStored is how many businesses get embedded in the search record
	topResultsStored = 5
)

// Business is one qualified search result
type Business struct {
	PlaceID        string   `json:"place_id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Phone          string   `json:"phone"`
	Website        string   `json:"website"`
	Rating         float32  `json:"rating"`
	ReviewCount    int      `json:"review_count"`
	PriceLevel     int      `json:"price_level"`
	BusinessStatus string   `json:"business_status"`
	MapsURL        string   `json:"maps_url"`
	Types          []string `json:"types"`
	IsLead         bool     `json:"is_lead"`
}

// SearchRequest describes one lead search
type SearchRequest struct {
	Location    string
	Keyword     string
	RadiusMiles float64
	MaxReviews  int
	LeadsOnly   bool
	UserID      *uint  // nil for guest searches
	ClientKey   string // guest identity, recorded for history
}

// SearchResult is the outcome of one lead search
type SearchResult struct {
	Location       string             `json:"location"`
	Coordinates    places.Coordinates `json:"coordinates"`
	Keyword        string             `json:"keyword"`
	RadiusMiles    float64            `json:"radius_miles"`
	MaxReviews     int                `json:"max_reviews"`
	Businesses     []Business         `json:"businesses"`
	TotalFound     int                `json:"total_found"`
	LeadCount      int                `json:"lead_count"`
	DurationMs     int64              `json:"duration_ms"`
	SearchRecordID uint               `json:"search_record_id,omitempty"`
}

// LeadService runs lead searches against the Maps Platform
type LeadService struct {
	db     *gorm.DB
	places *places.Client
}

// NewLeadService creates a new lead service
func NewLeadService(db *gorm.DB, placesClient *places.Client) *LeadService {
	return &LeadService{
		db:     db,
		places: placesClient,
	}
}

// IsPotentialLead reports whether a business looks underserved: few enough
// reviews, no website of its own, and still operating. A missing business
// status counts as operating since the API omits the field for many places.
func IsPotentialLead(detail *places.Detail, maxReviews int) bool {
	if detail.ReviewCount >= maxReviews {
		return false
	}
	if strings.TrimSpace(detail.Website) != "" {
		return false
	}
	if detail.BusinessStatus != "" && detail.BusinessStatus != places.BusinessStatusOperational {
		return false
	}
	return true
}

// normalize fills defaults and clamps the radius
func (req *SearchRequest) normalize() {
	if req.RadiusMiles <= 0 {
		req.RadiusMiles = DefaultRadiusMiles
	}
	if req.RadiusMiles > MaxRadiusMiles {
		req.RadiusMiles = MaxRadiusMiles
	}
	if req.MaxReviews <= 0 {
		req.MaxReviews = DefaultMaxReviews
	}
	req.Location = strings.TrimSpace(req.Location)
	req.Keyword = strings.TrimSpace(req.Keyword)
}

// RunSearch geocodes the location, finds nearby businesses, fetches their
// details and qualifies each one as a lead or not. The search is persisted
// best-effort, a failed history write never fails the search itself.
func (s *LeadService) RunSearch(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	req.normalize()
	start := time.Now()

	coords, err := s.places.Geocode(ctx, req.Location)
	if err != nil {
		return nil, err
	}

	radiusMeters := places.MilesToMeters(req.RadiusMiles)
	summaries, err := s.places.SearchNearby(ctx, *coords, radiusMeters, req.Keyword)
	if err != nil {
		return nil, err
	}

	log.Printf("LeadService: %q near %q matched %d places", req.Keyword, coords.FormattedAddress, len(summaries))

	businesses, err := s.fetchDetails(ctx, summaries, req.MaxReviews)
	if err != nil {
		return nil, err
	}

	// Leads first, then the least-reviewed businesses
	sort.Slice(businesses, func(i, j int) bool {
		if businesses[i].IsLead != businesses[j].IsLead {
			return businesses[i].IsLead
		}
		if businesses[i].ReviewCount != businesses[j].ReviewCount {
			return businesses[i].ReviewCount < businesses[j].ReviewCount
		}
		return businesses[i].Name < businesses[j].Name
	})

	leadCount := 0
	for _, b := range businesses {
		if b.IsLead {
			leadCount++
		}
	}

	totalFound := len(businesses)
	if req.LeadsOnly {
		leadsOnly := make([]Business, 0, leadCount)
		for _, b := range businesses {
			if b.IsLead {
				leadsOnly = append(leadsOnly, b)
			}
		}
		businesses = leadsOnly
	}

	result := &SearchResult{
		Location:    coords.FormattedAddress,
		Coordinates: *coords,
		Keyword:     req.Keyword,
		RadiusMiles: req.RadiusMiles,
		MaxReviews:  req.MaxReviews,
		Businesses:  businesses,
		TotalFound:  totalFound,
		LeadCount:   leadCount,
		DurationMs:  time.Since(start).Milliseconds(),
	}

	if record := s.persistSearch(req, result); record != nil {
		result.SearchRecordID = record.ID
	}

	return result, nil
}

// fetchDetails resolves summaries into qualified businesses with a bounded
// worker pool. Individual lookup failures are skipped, only a total failure
// aborts the search.
func (s *LeadService) fetchDetails(ctx context.Context, summaries []places.Summary, maxReviews int) ([]Business, error) {
	if len(summaries) == 0 {
		return []Business{}, nil
	}

	results := make([]*Business, len(summaries))
	errs := make([]error, len(summaries))
	var wg sync.WaitGroup

	// Create semaphore for concurrency control
	semaphore := make(chan struct{}, detailsConcurrency)

	for i, summary := range summaries {
		wg.Add(1)
		go func(idx int, sum places.Summary) {
			defer wg.Done()

			// Acquire semaphore
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				errs[idx] = ctx.Err()
				return
			}

			detail, err := s.places.Details(ctx, sum.PlaceID)
			if err != nil {
				log.Printf("LeadService: details lookup failed for %s (%s): %v", sum.Name, sum.PlaceID, err)
				errs[idx] = err
				return
			}

			results[idx] = &Business{
				PlaceID:        detail.PlaceID,
				Name:           detail.Name,
				Address:        detail.Address,
				Phone:          detail.Phone,
				Website:        detail.Website,
				Rating:         detail.Rating,
				ReviewCount:    detail.ReviewCount,
				PriceLevel:     detail.PriceLevel,
				BusinessStatus: detail.BusinessStatus,
				MapsURL:        detail.MapsURL,
				Types:          detail.Types,
				IsLead:         IsPotentialLead(detail, maxReviews),
			}
		}(i, summary)
	}

	wg.Wait()

	businesses := make([]Business, 0, len(summaries))
	failed := 0
	for i, b := range results {
		if b != nil {
			businesses = append(businesses, *b)
		} else if errs[i] != nil {
			failed++
		}
	}

	if len(businesses) == 0 && failed > 0 {
		return nil, fmt.Errorf("all %d place details lookups failed: %w", failed, errs[0])
	}

	return businesses, nil
}

// persistSearch writes the search to history. Returns nil on failure.
func (s *LeadService) persistSearch(req SearchRequest, result *SearchResult) *model.SearchRecord {
	top := result.Businesses
	if len(top) > topResultsStored {
		top = top[:topResultsStored]
	}

	topJSON, err := json.Marshal(top)
	if err != nil {
		log.Printf("LeadService: failed to marshal top results: %v", err)
		topJSON = []byte("[]")
	}

	record := &model.SearchRecord{
		UserID:      req.UserID,
		ClientKey:   req.ClientKey,
		Location:    result.Location,
		Keyword:     req.Keyword,
		RadiusMiles: req.RadiusMiles,
		MaxReviews:  req.MaxReviews,
		LeadsOnly:   req.LeadsOnly,
		ResultCount: result.TotalFound,
		LeadCount:   result.LeadCount,
		DurationMs:  int(result.DurationMs),
		TopResults:  datatypes.JSON(topJSON),
	}

	if err := s.db.Create(record).Error; err != nil {
		log.Printf("LeadService: failed to persist search record: %v", err)
		return nil
	}
	return record
}

// SearchHistory returns a user's recent searches, newest first
func (s *LeadService) SearchHistory(ctx context.Context, userID uint, limit int) ([]model.SearchRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var records []model.SearchRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch search history: %w", err)
	}
	return records, nil
}
