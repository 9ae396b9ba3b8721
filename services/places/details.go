package places

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/leadscout/leadscout/utils/cache"
	"googlemaps.github.io/maps"
)

// BusinessStatusOperational is the Maps API marker for an open business
const BusinessStatusOperational = "OPERATIONAL"

// Detail is the full place record used for lead qualification and export
type Detail struct {
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
	OpeningHours   []string `json:"opening_hours,omitempty"`
}

// detailsFields limits the response to what lead qualification needs,
// billed SKUs scale with the fields requested
var detailsFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
	maps.PlaceDetailsFieldMaskWebsite,
	maps.PlaceDetailsFieldMaskRatings,
	maps.PlaceDetailsFieldMaskUserRatingsTotal,
	maps.PlaceDetailsFieldMaskPriceLevel,
	maps.PlaceDetailsFieldMaskBusinessStatus,
	maps.PlaceDetailsFieldMaskURL,
	maps.PlaceDetailsFieldMaskTypes,
	maps.PlaceDetailsFieldMaskOpeningHours,
}

// Details fetches the full record for a place.
// Results are cached for DetailsCacheTTL when a cache is configured.
func (c *Client) Details(ctx context.Context, placeID string) (*Detail, error) {
	cacheKey := "places:details:" + placeID
	if c.cache != nil {
		var cached Detail
		if err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			log.Printf("Details cache read failed for %s: %v", placeID, err)
		}
	}

	if err := c.rateLimiter.WaitDetails(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	var result maps.PlaceDetailsResult
	err := c.withRetry(ctx, func() error {
		var reqErr error
		result, reqErr = c.maps.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
			PlaceID: placeID,
			Fields:  detailsFields,
		})
		return reqErr
	})
	if err != nil {
		return nil, fmt.Errorf("place details failed for %s: %w", placeID, err)
	}

	detail := &Detail{
		PlaceID:        placeID,
		Name:           result.Name,
		Address:        result.FormattedAddress,
		Phone:          result.FormattedPhoneNumber,
		Website:        result.Website,
		Rating:         result.Rating,
		ReviewCount:    result.UserRatingsTotal,
		PriceLevel:     result.PriceLevel,
		BusinessStatus: result.BusinessStatus,
		MapsURL:        result.URL,
		Types:          result.Types,
	}
	if result.OpeningHours != nil {
		detail.OpeningHours = result.OpeningHours.WeekdayText
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, cacheKey, detail, DetailsCacheTTL); err != nil {
			log.Printf("Details cache write failed for %s: %v", placeID, err)
		}
	}

	return detail, nil
}
