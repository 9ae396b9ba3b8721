package places

import (
	"context"
	"fmt"
	"math"
	"time"

	"googlemaps.github.io/maps"
)

const (
	// MetersPerMile converts the radius the UI collects into what the API wants
	MetersPerMile = 1609.34
	// maxNearbyPages caps pagination at the API's own 60-result ceiling
	maxNearbyPages = 3
)

// MilesToMeters converts a radius in miles to whole meters
func MilesToMeters(miles float64) uint {
	return uint(math.Round(miles * MetersPerMile))
}

// Summary is one nearby-search hit, enough to rank and fetch details
type Summary struct {
	PlaceID        string  `json:"place_id"`
	Name           string  `json:"name"`
	Vicinity       string  `json:"vicinity"`
	Rating         float32 `json:"rating"`
	ReviewCount    int     `json:"review_count"`
	BusinessStatus string  `json:"business_status"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
}

// SearchNearby finds businesses matching keyword around origin.
// It walks the paginated response up to the API's 60-result limit, waiting
// out the delay before each next_page_token becomes valid.
func (c *Client) SearchNearby(ctx context.Context, origin Coordinates, radiusMeters uint, keyword string) ([]Summary, error) {
	var all []Summary
	pageToken := ""

	for page := 0; page < maxNearbyPages; page++ {
		if pageToken != "" {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(pageTokenDelay):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return all, fmt.Errorf("rate limiter wait cancelled: %w", err)
		}

		req := &maps.NearbySearchRequest{}
		if pageToken != "" {
			req.PageToken = pageToken
		} else {
			req.Location = &maps.LatLng{Lat: origin.Lat, Lng: origin.Lng}
			req.Radius = radiusMeters
			req.Keyword = keyword
		}

		var resp maps.PlacesSearchResponse
		err := c.withRetry(ctx, func() error {
			var reqErr error
			resp, reqErr = c.maps.NearbySearch(ctx, req)
			return reqErr
		})
		if err != nil {
			return all, fmt.Errorf("nearby search failed: %w", err)
		}

		for _, result := range resp.Results {
			all = append(all, Summary{
				PlaceID:        result.PlaceID,
				Name:           result.Name,
				Vicinity:       result.Vicinity,
				Rating:         result.Rating,
				ReviewCount:    result.UserRatingsTotal,
				BusinessStatus: result.BusinessStatus,
				Lat:            result.Geometry.Location.Lat,
				Lng:            result.Geometry.Location.Lng,
			})
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return all, nil
}
