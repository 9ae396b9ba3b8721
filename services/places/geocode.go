package places

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/leadscout/leadscout/utils/cache"
	"googlemaps.github.io/maps"
)

// ErrLocationNotFound is returned when an address resolves to zero results
var ErrLocationNotFound = errors.New("location could not be geocoded")

// Coordinates is a resolved latitude/longitude pair
type Coordinates struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// geocodeCacheKey normalizes the address so "Austin, TX" and "austin,  tx"
// share a cache entry
func geocodeCacheKey(address string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(address), " "))
	return "places:geocode:" + normalized
}

// Geocode resolves a free-form location string to coordinates.
// Results are cached for GeocodeCacheTTL when a cache is configured.
func (c *Client) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrLocationNotFound
	}

	cacheKey := geocodeCacheKey(address)
	if c.cache != nil {
		var cached Coordinates
		if err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			log.Printf("Geocode cache read failed for %q: %v", address, err)
		}
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	var results []maps.GeocodingResult
	err := c.withRetry(ctx, func() error {
		var reqErr error
		results, reqErr = c.maps.Geocode(ctx, &maps.GeocodingRequest{
			Address: address,
		})
		return reqErr
	})
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrLocationNotFound
	}

	coords := &Coordinates{
		Lat:              results[0].Geometry.Location.Lat,
		Lng:              results[0].Geometry.Location.Lng,
		FormattedAddress: results[0].FormattedAddress,
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, cacheKey, coords, GeocodeCacheTTL); err != nil {
			log.Printf("Geocode cache write failed for %q: %v", address, err)
		}
	}

	return coords, nil
}
