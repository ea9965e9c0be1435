// Package geocode resolves ZIP codes to coordinates via Nominatim. The
// engine itself never geocodes mid-pipeline; this adapter runs at the
// boundary before the pipeline starts.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/vendhive/locator/internal/location"
)

// DefaultNominatimURL is the public Nominatim endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// ErrInvalidZipCode is returned when a ZIP code is malformed or does not
// geocode to any US location.
var ErrInvalidZipCode = errors.New("invalid zip code")

// zipPattern accepts 5-digit ZIP codes with an optional +4 extension.
var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// Geocoder resolves ZIP codes to a geographic center point.
type Geocoder interface {
	Geocode(ctx context.Context, zipCode string) (location.Point, error)
}

// Cache stores resolved ZIP coordinates. ZIP centroids effectively never
// move, so entries carry a long TTL.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// cacheTTL is how long a resolved ZIP centroid stays cached.
const cacheTTL = 30 * 24 * time.Hour

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NominatimClient is a Geocoder backed by the Nominatim search API with an
// optional cache in front of it.
type NominatimClient struct {
	url    string
	client *http.Client
	cache  Cache
}

// NewNominatimClient creates a geocoder. An empty url uses the public
// endpoint; a nil cache disables caching.
func NewNominatimClient(baseURL string, client *http.Client, cache Cache) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &NominatimClient{url: baseURL, client: client, cache: cache}
}

// Geocode resolves a US ZIP code to its centroid. Fails with
// ErrInvalidZipCode for malformed input or ZIP codes Nominatim cannot place.
func (c *NominatimClient) Geocode(ctx context.Context, zipCode string) (location.Point, error) {
	if !zipPattern.MatchString(zipCode) {
		return location.Point{}, fmt.Errorf("%w: %q", ErrInvalidZipCode, zipCode)
	}

	cacheKey := "geocode:zip:" + zipCode
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, cacheKey); ok {
			var p location.Point
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return p, nil
			}
		}
	}

	params := url.Values{}
	params.Set("q", zipCode)
	params.Set("format", "json")
	params.Set("countrycodes", "us")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/search?"+params.Encode(), nil)
	if err != nil {
		return location.Point{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return location.Point{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return location.Point{}, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return location.Point{}, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		return location.Point{}, fmt.Errorf("%w: %q did not geocode", ErrInvalidZipCode, zipCode)
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return location.Point{}, fmt.Errorf("geocoder returned unparseable coordinates for %q", zipCode)
	}

	point := location.Point{Lat: lat, Lng: lng}
	if c.cache != nil {
		if encoded, err := json.Marshal(point); err == nil {
			c.cache.Set(ctx, cacheKey, string(encoded), cacheTTL)
		}
	}
	return point, nil
}
