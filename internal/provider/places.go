package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/vendhive/locator/internal/location"
)

// DefaultPlacesURL is the commercial places nearby-search endpoint.
const DefaultPlacesURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

// placesRequestsPerSecond bounds the request rate against the commercial
// provider's quota.
const placesRequestsPerSecond = 10

// PlaceRecord is one raw result from the commercial places provider.
type PlaceRecord struct {
	PlaceID          string         `json:"place_id"`
	Name             string         `json:"name"`
	Vicinity         string         `json:"vicinity"`
	FormattedAddress string         `json:"formatted_address"`
	Geometry         *placeGeometry `json:"geometry"`
	Rating           *float64       `json:"rating"`
	UserRatingsTotal *int           `json:"user_ratings_total"`
	BusinessStatus   string         `json:"business_status"`
	Types            []string       `json:"types"`
	Phone            string         `json:"formatted_phone_number"`
	Website          string         `json:"website"`
	MapsURL          string         `json:"url"`
}

type placeGeometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

type placesResponse struct {
	Status  string        `json:"status"`
	Results []PlaceRecord `json:"results"`
}

// PlacesClient queries the commercial places provider for nearby businesses.
type PlacesClient struct {
	url     string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*placesResponse]
}

// NewPlacesClient creates a places client. An empty url uses the default
// endpoint.
func NewPlacesClient(url, apiKey string, client *http.Client) *PlacesClient {
	if url == "" {
		url = DefaultPlacesURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	settings := gobreaker.Settings{
		Name:    "places",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &PlacesClient{
		url:     url,
		apiKey:  apiKey,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(placesRequestsPerSecond), placesRequestsPerSecond),
		breaker: gobreaker.NewCircuitBreaker[*placesResponse](settings),
	}
}

// Name returns the provider identity.
func (c *PlacesClient) Name() location.Provider {
	return location.ProviderPlaces
}

// Search runs a nearby search for the query center and radius, using the
// first tag's value as the keyword filter, and normalizes the results.
func (c *PlacesClient) Search(ctx context.Context, q Query) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("places rate limit wait cancelled: %w", err)
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", q.Center.Lat, q.Center.Lng))
	params.Set("radius", fmt.Sprintf("%d", q.Radius.Meters()))
	if keyword := keywordFromTags(q.Tags); keyword != "" {
		params.Set("keyword", keyword)
	}
	params.Set("key", c.apiKey)

	resp, err := c.breaker.Execute(func() (*placesResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		httpResp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = httpResp.Body.Close() }()

		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("places returned status %d", httpResp.StatusCode)
		}

		var decoded placesResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
			return nil, fmt.Errorf("failed to decode places response: %w", err)
		}
		return &decoded, nil
	})
	if err != nil {
		return nil, fmt.Errorf("places search failed: %w", err)
	}

	// ZERO_RESULTS is a successful empty search, not a failure.
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places search failed with status %s", resp.Status)
	}

	result := &Result{}
	for i := range resp.Results {
		candidate, err := NormalizePlace(&resp.Results[i])
		if err != nil {
			result.Malformed++
			continue
		}
		result.Candidates = append(result.Candidates, candidate)
	}
	return result, nil
}

// keywordFromTags derives a search keyword from the first OSM tag's value,
// e.g. "amenity=fast_food" becomes "fast food".
func keywordFromTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	_, value, ok := strings.Cut(tags[0], "=")
	if !ok {
		value = tags[0]
	}
	return strings.ReplaceAll(value, "_", " ")
}

// NormalizePlace maps a raw place record onto the canonical candidate shape.
// It fails with ErrMalformedRecord when the record has no name or no
// geometry.
func NormalizePlace(p *PlaceRecord) (*location.Candidate, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: place %q has no name", ErrMalformedRecord, p.PlaceID)
	}
	if p.Geometry == nil {
		return nil, fmt.Errorf("%w: place %q has no geometry", ErrMalformedRecord, p.PlaceID)
	}

	address := p.FormattedAddress
	if address == "" {
		address = p.Vicinity
	}

	detailed := ""
	if len(p.Types) > 0 {
		limit := len(p.Types)
		if limit > 3 {
			limit = 3
		}
		detailed = strings.Join(p.Types[:limit], ", ")
	}

	candidate := &location.Candidate{
		PlaceID:          p.PlaceID,
		Source:           location.ProviderPlaces,
		SourceID:         p.PlaceID,
		Name:             p.Name,
		DetailedCategory: detailed,
		Address:          address,
		Point:            location.Point{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng},
		Phone:            p.Phone,
		Website:          p.Website,
		MapsURL:          p.MapsURL,
		Status:           location.ParseBusinessStatus(p.BusinessStatus),
	}
	if p.Rating != nil {
		r := *p.Rating
		candidate.Rating = &r
	}
	if p.UserRatingsTotal != nil {
		n := *p.UserRatingsTotal
		candidate.ReviewCount = &n
	}
	return candidate, nil
}
