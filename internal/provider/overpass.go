package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/vendhive/locator/internal/location"
)

// DefaultOverpassURL is the public Overpass API interpreter endpoint.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// overpassQueryTimeout is the server-side timeout requested in the query.
const overpassQueryTimeout = 25

// OverpassElement is one raw element from an Overpass API response.
type OverpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassResponse struct {
	Elements []OverpassElement `json:"elements"`
}

// OverpassClient queries the Overpass API for venues matching OSM tags.
type OverpassClient struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*overpassResponse]
}

// NewOverpassClient creates an Overpass client. An empty url uses the public
// interpreter endpoint.
func NewOverpassClient(url string, client *http.Client) *OverpassClient {
	if url == "" {
		url = DefaultOverpassURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	settings := gobreaker.Settings{
		Name:    "overpass",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &OverpassClient{
		url:     url,
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[*overpassResponse](settings),
	}
}

// Name returns the provider identity.
func (c *OverpassClient) Name() location.Provider {
	return location.ProviderOverpass
}

// Search queries Overpass for nodes and ways carrying any of the query's
// tags within the radius, and normalizes the elements.
func (c *OverpassClient) Search(ctx context.Context, q Query) (*Result, error) {
	body := BuildOverpassQuery(q)

	resp, err := c.breaker.Execute(func() (*overpassResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "text/plain")

		httpResp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = httpResp.Body.Close() }()

		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("overpass returned status %d", httpResp.StatusCode)
		}

		var decoded overpassResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
			return nil, fmt.Errorf("failed to decode overpass response: %w", err)
		}
		return &decoded, nil
	})
	if err != nil {
		return nil, fmt.Errorf("overpass search failed: %w", err)
	}

	result := &Result{}
	for i := range resp.Elements {
		candidate, err := NormalizeOverpass(&resp.Elements[i])
		if err != nil {
			result.Malformed++
			continue
		}
		result.Candidates = append(result.Candidates, candidate)
	}
	return result, nil
}

// BuildOverpassQuery renders the Overpass QL for a query: one node and one
// way clause per tag, unioned, with center output for ways.
func BuildOverpassQuery(q Query) string {
	radiusMeters := q.Radius.Meters()

	var clauses []string
	for _, tag := range q.Tags {
		var selector string
		if key, value, ok := strings.Cut(tag, "="); ok {
			selector = fmt.Sprintf("[%q=%q]", key, value)
		} else {
			selector = fmt.Sprintf("[%q]", tag)
		}
		clauses = append(clauses,
			fmt.Sprintf("node%s(around:%d,%f,%f);", selector, radiusMeters, q.Center.Lat, q.Center.Lng),
			fmt.Sprintf("way%s(around:%d,%f,%f);", selector, radiusMeters, q.Center.Lat, q.Center.Lng),
		)
	}

	return fmt.Sprintf("[out:json][timeout:%d];\n(\n%s\n);\nout center meta;",
		overpassQueryTimeout, strings.Join(clauses, "\n"))
}

// categoryKeys is the priority order for extracting a coarse category from
// OSM tags.
var categoryKeys = []string{"amenity", "shop", "building", "leisure", "tourism", "healthcare"}

// NormalizeOverpass maps a raw Overpass element onto the canonical candidate
// shape. It fails with ErrMalformedRecord when the element has no name or no
// usable coordinates. Unknown tags are dropped.
func NormalizeOverpass(el *OverpassElement) (*location.Candidate, error) {
	name := el.Tags["name"]
	if name == "" {
		return nil, fmt.Errorf("%w: element %s/%d has no name", ErrMalformedRecord, el.Type, el.ID)
	}

	var point location.Point
	switch {
	case el.Lat != 0 || el.Lon != 0:
		point = location.Point{Lat: el.Lat, Lng: el.Lon}
	case el.Center != nil:
		point = location.Point{Lat: el.Center.Lat, Lng: el.Center.Lon}
	default:
		return nil, fmt.Errorf("%w: element %s/%d has no coordinates", ErrMalformedRecord, el.Type, el.ID)
	}

	category := "unknown"
	for _, key := range categoryKeys {
		if value, ok := el.Tags[key]; ok {
			category = key + ":" + value
			break
		}
	}

	return &location.Candidate{
		Source:   location.ProviderOverpass,
		SourceID: fmt.Sprintf("%s/%d", el.Type, el.ID),
		Name:     name,
		Category: category,
		Point:    point,
		Address:  overpassAddress(el.Tags),
		Phone:    firstTag(el.Tags, "phone", "contact:phone"),
		Email:    firstTag(el.Tags, "email", "contact:email"),
		Website:  firstTag(el.Tags, "website", "contact:website"),
		Status:   location.StatusUnknown,
	}, nil
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if value := tags[key]; value != "" {
			return value
		}
	}
	return ""
}

// overpassAddress assembles a street address from addr:* tags when present.
func overpassAddress(tags map[string]string) string {
	var parts []string
	if number, street := tags["addr:housenumber"], tags["addr:street"]; street != "" {
		if number != "" {
			parts = append(parts, number+" "+street)
		} else {
			parts = append(parts, street)
		}
	}
	if city := tags["addr:city"]; city != "" {
		parts = append(parts, city)
	}
	if postcode := tags["addr:postcode"]; postcode != "" {
		parts = append(parts, postcode)
	}
	return strings.Join(parts, ", ")
}
