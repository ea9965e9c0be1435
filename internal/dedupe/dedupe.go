// Package dedupe merges candidates that describe the same physical business
// across providers and removes operator-excluded locations. Output ordering
// is canonical so the merge result does not depend on input ordering.
package dedupe

import (
	"math"
	"sort"
	"strings"

	"github.com/vendhive/locator/internal/location"
)

// Default matcher thresholds.
const (
	// DefaultProximityMeters is the coordinate distance under which two
	// candidates without a shared place id are considered co-located.
	DefaultProximityMeters = 30.0

	// DefaultNameSimilarity is the minimum normalized name similarity for
	// co-located candidates to be treated as the same business.
	DefaultNameSimilarity = 0.6
)

// Matcher decides whether two candidates without a shared commercial place
// id describe the same physical business. The heuristic lives behind this
// interface so thresholds and algorithms can be tuned without touching the
// rest of the pipeline.
type Matcher interface {
	SameBusiness(a, b *location.Candidate) bool
}

// ProximityNameMatcher matches candidates by coordinate proximity plus
// normalized token-overlap name similarity.
type ProximityNameMatcher struct {
	MaxDistanceMeters float64
	MinSimilarity     float64
}

// NewDefaultMatcher returns a ProximityNameMatcher with the default
// thresholds.
func NewDefaultMatcher() *ProximityNameMatcher {
	return &ProximityNameMatcher{
		MaxDistanceMeters: DefaultProximityMeters,
		MinSimilarity:     DefaultNameSimilarity,
	}
}

// SameBusiness reports whether a and b are within the distance threshold and
// their names are similar enough.
func (m *ProximityNameMatcher) SameBusiness(a, b *location.Candidate) bool {
	if DistanceMeters(a.Point, b.Point) > m.MaxDistanceMeters {
		return false
	}
	return NameSimilarity(a.Name, b.Name) >= m.MinSimilarity
}

// earthRadiusMeters is the mean earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// DistanceMeters computes the haversine distance between two points.
func DistanceMeters(a, b location.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// NameSimilarity computes token-overlap similarity between two business
// names, normalized to [0, 1]. Names are lowercased and stripped of
// punctuation before tokenizing; similarity is the Jaccard index of the
// token sets.
func NameSimilarity(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if tb[tok] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func tokenize(name string) map[string]bool {
	// Apostrophes are dropped rather than split on, so "Joe's" and "Joes"
	// yield the same token.
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			return r
		}
		return ' '
	}, strings.ToLower(name))

	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(cleaned) {
		tokens[tok] = true
	}
	return tokens
}

// Deduplicator merges and filters a unioned candidate list.
type Deduplicator struct {
	matcher Matcher
}

// New creates a Deduplicator. A nil matcher falls back to the default
// proximity + name similarity heuristic.
func New(matcher Matcher) *Deduplicator {
	if matcher == nil {
		matcher = NewDefaultMatcher()
	}
	return &Deduplicator{matcher: matcher}
}

// Dedupe merges candidates representing the same business and drops any
// candidate whose commercial place id is in the excluded set. Candidates are
// canonically sorted before pairwise comparison, so the output is identical
// for any permutation of the input.
func (d *Deduplicator) Dedupe(candidates []*location.Candidate, excluded map[string]bool) []*location.Candidate {
	// Work on a sorted copy; never mutate the caller's slice order.
	sorted := make([]*location.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key() < sorted[j].Key()
	})

	byPlaceID := make(map[string]*location.Candidate)
	var merged []*location.Candidate

	for _, c := range sorted {
		candidate := cloneCandidate(c)

		// Rule 1: identical commercial place id.
		if candidate.PlaceID != "" {
			if existing, ok := byPlaceID[candidate.PlaceID]; ok {
				mergeInto(existing, candidate)
				continue
			}
		}

		// Rule 2: proximity + name similarity against already-merged set.
		var match *location.Candidate
		for _, existing := range merged {
			if d.matcher.SameBusiness(existing, candidate) {
				match = existing
				break
			}
		}
		if match != nil {
			mergeInto(match, candidate)
			if match.PlaceID != "" {
				byPlaceID[match.PlaceID] = match
			}
			continue
		}

		merged = append(merged, candidate)
		if candidate.PlaceID != "" {
			byPlaceID[candidate.PlaceID] = candidate
		}
	}

	// Exclusions apply after merging so an excluded place id suppresses the
	// business no matter which provider contributed the surviving record.
	result := merged[:0]
	for _, c := range merged {
		if c.PlaceID != "" && excluded[c.PlaceID] {
			continue
		}
		result = append(result, c)
	}

	// Re-sort: merges can change keys when a place id is absorbed.
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key() < result[j].Key()
	})
	return result
}

func cloneCandidate(c *location.Candidate) *location.Candidate {
	clone := *c
	if c.Rating != nil {
		r := *c.Rating
		clone.Rating = &r
	}
	if c.ReviewCount != nil {
		n := *c.ReviewCount
		clone.ReviewCount = &n
	}
	return &clone
}

// mergeInto folds src into dst, keeping the richer value per field. Rating
// and review data from the commercial provider win over the open-map source
// when both are present.
func mergeInto(dst, src *location.Candidate) {
	if dst.PlaceID == "" {
		dst.PlaceID = src.PlaceID
	}
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Category == "" {
		dst.Category = src.Category
	}
	if dst.DetailedCategory == "" {
		dst.DetailedCategory = src.DetailedCategory
	}
	if dst.Address == "" {
		dst.Address = src.Address
	}
	if dst.Phone == "" {
		dst.Phone = src.Phone
	}
	if dst.Email == "" {
		dst.Email = src.Email
	}
	if dst.Website == "" {
		dst.Website = src.Website
	}
	if dst.BusinessHours == "" {
		dst.BusinessHours = src.BusinessHours
	}
	if dst.MapsURL == "" {
		dst.MapsURL = src.MapsURL
	}

	commercialWins := src.Source == location.ProviderPlaces && dst.Source != location.ProviderPlaces
	if dst.Rating == nil || (commercialWins && src.Rating != nil) {
		if src.Rating != nil {
			r := *src.Rating
			dst.Rating = &r
		}
	}
	if dst.ReviewCount == nil || (commercialWins && src.ReviewCount != nil) {
		if src.ReviewCount != nil {
			n := *src.ReviewCount
			dst.ReviewCount = &n
		}
	}

	if dst.Status == location.StatusUnknown && src.Status != "" {
		dst.Status = src.Status
	}
	if dst.Traffic == location.TrafficUnknown {
		dst.Traffic = src.Traffic
	}
	if commercialWins {
		// The commercial provider's coordinates and identity are
		// authoritative for merged records.
		dst.Point = src.Point
		dst.Source = src.Source
		dst.SourceID = src.SourceID
		if src.Status != location.StatusUnknown {
			dst.Status = src.Status
		}
	}
}
