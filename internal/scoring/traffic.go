package scoring

import (
	"strings"

	"github.com/vendhive/locator/internal/location"
)

// Category classes used by the foot traffic heuristic. Matching is
// case-insensitive substring against both the detailed and coarse category.
var (
	highTrafficCategories = []string{
		"gas_station", "convenience_store", "grocery", "shopping_mall",
		"hospital", "school", "university", "restaurant", "fast_food",
		"transit_station", "airport",
	}
	mediumTrafficCategories = []string{
		"office", "hotel", "gym", "fitness", "cafe", "bank",
	}
)

// EstimateTraffic derives a foot traffic level for a candidate that arrived
// without one. The heuristic accumulates points from rating, review volume,
// category class, and operational status, then maps the total onto the
// traffic bands.
func EstimateTraffic(c *location.Candidate) location.FootTraffic {
	score := 0

	if c.Rating != nil {
		switch rating := *c.Rating; {
		case rating >= 4.5:
			score += 15
		case rating >= 4.0:
			score += 10
		case rating >= 3.5:
			score += 5
		}
	}

	switch reviews := c.Reviews(); {
	case reviews >= 500:
		score += 20
	case reviews >= 100:
		score += 15
	case reviews >= 50:
		score += 10
	case reviews >= 10:
		score += 5
	}

	detailed := strings.ToLower(c.DetailedCategory)
	coarse := strings.ToLower(c.Category)
	if matchesAny(detailed, coarse, highTrafficCategories) {
		score += 15
	} else if matchesAny(detailed, coarse, mediumTrafficCategories) {
		score += 8
	}

	if c.Status == location.StatusOperational {
		score += 10
	}

	switch {
	case score >= 40:
		return location.TrafficVeryHigh
	case score >= 25:
		return location.TrafficHigh
	case score >= 15:
		return location.TrafficModerate
	case score >= 5:
		return location.TrafficLow
	default:
		return location.TrafficVeryLow
	}
}

func matchesAny(detailed, coarse string, categories []string) bool {
	for _, cat := range categories {
		if strings.Contains(detailed, cat) || strings.Contains(coarse, cat) {
			return true
		}
	}
	return false
}
