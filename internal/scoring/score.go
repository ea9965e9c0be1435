// Package scoring computes the deterministic priority score that ranks
// placement leads, combining contact completeness, review volume, rating,
// foot traffic, and operational status.
package scoring

import (
	"github.com/vendhive/locator/internal/location"
)

// Scorer computes priority scores from a fixed weight table. The zero value
// is not usable; construct with NewScorer.
type Scorer struct {
	weights *Weights
}

// NewScorer creates a Scorer. A nil weights table falls back to defaults.
func NewScorer(weights *Weights) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// ClassifyContact returns the contact completeness class for a candidate.
func ClassifyContact(c *location.Candidate) location.ContactCompleteness {
	switch {
	case c.Phone != "" && c.Email != "":
		return location.ContactBoth
	case c.Phone != "":
		return location.ContactPhoneOnly
	case c.Email != "":
		return location.ContactEmailOnly
	default:
		return location.ContactNone
	}
}

// Score computes the priority score for a candidate. It is a pure function
// of the candidate's fields and the weight table: identical input yields an
// identical score on every call. The score has no upper bound; it is a
// relative ranking signal, not a percentage.
func (s *Scorer) Score(c *location.Candidate) int {
	score := 0

	switch ClassifyContact(c) {
	case location.ContactBoth:
		score += s.weights.Contact.Both
	case location.ContactPhoneOnly:
		score += s.weights.Contact.PhoneOnly
	case location.ContactEmailOnly:
		score += s.weights.Contact.EmailOnly
	default:
		score += s.weights.Contact.None
	}

	switch reviews := c.Reviews(); {
	case reviews >= 100:
		score += s.weights.Reviews.AtLeast100
	case reviews >= 50:
		score += s.weights.Reviews.AtLeast50
	case reviews >= 10:
		score += s.weights.Reviews.AtLeast10
	}

	// Absent ratings contribute nothing; they are not treated as zero stars.
	if c.Rating != nil {
		switch rating := *c.Rating; {
		case rating >= 4.5:
			score += s.weights.Rating.AtLeast45
		case rating >= 4.0:
			score += s.weights.Rating.AtLeast40
		case rating >= 3.5:
			score += s.weights.Rating.AtLeast35
		}
	}

	switch c.Traffic {
	case location.TrafficVeryHigh:
		score += s.weights.Traffic.VeryHigh
	case location.TrafficHigh:
		score += s.weights.Traffic.High
	case location.TrafficModerate:
		score += s.weights.Traffic.Moderate
	case location.TrafficLow:
		score += s.weights.Traffic.Low
	}

	switch c.Status {
	case location.StatusOperational:
		score += s.weights.Status.Operational
	case location.StatusClosedTemporarily, location.StatusUnknown:
		score += s.weights.Status.Uncertain
	}
	// Permanently closed businesses score nothing here but are still
	// returned; whether to surface them is a preference decision.

	return score
}

// Apply scores a candidate in place, setting both the score and the contact
// completeness class.
func (s *Scorer) Apply(c *location.Candidate) {
	c.Contact = ClassifyContact(c)
	c.Score = s.Score(c)
}

// Less reports whether a ranks strictly ahead of b under the canonical
// ordering: score descending, then review count descending, then name
// ascending, then provider id ascending. The final key makes ordering total
// and reproducible.
func Less(a, b *location.Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Reviews() != b.Reviews() {
		return a.Reviews() > b.Reviews()
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Key() < b.Key()
}
