package preference

import (
	"strings"

	"github.com/vendhive/locator/internal/location"
)

// Filter drops candidates that violate the operator's saved preferences
// or the per-request overrides derived from them.
type Filter struct {
	MinimumRating         float64
	RequireContactInfo    bool
	ExcludedCategories    []string
	DropClosedPermanently bool
}

// NewFilter builds a Filter from a preference record.
func NewFilter(pref *Preference) *Filter {
	if pref == nil {
		return &Filter{}
	}
	return &Filter{
		MinimumRating:         pref.MinimumRating,
		RequireContactInfo:    pref.RequireContactInfo,
		ExcludedCategories:    pref.ExcludedCategories,
		DropClosedPermanently: pref.DropClosedPermanently,
	}
}

// Keep reports whether a candidate passes every preference check.
// A rating floor only applies to candidates that carry a rating:
// unrated open-map records are kept rather than silently dropped.
func (f *Filter) Keep(c *location.Candidate) bool {
	if f.RequireContactInfo && !c.HasContactInfo() {
		return false
	}
	if f.MinimumRating > 0 && c.Rating != nil && *c.Rating < f.MinimumRating {
		return false
	}
	if f.DropClosedPermanently && c.Status == location.StatusClosedPermanently {
		return false
	}
	if f.categoryExcluded(c) {
		return false
	}
	return true
}

// Apply returns the candidates that pass Keep, preserving order.
func (f *Filter) Apply(candidates []location.Candidate) []location.Candidate {
	kept := make([]location.Candidate, 0, len(candidates))
	for i := range candidates {
		if f.Keep(&candidates[i]) {
			kept = append(kept, candidates[i])
		}
	}
	return kept
}

func (f *Filter) categoryExcluded(c *location.Candidate) bool {
	if len(f.ExcludedCategories) == 0 {
		return false
	}
	category := strings.ToLower(c.Category)
	detailed := strings.ToLower(c.DetailedCategory)
	for _, excluded := range f.ExcludedCategories {
		needle := strings.ToLower(strings.TrimSpace(excluded))
		if needle == "" {
			continue
		}
		if strings.Contains(category, needle) || strings.Contains(detailed, needle) {
			return true
		}
	}
	return false
}
