package preference

import (
	"testing"

	"github.com/vendhive/locator/internal/location"
)

func ratingPtr(v float64) *float64 { return &v }

func TestFilterKeep(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		candidate location.Candidate
		want      bool
	}{
		{
			name:      "empty filter keeps everything",
			filter:    Filter{},
			candidate: location.Candidate{Name: "Corner Cafe"},
			want:      true,
		},
		{
			name:      "contact required drops candidate with no contact info",
			filter:    Filter{RequireContactInfo: true},
			candidate: location.Candidate{Name: "Corner Cafe"},
			want:      false,
		},
		{
			name:      "contact required keeps candidate with phone",
			filter:    Filter{RequireContactInfo: true},
			candidate: location.Candidate{Name: "Corner Cafe", Phone: "555-0100"},
			want:      true,
		},
		{
			name:      "rating floor drops rated candidate below it",
			filter:    Filter{MinimumRating: 4.0},
			candidate: location.Candidate{Name: "Diner", Rating: ratingPtr(3.2)},
			want:      false,
		},
		{
			name:      "rating floor keeps rated candidate at it",
			filter:    Filter{MinimumRating: 4.0},
			candidate: location.Candidate{Name: "Diner", Rating: ratingPtr(4.0)},
			want:      true,
		},
		{
			name:      "rating floor never drops unrated candidate",
			filter:    Filter{MinimumRating: 4.5},
			candidate: location.Candidate{Name: "Laundromat"},
			want:      true,
		},
		{
			name:      "closed permanently dropped when enabled",
			filter:    Filter{DropClosedPermanently: true},
			candidate: location.Candidate{Name: "Old Gym", Status: location.StatusClosedPermanently},
			want:      false,
		},
		{
			name:      "closed permanently kept when disabled",
			filter:    Filter{},
			candidate: location.Candidate{Name: "Old Gym", Status: location.StatusClosedPermanently},
			want:      true,
		},
		{
			name:      "excluded category matches detailed category case-insensitively",
			filter:    Filter{ExcludedCategories: []string{"Night_Club"}},
			candidate: location.Candidate{Name: "Bar", DetailedCategory: "bar, night_club, establishment"},
			want:      false,
		},
		{
			name:      "excluded category matches coarse category",
			filter:    Filter{ExcludedCategories: []string{"amenity:bar"}},
			candidate: location.Candidate{Name: "Bar", Category: "amenity:bar"},
			want:      false,
		},
		{
			name:      "unrelated excluded category keeps candidate",
			filter:    Filter{ExcludedCategories: []string{"casino"}},
			candidate: location.Candidate{Name: "Cafe", DetailedCategory: "cafe, food"},
			want:      true,
		},
		{
			name:      "blank excluded entries are ignored",
			filter:    Filter{ExcludedCategories: []string{"", "  "}},
			candidate: location.Candidate{Name: "Cafe", DetailedCategory: "cafe"},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Keep(&tt.candidate); got != tt.want {
				t.Errorf("Keep() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterApplyPreservesOrder(t *testing.T) {
	f := Filter{RequireContactInfo: true}
	in := []location.Candidate{
		{Name: "A", Phone: "555-0001"},
		{Name: "B"},
		{Name: "C", Email: "c@example.com"},
		{Name: "D", Website: "https://d.example.com"},
	}

	// A website alone is not contact info: only phone or email counts.
	out := f.Apply(in)
	if len(out) != 2 {
		t.Fatalf("Apply() returned %d candidates, want 2", len(out))
	}
	for i, want := range []string{"A", "C"} {
		if out[i].Name != want {
			t.Errorf("out[%d].Name = %q, want %q", i, out[i].Name, want)
		}
	}
}

func TestNewFilterFromNilPreference(t *testing.T) {
	f := NewFilter(nil)
	c := location.Candidate{Name: "Anything"}
	if !f.Keep(&c) {
		t.Error("nil-preference filter should keep everything")
	}
}
