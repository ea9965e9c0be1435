// Package preference stores an operator's saved search defaults and applies
// them as a filter over scored candidates.
package preference

import (
	"time"

	"github.com/vendhive/locator/internal/location"
)

// Default preference values applied when an operator has never saved any.
const (
	DefaultMinimumRating         = 0.0
	DefaultRequireContactInfo    = false
	DefaultDropClosedPermanently = false
)

// Preference is one operator's saved search defaults. Preferences are
// defaults, not mandates: an explicit request field always wins.
type Preference struct {
	OperatorID string `json:"operator_id"`

	MachineTypes  []location.MachineType  `json:"machine_types,omitempty"`
	Radius        location.Radius         `json:"radius"`
	BuildingTypes []location.BuildingType `json:"building_types,omitempty"`

	// ExcludedCategories drops candidates whose detailed category contains
	// any of these strings, case-insensitively.
	ExcludedCategories []string `json:"excluded_categories,omitempty"`

	// MinimumRating drops rated candidates below the floor. Unrated
	// candidates are never dropped by the floor.
	MinimumRating float64 `json:"minimum_rating"`

	RequireContactInfo bool `json:"require_contact_info"`

	// DropClosedPermanently hides permanently closed businesses. Off by
	// default: they still score zero status points and sink in the ranking.
	DropClosedPermanently bool `json:"drop_closed_permanently"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults returns the preference record used when an operator has never
// saved one.
func Defaults(operatorID string) *Preference {
	return &Preference{
		OperatorID:            operatorID,
		Radius:                location.DefaultRadius,
		MinimumRating:         DefaultMinimumRating,
		RequireContactInfo:    DefaultRequireContactInfo,
		DropClosedPermanently: DefaultDropClosedPermanently,
	}
}

// DefaultMachineType returns the operator's first preferred machine type, or
// "" when none is saved.
func (p *Preference) DefaultMachineType() location.MachineType {
	if len(p.MachineTypes) == 0 {
		return ""
	}
	return p.MachineTypes[0]
}
