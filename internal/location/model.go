// Package location defines the canonical candidate shape shared by the
// discovery pipeline and the catalogs of machine types, radius bands, and
// building types the search surface accepts.
package location

import (
	"errors"
	"fmt"
)

// Provider identifies a geographic data source.
type Provider string

// Supported providers.
const (
	ProviderOverpass Provider = "overpass"
	ProviderPlaces   Provider = "places"
)

// MachineType is a closed enum of vending machine categories.
type MachineType string

// Supported machine types.
const (
	MachineSnack        MachineType = "snack_machine"
	MachineDrink        MachineType = "drink_machine"
	MachineClaw         MachineType = "claw_machine"
	MachineHotFood      MachineType = "hot_food_kiosk"
	MachineIceCream     MachineType = "ice_cream_machine"
	MachineCoffee       MachineType = "coffee_machine"
	MachineCombo        MachineType = "combo_machine"
	MachineHealthySnack MachineType = "healthy_snack_machine"
	MachineFreshFood    MachineType = "fresh_food_machine"
	MachineToy          MachineType = "toy_machine"
)

// ErrInvalidMachineType is returned when a machine type is not in the catalog.
var ErrInvalidMachineType = errors.New("invalid machine type")

// machineTypes is the closed set of valid machine types.
var machineTypes = map[MachineType]bool{
	MachineSnack:        true,
	MachineDrink:        true,
	MachineClaw:         true,
	MachineHotFood:      true,
	MachineIceCream:     true,
	MachineCoffee:       true,
	MachineCombo:        true,
	MachineHealthySnack: true,
	MachineFreshFood:    true,
	MachineToy:          true,
}

// ParseMachineType validates s against the machine type catalog.
func ParseMachineType(s string) (MachineType, error) {
	mt := MachineType(s)
	if !machineTypes[mt] {
		return "", fmt.Errorf("%w: %q", ErrInvalidMachineType, s)
	}
	return mt, nil
}

// Valid reports whether the machine type is in the catalog.
func (m MachineType) Valid() bool {
	return machineTypes[m]
}

// Radius is a search radius in miles, restricted to fixed bands.
type Radius int

// Supported radius bands in miles.
const (
	Radius5  Radius = 5
	Radius10 Radius = 10
	Radius15 Radius = 15
	Radius20 Radius = 20
	Radius25 Radius = 25
	Radius30 Radius = 30
	Radius40 Radius = 40
)

// DefaultRadius is the mid-tier band used when neither the request nor the
// stored preference supplies one.
const DefaultRadius = Radius10

// ErrInvalidRadius is returned when a radius is not one of the fixed bands.
var ErrInvalidRadius = errors.New("invalid radius")

var radiusBands = map[Radius]bool{
	Radius5: true, Radius10: true, Radius15: true, Radius20: true,
	Radius25: true, Radius30: true, Radius40: true,
}

// ParseRadius validates miles against the fixed radius bands.
func ParseRadius(miles int) (Radius, error) {
	r := Radius(miles)
	if !radiusBands[r] {
		return 0, fmt.Errorf("%w: %d miles", ErrInvalidRadius, miles)
	}
	return r, nil
}

// Valid reports whether the radius is one of the fixed bands.
func (r Radius) Valid() bool {
	return radiusBands[r]
}

// Meters converts the radius band to meters.
func (r Radius) Meters() int {
	return int(float64(r) * 1609.34)
}

// BusinessStatus is the operational status of a candidate business.
type BusinessStatus string

// Business status values.
const (
	StatusOperational       BusinessStatus = "operational"
	StatusClosedTemporarily BusinessStatus = "closed_temporarily"
	StatusClosedPermanently BusinessStatus = "closed_permanently"
	StatusUnknown           BusinessStatus = "unknown"
)

// ParseBusinessStatus maps a provider-native status string onto the closed
// enum. Unrecognized values map to StatusUnknown rather than failing: status
// is an enrichment signal, not a required field.
func ParseBusinessStatus(s string) BusinessStatus {
	switch s {
	case "OPERATIONAL", string(StatusOperational):
		return StatusOperational
	case "CLOSED_TEMPORARILY", string(StatusClosedTemporarily):
		return StatusClosedTemporarily
	case "CLOSED_PERMANENTLY", string(StatusClosedPermanently):
		return StatusClosedPermanently
	default:
		return StatusUnknown
	}
}

// FootTraffic is the estimated foot traffic level at a candidate.
type FootTraffic string

// Foot traffic levels, lowest to highest.
const (
	TrafficUnknown  FootTraffic = ""
	TrafficVeryLow  FootTraffic = "very_low"
	TrafficLow      FootTraffic = "low"
	TrafficModerate FootTraffic = "moderate"
	TrafficHigh     FootTraffic = "high"
	TrafficVeryHigh FootTraffic = "very_high"
)

// ContactCompleteness classifies which contact channels a candidate exposes.
type ContactCompleteness string

// Contact completeness classes.
const (
	ContactBoth      ContactCompleteness = "both"
	ContactPhoneOnly ContactCompleteness = "phone_only"
	ContactEmailOnly ContactCompleteness = "email_only"
	ContactNone      ContactCompleteness = "none"
)

// Point is a geographic coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Candidate is one discovered business under consideration as a placement
// lead. Candidates are transient to a single search invocation; persistence
// of long-lived location data is owned elsewhere.
type Candidate struct {
	// PlaceID is the commercial provider's place id when known. It is the
	// primary dedup and exclusion key.
	PlaceID string `json:"place_id,omitempty"`

	// SourceID is the id assigned by the provider that produced the record.
	SourceID string   `json:"source_id"`
	Source   Provider `json:"source"`

	Name             string `json:"name"`
	Category         string `json:"category,omitempty"`
	DetailedCategory string `json:"detailed_category,omitempty"`
	Address          string `json:"address,omitempty"`
	Point            Point  `json:"point"`

	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`

	// Rating is nil when the provider supplied none; 0 is a real rating.
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`

	Status  BusinessStatus `json:"status"`
	Traffic FootTraffic    `json:"foot_traffic,omitempty"`

	BusinessHours string `json:"business_hours,omitempty"`
	MapsURL       string `json:"maps_url,omitempty"`

	// Computed by the scoring stage.
	Score   int                 `json:"score"`
	Contact ContactCompleteness `json:"contact_completeness"`
}

// HasContactInfo reports whether the candidate exposes at least one contact
// channel.
func (c *Candidate) HasContactInfo() bool {
	return c.Phone != "" || c.Email != ""
}

// RatingValue returns the rating or 0 when absent.
func (c *Candidate) RatingValue() float64 {
	if c.Rating == nil {
		return 0
	}
	return *c.Rating
}

// Reviews returns the review count or 0 when absent.
func (c *Candidate) Reviews() int {
	if c.ReviewCount == nil {
		return 0
	}
	return *c.ReviewCount
}

// Key returns the canonical identity used for deterministic ordering before
// pairwise dedup comparison. Commercial place ids win over source ids so the
// same physical business keys identically regardless of which provider
// produced the record.
func (c *Candidate) Key() string {
	if c.PlaceID != "" {
		return "p:" + c.PlaceID
	}
	return string(c.Source) + ":" + c.SourceID
}

// ExclusionReason is why an operator suppressed a location.
type ExclusionReason string

// Exclusion reasons.
const (
	ReasonAlreadyContacted ExclusionReason = "already_contacted"
	ReasonNotInterested    ExclusionReason = "not_interested"
	ReasonPoorLocation     ExclusionReason = "poor_location"
	ReasonClosed           ExclusionReason = "closed"
	ReasonOther            ExclusionReason = "other"
)

// ErrInvalidExclusionReason is returned when a reason is not in the catalog.
var ErrInvalidExclusionReason = errors.New("invalid exclusion reason")

var exclusionReasons = map[ExclusionReason]bool{
	ReasonAlreadyContacted: true,
	ReasonNotInterested:    true,
	ReasonPoorLocation:     true,
	ReasonClosed:           true,
	ReasonOther:            true,
}

// ParseExclusionReason validates s against the reason catalog.
func ParseExclusionReason(s string) (ExclusionReason, error) {
	r := ExclusionReason(s)
	if !exclusionReasons[r] {
		return "", fmt.Errorf("%w: %q", ErrInvalidExclusionReason, s)
	}
	return r, nil
}
