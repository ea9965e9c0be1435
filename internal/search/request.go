// Package search runs the full discovery pipeline: resolve the area, fan
// out to providers, dedupe, score, filter, rank, and record the search.
package search

import (
	"errors"
	"fmt"

	"github.com/vendhive/locator/internal/location"
)

// Result-set bounds. MaxResultsCeiling is a hard cap regardless of what the
// caller asks for.
const (
	DefaultMaxResults = 20
	MaxResultsCeiling = 100
)

// Validation errors. Handlers map these to 400 responses.
var (
	ErrMissingSearchParameter = errors.New("missing required search parameter")
	ErrInvalidRadius          = errors.New("invalid radius")
	ErrInvalidMachineType     = errors.New("invalid machine type")
	ErrInvalidBuildingType    = errors.New("invalid building type")
	ErrInvalidMaxResults      = errors.New("invalid max results")
)

// Request is one search as the operator submitted it. Zero values mean
// "use my saved preference"; only the ZIP code is always required.
type Request struct {
	OperatorID    string                  `json:"-"`
	ZipCode       string                  `json:"zip_code"`
	MachineType   location.MachineType    `json:"machine_type,omitempty"`
	Radius        location.Radius         `json:"radius,omitempty"`
	BuildingTypes []location.BuildingType `json:"building_types,omitempty"`
	MaxResults    int                     `json:"max_results,omitempty"`
}

// Validate checks the request fields that do not depend on preferences.
// Machine type presence is checked later, after preference defaults apply.
func (r *Request) Validate() error {
	if r.ZipCode == "" {
		return fmt.Errorf("%w: zip_code", ErrMissingSearchParameter)
	}
	if r.Radius != 0 && !r.Radius.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRadius, r.Radius)
	}
	if r.MachineType != "" {
		if _, err := location.ParseMachineType(string(r.MachineType)); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidMachineType, r.MachineType)
		}
	}
	for _, bt := range r.BuildingTypes {
		if !location.KnownBuildingType(string(bt)) {
			return fmt.Errorf("%w: %q", ErrInvalidBuildingType, bt)
		}
	}
	if r.MaxResults < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxResults, r.MaxResults)
	}
	return nil
}

// limit resolves the effective result cap for this request.
func (r *Request) limit() int {
	if r.MaxResults <= 0 {
		return DefaultMaxResults
	}
	if r.MaxResults > MaxResultsCeiling {
		return MaxResultsCeiling
	}
	return r.MaxResults
}
