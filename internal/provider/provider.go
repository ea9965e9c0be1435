// Package provider implements the geographic data source clients and the
// normalization of their native records into the canonical candidate shape.
package provider

import (
	"context"
	"errors"

	"github.com/vendhive/locator/internal/location"
)

// ErrMalformedRecord is returned by normalizers when a provider record lacks
// required fields (coordinates, name). Malformed records are dropped and
// counted; they never abort a search.
var ErrMalformedRecord = errors.New("malformed provider record")

// Query describes one provider search: a geographic center, a radius band,
// and the OSM venue tags derived from the machine type and building filter.
type Query struct {
	Center location.Point
	Radius location.Radius
	Tags   []string
}

// Result is the output of a single provider search.
type Result struct {
	Candidates []*location.Candidate

	// Malformed counts records dropped during normalization.
	Malformed int
}

// Source is a queryable geographic data provider. Implementations are
// expected to be slow or unavailable at any time; callers bound each Search
// with a timeout and treat failures as partial-result conditions.
type Source interface {
	Name() location.Provider
	Search(ctx context.Context, q Query) (*Result, error)
}
