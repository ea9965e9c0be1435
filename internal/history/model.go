// Package history keeps an append-only log of the searches each operator
// has run, with enough of the request and result to replay or audit them.
package history

import (
	"time"

	"github.com/vendhive/locator/internal/location"
)

// Entry is one recorded search. Parameters snapshots the effective request
// after preference defaults were applied, so the entry stays meaningful even
// if the operator's preferences change later.
type Entry struct {
	ID            string                  `json:"id"`
	OperatorID    string                  `json:"operator_id"`
	ZipCode       string                  `json:"zip_code"`
	Radius        location.Radius         `json:"radius"`
	MachineType   location.MachineType    `json:"machine_type"`
	BuildingTypes []location.BuildingType `json:"building_types,omitempty"`
	ResultCount   int                     `json:"result_count"`
	Parameters    map[string]any          `json:"parameters,omitempty"`
	Results       []location.Candidate    `json:"results,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// Stats aggregates an operator's search activity for the stats endpoint.
type Stats struct {
	TotalSearches    int            `json:"total_searches"`
	TotalResults     int            `json:"total_results"`
	AverageResults   float64        `json:"average_results"`
	SearchesByZip    map[string]int `json:"searches_by_zip"`
	SearchesByType   map[string]int `json:"searches_by_machine_type"`
	LastSearchedAt   *time.Time     `json:"last_searched_at,omitempty"`
	ExclusionCount   int            `json:"exclusion_count"`
	MostSearchedZip  string         `json:"most_searched_zip,omitempty"`
	MostSearchedType string         `json:"most_searched_machine_type,omitempty"`
}
