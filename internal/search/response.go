package search

import (
	"github.com/vendhive/locator/internal/location"
)

// Response is the outcome of one search. ProviderErrors reports partial
// failures; a response with zero results and two provider errors is still a
// successful search.
type Response struct {
	SearchID       string                  `json:"search_id,omitempty"`
	ZipCode        string                  `json:"zip_code"`
	Center         location.Point          `json:"center"`
	Radius         location.Radius         `json:"radius"`
	MachineType    location.MachineType    `json:"machine_type"`
	BuildingTypes  []location.BuildingType `json:"building_types,omitempty"`
	ResultCount    int                     `json:"result_count"`
	Results        []location.Candidate    `json:"results"`
	Malformed      int                     `json:"malformed_records,omitempty"`
	ProviderErrors map[string]string       `json:"provider_errors,omitempty"`

	// HistoryWarning is set when the audit write failed: results are good
	// but no search_id was assigned, so the caller may retry the record.
	HistoryWarning string `json:"history_warning,omitempty"`
}
