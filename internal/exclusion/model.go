// Package exclusion tracks places an operator never wants to see again in
// search results, with the reason they were ruled out.
package exclusion

import (
	"time"

	"github.com/vendhive/locator/internal/location"
)

// Exclusion marks one place as off-limits for one operator. A place can be
// excluded at most once per operator; re-adding it updates the reason.
type Exclusion struct {
	ID           string                   `json:"id"`
	OperatorID   string                   `json:"operator_id"`
	PlaceID      string                   `json:"place_id"`
	LocationName string                   `json:"location_name"`
	Reason       location.ExclusionReason `json:"reason"`
	Notes        string                   `json:"notes,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}
