package scoring

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// ContactWeights defines the score contribution of contact completeness.
type ContactWeights struct {
	Both      int `json:"both"`       // Phone and email present (default: 50)
	PhoneOnly int `json:"phone_only"` // Phone only (default: 30)
	EmailOnly int `json:"email_only"` // Email only (default: 20)
	None      int `json:"none"`       // Neither (default: 10)
}

// ReviewWeights defines the banded score contribution of review volume.
type ReviewWeights struct {
	AtLeast100 int `json:"at_least_100"` // reviewCount >= 100 (default: 20)
	AtLeast50  int `json:"at_least_50"`  // reviewCount >= 50 (default: 15)
	AtLeast10  int `json:"at_least_10"`  // reviewCount >= 10 (default: 10)
}

// RatingWeights defines the banded score contribution of the star rating.
type RatingWeights struct {
	AtLeast45 int `json:"at_least_4_5"` // rating >= 4.5 (default: 15)
	AtLeast40 int `json:"at_least_4_0"` // rating >= 4.0 (default: 10)
	AtLeast35 int `json:"at_least_3_5"` // rating >= 3.5 (default: 5)
}

// TrafficWeights defines the score contribution of the foot traffic estimate.
type TrafficWeights struct {
	VeryHigh int `json:"very_high"` // default: 20
	High     int `json:"high"`      // default: 15
	Moderate int `json:"moderate"`  // default: 10
	Low      int `json:"low"`       // default: 5
}

// StatusWeights defines the score contribution of operational status.
type StatusWeights struct {
	Operational int `json:"operational"` // default: 10
	Uncertain   int `json:"uncertain"`   // closed_temporarily or unknown (default: 5)
}

// Weights holds the full priority score weight table.
type Weights struct {
	Contact ContactWeights `json:"contact"`
	Reviews ReviewWeights  `json:"reviews"`
	Rating  RatingWeights  `json:"rating"`
	Traffic TrafficWeights `json:"traffic"`
	Status  StatusWeights  `json:"status"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"`
	Weights Weights `json:"weights"`
}

// DefaultWeights returns the compatibility weight table. The asymmetry
// between factors (contact caps at 50, reviews at 20) is inherited from the
// ranked output existing operators already rely on; changing any constant
// changes every operator's lead ordering.
func DefaultWeights() *Weights {
	return &Weights{
		Contact: ContactWeights{Both: 50, PhoneOnly: 30, EmailOnly: 20, None: 10},
		Reviews: ReviewWeights{AtLeast100: 20, AtLeast50: 15, AtLeast10: 10},
		Rating:  RatingWeights{AtLeast45: 15, AtLeast40: 10, AtLeast35: 5},
		Traffic: TrafficWeights{VeryHigh: 20, High: 15, Moderate: 10, Low: 5},
		Status:  StatusWeights{Operational: 10, Uncertain: 5},
	}
}

// LoadCalibration loads score weights from a JSON calibration file. Partial
// configurations are merged with defaults. On any error the defaults are
// returned so a bad calibration file degrades gracefully.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read score calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse score calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	merged := MergeCalibration(DefaultWeights(), &config.Weights)
	slog.Info("loaded score calibration", "path", filePath)
	return merged, nil
}

// MergeCalibration merges override weights into base. Only non-zero override
// values are applied, allowing partial calibration files.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	mergeInt(&result.Contact.Both, override.Contact.Both)
	mergeInt(&result.Contact.PhoneOnly, override.Contact.PhoneOnly)
	mergeInt(&result.Contact.EmailOnly, override.Contact.EmailOnly)
	mergeInt(&result.Contact.None, override.Contact.None)

	mergeInt(&result.Reviews.AtLeast100, override.Reviews.AtLeast100)
	mergeInt(&result.Reviews.AtLeast50, override.Reviews.AtLeast50)
	mergeInt(&result.Reviews.AtLeast10, override.Reviews.AtLeast10)

	mergeInt(&result.Rating.AtLeast45, override.Rating.AtLeast45)
	mergeInt(&result.Rating.AtLeast40, override.Rating.AtLeast40)
	mergeInt(&result.Rating.AtLeast35, override.Rating.AtLeast35)

	mergeInt(&result.Traffic.VeryHigh, override.Traffic.VeryHigh)
	mergeInt(&result.Traffic.High, override.Traffic.High)
	mergeInt(&result.Traffic.Moderate, override.Traffic.Moderate)
	mergeInt(&result.Traffic.Low, override.Traffic.Low)

	mergeInt(&result.Status.Operational, override.Status.Operational)
	mergeInt(&result.Status.Uncertain, override.Status.Uncertain)

	return &result
}

func mergeInt(dst *int, override int) {
	if override != 0 {
		*dst = override
	}
}
