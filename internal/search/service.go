package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/vendhive/locator/internal/dedupe"
	"github.com/vendhive/locator/internal/exclusion"
	"github.com/vendhive/locator/internal/geocode"
	"github.com/vendhive/locator/internal/history"
	"github.com/vendhive/locator/internal/location"
	"github.com/vendhive/locator/internal/preference"
	"github.com/vendhive/locator/internal/provider"
	"github.com/vendhive/locator/internal/scoring"
)

// MetricsRecorder receives pipeline counters. The metrics registry
// implements it; a nil recorder records nothing.
type MetricsRecorder interface {
	AddDeduplicated(n int)
}

// Service runs the discovery pipeline end to end.
type Service struct {
	geocoder    geocode.Geocoder
	fetcher     *provider.Fetcher
	dedup       *dedupe.Deduplicator
	scorer      *scoring.Scorer
	preferences preference.Repository
	exclusions  exclusion.Repository
	history     history.Repository
	logger      *slog.Logger
	metrics     MetricsRecorder
}

// NewService wires the pipeline. A nil scorer uses the default weights; a
// nil logger uses slog.Default().
func NewService(
	geocoder geocode.Geocoder,
	fetcher *provider.Fetcher,
	scorer *scoring.Scorer,
	preferences preference.Repository,
	exclusions exclusion.Repository,
	hist history.Repository,
	logger *slog.Logger,
) *Service {
	if scorer == nil {
		scorer = scoring.NewScorer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		geocoder:    geocoder,
		fetcher:     fetcher,
		dedup:       dedupe.New(dedupe.NewDefaultMatcher()),
		scorer:      scorer,
		preferences: preferences,
		exclusions:  exclusions,
		history:     hist,
		logger:      logger,
	}
}

// SetMetrics attaches a pipeline metrics recorder.
func (s *Service) SetMetrics(m MetricsRecorder) {
	s.metrics = m
}

// Search runs the full pipeline for one request. Provider failures and
// history write failures degrade the response; only validation, geocoding,
// and preference/exclusion reads can fail it outright.
func (s *Service) Search(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pref, err := preference.GetOrDefaults(ctx, s.preferences, req.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	effective := s.applyDefaults(req, pref)
	if effective.MachineType == "" {
		return nil, fmt.Errorf("%w: machine_type", ErrMissingSearchParameter)
	}

	center, err := s.geocoder.Geocode(ctx, effective.ZipCode)
	if err != nil {
		return nil, err
	}

	excluded, err := s.exclusions.PlaceIDs(ctx, req.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusions: %w", err)
	}

	started := time.Now()
	fetched := s.fetcher.Fetch(ctx, provider.Query{
		Center: center,
		Radius: effective.Radius,
		Tags:   location.OSMTags(effective.MachineType, effective.BuildingTypes),
	})

	merged := s.dedup.Dedupe(fetched.Candidates, excluded)
	if s.metrics != nil {
		// Removed by merging or exclusion.
		s.metrics.AddDeduplicated(len(fetched.Candidates) - len(merged))
	}

	filter := preference.NewFilter(pref)
	ranked := make([]*location.Candidate, 0, len(merged))
	for _, c := range merged {
		if c.Traffic == "" {
			c.Traffic = scoring.EstimateTraffic(c)
		}
		s.scorer.Apply(c)
		if filter.Keep(c) {
			ranked = append(ranked, c)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		return scoring.Less(ranked[i], ranked[j])
	})
	limit := effective.limit()
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]location.Candidate, len(ranked))
	for i, c := range ranked {
		results[i] = *c
	}

	resp := &Response{
		ZipCode:       effective.ZipCode,
		Center:        center,
		Radius:        effective.Radius,
		MachineType:   effective.MachineType,
		BuildingTypes: effective.BuildingTypes,
		ResultCount:   len(results),
		Results:       results,
		Malformed:     fetched.Malformed,
	}
	if len(fetched.Errors) > 0 {
		resp.ProviderErrors = fetched.Errors
	}

	s.logger.Info("search completed",
		"operator_id", req.OperatorID,
		"zip_code", effective.ZipCode,
		"machine_type", string(effective.MachineType),
		"radius_miles", int(effective.Radius),
		"fetched", len(fetched.Candidates),
		"returned", len(results),
		"provider_errors", len(fetched.Errors),
		"duration_ms", time.Since(started).Milliseconds())

	s.recordHistory(ctx, effective, resp)
	return resp, nil
}

// applyDefaults fills unset request fields from the operator's saved
// preferences. An explicit request field always wins; building types from
// the request replace, never extend, the saved set.
func (s *Service) applyDefaults(req *Request, pref *preference.Preference) *Request {
	effective := *req
	if effective.MachineType == "" {
		effective.MachineType = pref.DefaultMachineType()
	}
	if effective.Radius == 0 {
		effective.Radius = pref.Radius
		if effective.Radius == 0 {
			effective.Radius = location.DefaultRadius
		}
	}
	if len(effective.BuildingTypes) == 0 {
		effective.BuildingTypes = pref.BuildingTypes
	}
	return &effective
}

// recordHistory persists the search. A write failure never fails the search:
// it is logged and surfaced as history_warning so the caller knows no
// search_id was assigned and can retry the record.
func (s *Service) recordHistory(ctx context.Context, req *Request, resp *Response) {
	if s.history == nil {
		return
	}

	entry := &history.Entry{
		OperatorID:    req.OperatorID,
		ZipCode:       req.ZipCode,
		Radius:        req.Radius,
		MachineType:   req.MachineType,
		BuildingTypes: req.BuildingTypes,
		ResultCount:   resp.ResultCount,
		Parameters: map[string]any{
			"max_results": req.limit(),
		},
		Results: resp.Results,
	}
	recorded, err := s.history.Record(ctx, entry)
	if err != nil {
		s.logger.Warn("failed to record search history",
			"operator_id", req.OperatorID,
			"zip_code", req.ZipCode,
			"error", err)
		resp.HistoryWarning = "search history could not be recorded"
		return
	}
	resp.SearchID = recorded.ID
}
