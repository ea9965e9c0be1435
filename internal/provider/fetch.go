package provider

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vendhive/locator/internal/location"
	"github.com/vendhive/locator/internal/tracing"
)

// DefaultFetchTimeout bounds each provider call. A timed-out provider is a
// partial-result condition, not a request failure.
const DefaultFetchTimeout = 15 * time.Second

// FetchResult is the combined output of fanning a query out to every
// configured provider.
type FetchResult struct {
	// Candidates is the union of all successful providers' candidates.
	Candidates []*location.Candidate

	// Malformed counts records dropped during normalization across all
	// providers.
	Malformed int

	// Errors maps provider name to failure reason for providers that
	// returned nothing. An entry here never aborts the search.
	Errors map[string]string
}

// Observer receives per-provider fetch outcomes. The metrics registry
// implements it; a nil observer records nothing.
type Observer interface {
	ObserveProviderRequest(provider, outcome string, seconds float64)
	AddMalformed(provider string, n int)
}

// Fetcher fans a query out to all providers concurrently.
type Fetcher struct {
	sources  []Source
	timeout  time.Duration
	observer Observer
}

// NewFetcher creates a Fetcher over the given sources. A non-positive
// timeout falls back to DefaultFetchTimeout.
func NewFetcher(timeout time.Duration, sources ...Source) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{sources: sources, timeout: timeout}
}

// SetObserver attaches a metrics observer. Must be called before Fetch.
func (f *Fetcher) SetObserver(o Observer) {
	f.observer = o
}

// Fetch queries every provider concurrently, each bounded by the per-provider
// timeout, and merges the results. One provider failing never suppresses the
// others' candidates; failures surface only in the Errors map. Cancelling ctx
// cancels all in-flight provider calls.
func (f *Fetcher) Fetch(ctx context.Context, q Query) *FetchResult {
	combined := &FetchResult{Errors: make(map[string]string)}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, source := range f.sources {
		wg.Add(1)
		go func(source Source) {
			defer wg.Done()
			name := string(source.Name())

			callCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()
			callCtx, endSpan := tracing.StartProviderSpan(callCtx, name)

			start := time.Now()
			result, err := source.Search(callCtx, q)
			endSpan(err)
			f.observe(name, err, time.Since(start), result)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("provider search failed",
					"provider", name,
					"error", err)
				combined.Errors[name] = err.Error()
				return
			}
			combined.Candidates = append(combined.Candidates, result.Candidates...)
			combined.Malformed += result.Malformed
		}(source)
	}

	wg.Wait()
	return combined
}

func (f *Fetcher) observe(name string, err error, elapsed time.Duration, result *Result) {
	if f.observer == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	f.observer.ObserveProviderRequest(name, outcome, elapsed.Seconds())
	if result != nil && result.Malformed > 0 {
		f.observer.AddMalformed(name, result.Malformed)
	}
}
