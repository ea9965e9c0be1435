package history

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a history entry does not exist for the
// operator.
var ErrNotFound = errors.New("search history entry not found")

// DefaultPageSize bounds List when the caller passes limit <= 0.
const DefaultPageSize = 20

// MaxPageSize is the hard ceiling on a single List page.
const MaxPageSize = 100

// Repository defines search history persistence. History is append-only:
// entries are recorded and read, never updated.
type Repository interface {
	// Record appends one entry and returns it with id and timestamp set.
	Record(ctx context.Context, entry *Entry) (*Entry, error)

	// List returns a page of the operator's entries, newest first, without
	// the stored result payloads.
	List(ctx context.Context, operatorID string, limit, offset int) ([]Entry, int, error)

	// GetByID returns one entry including its stored results.
	GetByID(ctx context.Context, operatorID, id string) (*Entry, error)

	// Stats aggregates the operator's search activity.
	Stats(ctx context.Context, operatorID string) (*Stats, error)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// InMemoryRepository is an in-memory Repository for tests and development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// NewInMemoryRepository creates an empty in-memory history repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{entries: make(map[string][]Entry)}
}

// Record appends one entry.
func (r *InMemoryRepository) Record(_ context.Context, entry *Entry) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *entry
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now()
	r.entries[entry.OperatorID] = append(r.entries[entry.OperatorID], stored)
	result := stored
	return &result, nil
}

// List returns a page of the operator's entries, newest first.
func (r *InMemoryRepository) List(_ context.Context, operatorID string, limit, offset int) ([]Entry, int, error) {
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.entries[operatorID]
	total := len(all)

	sorted := make([]Entry, total)
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if offset >= total {
		return []Entry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]Entry, 0, end-offset)
	for _, e := range sorted[offset:end] {
		e.Results = nil
		page = append(page, e)
	}
	return page, total, nil
}

// GetByID returns one entry including its stored results.
func (r *InMemoryRepository) GetByID(_ context.Context, operatorID, id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries[operatorID] {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, ErrNotFound
}

// Stats aggregates the operator's search activity.
func (r *InMemoryRepository) Stats(_ context.Context, operatorID string) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Stats{
		SearchesByZip:  make(map[string]int),
		SearchesByType: make(map[string]int),
	}
	for _, e := range r.entries[operatorID] {
		stats.TotalSearches++
		stats.TotalResults += e.ResultCount
		stats.SearchesByZip[e.ZipCode]++
		if e.MachineType != "" {
			stats.SearchesByType[string(e.MachineType)]++
		}
		if stats.LastSearchedAt == nil || e.CreatedAt.After(*stats.LastSearchedAt) {
			at := e.CreatedAt
			stats.LastSearchedAt = &at
		}
	}
	if stats.TotalSearches > 0 {
		stats.AverageResults = float64(stats.TotalResults) / float64(stats.TotalSearches)
	}
	stats.MostSearchedZip = topKey(stats.SearchesByZip)
	stats.MostSearchedType = topKey(stats.SearchesByType)
	return stats, nil
}

// topKey returns the key with the highest count, breaking ties by the
// lexically smaller key so the answer is stable.
func topKey(counts map[string]int) string {
	best, bestCount := "", 0
	for k, n := range counts {
		if n > bestCount || (n == bestCount && (best == "" || k < best)) {
			best, bestCount = k, n
		}
	}
	return best
}
