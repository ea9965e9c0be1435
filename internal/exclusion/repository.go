package exclusion

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when deleting an exclusion that does not exist for
// the operator.
var ErrNotFound = errors.New("exclusion not found")

// Repository defines exclusion persistence.
type Repository interface {
	// List returns the operator's exclusions, newest first.
	List(ctx context.Context, operatorID string) ([]Exclusion, error)

	// PlaceIDs returns the set of excluded place ids for fast lookup during
	// a search.
	PlaceIDs(ctx context.Context, operatorID string) (map[string]bool, error)

	// Add records one exclusion, replacing any prior record for the same
	// place. The returned exclusion carries the assigned id and timestamp.
	Add(ctx context.Context, excl *Exclusion) (*Exclusion, error)

	// BulkAdd records many exclusions at once and returns how many were
	// newly created (as opposed to updated).
	BulkAdd(ctx context.Context, excls []Exclusion) (created int, err error)

	// Delete removes the exclusion with the given id. Returns ErrNotFound
	// when no such exclusion exists for the operator.
	Delete(ctx context.Context, operatorID, id string) error
}

// InMemoryRepository is an in-memory Repository for tests and development.
type InMemoryRepository struct {
	mu sync.RWMutex
	// byOperator maps operator id -> place id -> exclusion.
	byOperator map[string]map[string]*Exclusion
}

// NewInMemoryRepository creates an empty in-memory exclusion repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byOperator: make(map[string]map[string]*Exclusion)}
}

// List returns the operator's exclusions, newest first.
func (r *InMemoryRepository) List(_ context.Context, operatorID string) ([]Exclusion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	places := r.byOperator[operatorID]
	out := make([]Exclusion, 0, len(places))
	for _, excl := range places {
		out = append(out, *excl)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].PlaceID < out[j].PlaceID
	})
	return out, nil
}

// PlaceIDs returns the set of excluded place ids for the operator.
func (r *InMemoryRepository) PlaceIDs(_ context.Context, operatorID string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	places := r.byOperator[operatorID]
	out := make(map[string]bool, len(places))
	for placeID := range places {
		out[placeID] = true
	}
	return out, nil
}

// Add records one exclusion, replacing any prior record for the same place.
func (r *InMemoryRepository) Add(_ context.Context, excl *Exclusion) (*Exclusion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(excl), nil
}

// BulkAdd records many exclusions and returns how many were newly created.
func (r *InMemoryRepository) BulkAdd(_ context.Context, excls []Exclusion) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := 0
	for i := range excls {
		places := r.byOperator[excls[i].OperatorID]
		if _, exists := places[excls[i].PlaceID]; !exists {
			created++
		}
		r.addLocked(&excls[i])
	}
	return created, nil
}

// Delete removes the exclusion with the given id.
func (r *InMemoryRepository) Delete(_ context.Context, operatorID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for placeID, excl := range r.byOperator[operatorID] {
		if excl.ID == id {
			delete(r.byOperator[operatorID], placeID)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) addLocked(excl *Exclusion) *Exclusion {
	places, ok := r.byOperator[excl.OperatorID]
	if !ok {
		places = make(map[string]*Exclusion)
		r.byOperator[excl.OperatorID] = places
	}

	stored := *excl
	if existing, ok := places[excl.PlaceID]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = uuid.NewString()
		stored.CreatedAt = time.Now()
	}
	places[excl.PlaceID] = &stored
	result := stored
	return &result
}
