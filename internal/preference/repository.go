package preference

import (
	"context"
	"sync"
	"time"
)

// Repository defines preference persistence. Get returning (nil, nil) means
// the operator has never saved preferences and defaults apply.
type Repository interface {
	// Get retrieves the operator's preference record, or nil when unset.
	Get(ctx context.Context, operatorID string) (*Preference, error)

	// Upsert creates or replaces the operator's preference record.
	Upsert(ctx context.Context, pref *Preference) error
}

// GetOrDefaults reads the operator's preference, falling back to defaults
// when none is stored.
func GetOrDefaults(ctx context.Context, repo Repository, operatorID string) (*Preference, error) {
	pref, err := repo.Get(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return Defaults(operatorID), nil
	}
	return pref, nil
}

// InMemoryRepository is an in-memory Repository for tests and development.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu    sync.RWMutex
	prefs map[string]*Preference
}

// NewInMemoryRepository creates an empty in-memory preference repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{prefs: make(map[string]*Preference)}
}

// Get retrieves the operator's preference record, or nil when unset.
func (r *InMemoryRepository) Get(_ context.Context, operatorID string) (*Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pref, ok := r.prefs[operatorID]
	if !ok {
		return nil, nil
	}
	prefCopy := *pref
	return &prefCopy, nil
}

// Upsert creates or replaces the operator's preference record.
func (r *InMemoryRepository) Upsert(_ context.Context, pref *Preference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	prefCopy := *pref
	if existing, ok := r.prefs[pref.OperatorID]; ok {
		prefCopy.CreatedAt = existing.CreatedAt
	} else {
		prefCopy.CreatedAt = now
	}
	prefCopy.UpdatedAt = now
	r.prefs[pref.OperatorID] = &prefCopy
	return nil
}
