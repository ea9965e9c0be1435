package preference

import (
	"context"
	"testing"

	"github.com/vendhive/locator/internal/location"
)

func TestInMemoryRepositoryGetUnset(t *testing.T) {
	repo := NewInMemoryRepository()

	pref, err := repo.Get(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if pref != nil {
		t.Errorf("Get() for unset operator = %+v, want nil", pref)
	}
}

func TestInMemoryRepositoryUpsertAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	in := &Preference{
		OperatorID:    "op-1",
		MachineTypes:  []location.MachineType{location.MachineSnack},
		Radius:        location.Radius15,
		MinimumRating: 3.5,
	}
	if err := repo.Upsert(ctx, in); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "op-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil after Upsert")
	}
	if got.Radius != location.Radius15 || got.MinimumRating != 3.5 {
		t.Errorf("Get() = %+v, want radius 15 and rating 3.5", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set on upsert")
	}
}

func TestInMemoryRepositoryUpdatePreservesCreatedAt(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first := &Preference{OperatorID: "op-1", Radius: location.Radius10}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	stored, _ := repo.Get(ctx, "op-1")

	second := &Preference{OperatorID: "op-1", Radius: location.Radius25}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, _ := repo.Get(ctx, "op-1")
	if got.Radius != location.Radius25 {
		t.Errorf("Radius = %d, want 25", got.Radius)
	}
	if !got.CreatedAt.Equal(stored.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v != %v", got.CreatedAt, stored.CreatedAt)
	}
}

func TestInMemoryRepositoryGetReturnsCopy(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.Upsert(ctx, &Preference{OperatorID: "op-1", MinimumRating: 4.0}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, _ := repo.Get(ctx, "op-1")
	got.MinimumRating = 1.0

	again, _ := repo.Get(ctx, "op-1")
	if again.MinimumRating != 4.0 {
		t.Error("mutating a Get result leaked into the repository")
	}
}

func TestGetOrDefaults(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	pref, err := GetOrDefaults(ctx, repo, "op-1")
	if err != nil {
		t.Fatalf("GetOrDefaults() error = %v", err)
	}
	if pref.Radius != location.DefaultRadius {
		t.Errorf("default Radius = %d, want %d", pref.Radius, location.DefaultRadius)
	}
	if pref.RequireContactInfo {
		t.Error("default RequireContactInfo should be false")
	}

	saved := &Preference{OperatorID: "op-1", Radius: location.Radius40}
	if err := repo.Upsert(ctx, saved); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	pref, err = GetOrDefaults(ctx, repo, "op-1")
	if err != nil {
		t.Fatalf("GetOrDefaults() error = %v", err)
	}
	if pref.Radius != location.Radius40 {
		t.Errorf("saved Radius = %d, want 40", pref.Radius)
	}
}

func TestDefaultMachineType(t *testing.T) {
	empty := Defaults("op-1")
	if got := empty.DefaultMachineType(); got != "" {
		t.Errorf("DefaultMachineType() on empty prefs = %q, want empty", got)
	}

	pref := &Preference{MachineTypes: []location.MachineType{location.MachineDrink, location.MachineSnack}}
	if got := pref.DefaultMachineType(); got != location.MachineDrink {
		t.Errorf("DefaultMachineType() = %q, want %q", got, location.MachineDrink)
	}
}
