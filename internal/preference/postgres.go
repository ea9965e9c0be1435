package preference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vendhive/locator/internal/location"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a Postgres-backed preference repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get retrieves the operator's preference record, or nil when unset.
func (r *PostgresRepository) Get(ctx context.Context, operatorID string) (*Preference, error) {
	query := `
		SELECT operator_id, machine_types, radius, building_types,
		       excluded_categories, minimum_rating, require_contact_info,
		       drop_closed_permanently, created_at, updated_at
		FROM location_preferences
		WHERE operator_id = $1`

	var pref Preference
	var machineTypes, buildingTypes, excludedCategories []string
	var radius int

	err := r.db.QueryRowContext(ctx, query, operatorID).Scan(
		&pref.OperatorID,
		pq.Array(&machineTypes),
		&radius,
		pq.Array(&buildingTypes),
		pq.Array(&excludedCategories),
		&pref.MinimumRating,
		&pref.RequireContactInfo,
		&pref.DropClosedPermanently,
		&pref.CreatedAt,
		&pref.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	pref.Radius = location.Radius(radius)
	for _, mt := range machineTypes {
		pref.MachineTypes = append(pref.MachineTypes, location.MachineType(mt))
	}
	for _, bt := range buildingTypes {
		pref.BuildingTypes = append(pref.BuildingTypes, location.BuildingType(bt))
	}
	pref.ExcludedCategories = excludedCategories
	return &pref, nil
}

// Upsert creates or replaces the operator's preference record.
func (r *PostgresRepository) Upsert(ctx context.Context, pref *Preference) error {
	machineTypes := make([]string, len(pref.MachineTypes))
	for i, mt := range pref.MachineTypes {
		machineTypes[i] = string(mt)
	}
	buildingTypes := make([]string, len(pref.BuildingTypes))
	for i, bt := range pref.BuildingTypes {
		buildingTypes[i] = string(bt)
	}

	query := `
		INSERT INTO location_preferences (
			operator_id, machine_types, radius, building_types,
			excluded_categories, minimum_rating, require_contact_info,
			drop_closed_permanently, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (operator_id) DO UPDATE SET
			machine_types = EXCLUDED.machine_types,
			radius = EXCLUDED.radius,
			building_types = EXCLUDED.building_types,
			excluded_categories = EXCLUDED.excluded_categories,
			minimum_rating = EXCLUDED.minimum_rating,
			require_contact_info = EXCLUDED.require_contact_info,
			drop_closed_permanently = EXCLUDED.drop_closed_permanently,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		pref.OperatorID,
		pq.Array(machineTypes),
		int(pref.Radius),
		pq.Array(buildingTypes),
		pq.Array(pref.ExcludedCategories),
		pref.MinimumRating,
		pref.RequireContactInfo,
		pref.DropClosedPermanently,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}
