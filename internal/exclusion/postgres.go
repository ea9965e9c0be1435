package exclusion

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a Postgres-backed exclusion repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns the operator's exclusions, newest first.
func (r *PostgresRepository) List(ctx context.Context, operatorID string) ([]Exclusion, error) {
	query := `
		SELECT id, operator_id, place_id, location_name, reason, notes, created_at
		FROM location_exclusions
		WHERE operator_id = $1
		ORDER BY created_at DESC, place_id ASC`

	rows, err := r.db.QueryContext(ctx, query, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exclusions: %w", err)
	}
	defer rows.Close()

	var out []Exclusion
	for rows.Next() {
		var excl Exclusion
		if err := rows.Scan(&excl.ID, &excl.OperatorID, &excl.PlaceID,
			&excl.LocationName, &excl.Reason, &excl.Notes, &excl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion: %w", err)
		}
		out = append(out, excl)
	}
	return out, rows.Err()
}

// PlaceIDs returns the set of excluded place ids for the operator.
func (r *PostgresRepository) PlaceIDs(ctx context.Context, operatorID string) (map[string]bool, error) {
	query := `SELECT place_id FROM location_exclusions WHERE operator_id = $1`

	rows, err := r.db.QueryContext(ctx, query, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to read excluded place ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var placeID string
		if err := rows.Scan(&placeID); err != nil {
			return nil, fmt.Errorf("failed to scan place id: %w", err)
		}
		out[placeID] = true
	}
	return out, rows.Err()
}

// Add records one exclusion, replacing any prior record for the same place.
func (r *PostgresRepository) Add(ctx context.Context, excl *Exclusion) (*Exclusion, error) {
	query := `
		INSERT INTO location_exclusions (id, operator_id, place_id, location_name, reason, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (operator_id, place_id) DO UPDATE SET
			location_name = EXCLUDED.location_name,
			reason = EXCLUDED.reason,
			notes = EXCLUDED.notes
		RETURNING id, created_at`

	stored := *excl
	err := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), excl.OperatorID, excl.PlaceID,
		excl.LocationName, string(excl.Reason), excl.Notes,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add exclusion: %w", err)
	}
	return &stored, nil
}

// BulkAdd records many exclusions in one transaction and returns how many
// were newly created.
func (r *PostgresRepository) BulkAdd(ctx context.Context, excls []Exclusion) (int, error) {
	if len(excls) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO location_exclusions (id, operator_id, place_id, location_name, reason, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (operator_id, place_id) DO UPDATE SET
			location_name = EXCLUDED.location_name,
			reason = EXCLUDED.reason,
			notes = EXCLUDED.notes
		RETURNING (xmax = 0)`

	created := 0
	for i := range excls {
		var inserted bool
		err := tx.QueryRowContext(ctx, query,
			uuid.NewString(), excls[i].OperatorID, excls[i].PlaceID,
			excls[i].LocationName, string(excls[i].Reason), excls[i].Notes,
		).Scan(&inserted)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				return 0, fmt.Errorf("failed to bulk add exclusion %q: %s: %w", excls[i].PlaceID, pqErr.Code.Name(), err)
			}
			return 0, fmt.Errorf("failed to bulk add exclusion %q: %w", excls[i].PlaceID, err)
		}
		if inserted {
			created++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk add: %w", err)
	}
	return created, nil
}

// Delete removes the exclusion with the given id.
func (r *PostgresRepository) Delete(ctx context.Context, operatorID, id string) error {
	query := `DELETE FROM location_exclusions WHERE operator_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, operatorID, id)
	if err != nil {
		return fmt.Errorf("failed to delete exclusion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
