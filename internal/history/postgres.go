package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vendhive/locator/internal/location"
)

// PostgresRepository implements Repository using PostgreSQL. Parameters and
// result payloads are stored as JSONB.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a Postgres-backed history repository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

// Record appends one entry.
func (r *PostgresRepository) Record(ctx context.Context, entry *Entry) (*Entry, error) {
	params, err := json.Marshal(entry.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search parameters: %w", err)
	}
	results, err := json.Marshal(entry.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search results: %w", err)
	}

	buildingTypes := make([]string, len(entry.BuildingTypes))
	for i, bt := range entry.BuildingTypes {
		buildingTypes[i] = string(bt)
	}

	query := `
		INSERT INTO search_history (
			id, operator_id, zip_code, radius, machine_type, building_types,
			result_count, parameters, results, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at`

	stored := *entry
	stored.ID = uuid.NewString()
	err = r.db.QueryRowContext(ctx, query,
		stored.ID, entry.OperatorID, entry.ZipCode, int(entry.Radius),
		string(entry.MachineType), pq.Array(buildingTypes),
		entry.ResultCount, params, results,
	).Scan(&stored.CreatedAt)
	if err != nil {
		r.logger.Error("failed to record search history",
			"operator_id", entry.OperatorID, "zip_code", entry.ZipCode, "error", err)
		return nil, fmt.Errorf("failed to record search history: %w", err)
	}
	return &stored, nil
}

// List returns a page of the operator's entries, newest first, without the
// stored result payloads.
func (r *PostgresRepository) List(ctx context.Context, operatorID string, limit, offset int) ([]Entry, int, error) {
	limit, offset = clampPage(limit, offset)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM search_history WHERE operator_id = $1`, operatorID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search history: %w", err)
	}

	query := `
		SELECT id, operator_id, zip_code, radius, machine_type, building_types,
		       result_count, parameters, created_at
		FROM search_history
		WHERE operator_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, operatorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list search history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows.Scan, false)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
	}
	return entries, total, rows.Err()
}

// GetByID returns one entry including its stored results.
func (r *PostgresRepository) GetByID(ctx context.Context, operatorID, id string) (*Entry, error) {
	query := `
		SELECT id, operator_id, zip_code, radius, machine_type, building_types,
		       result_count, parameters, results, created_at
		FROM search_history
		WHERE operator_id = $1 AND id = $2`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, operatorID, id).Scan, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Stats aggregates the operator's search activity.
func (r *PostgresRepository) Stats(ctx context.Context, operatorID string) (*Stats, error) {
	stats := &Stats{
		SearchesByZip:  make(map[string]int),
		SearchesByType: make(map[string]int),
	}

	summary := `
		SELECT COUNT(*), COALESCE(SUM(result_count), 0), MAX(created_at)
		FROM search_history
		WHERE operator_id = $1`
	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, summary, operatorID).
		Scan(&stats.TotalSearches, &stats.TotalResults, &last); err != nil {
		return nil, fmt.Errorf("failed to aggregate search history: %w", err)
	}
	if last.Valid {
		stats.LastSearchedAt = &last.Time
	}
	if stats.TotalSearches > 0 {
		stats.AverageResults = float64(stats.TotalResults) / float64(stats.TotalSearches)
	}

	byZip := `
		SELECT zip_code, COUNT(*)
		FROM search_history
		WHERE operator_id = $1
		GROUP BY zip_code`
	if err := r.scanCounts(ctx, byZip, operatorID, stats.SearchesByZip); err != nil {
		return nil, err
	}

	byType := `
		SELECT machine_type, COUNT(*)
		FROM search_history
		WHERE operator_id = $1 AND machine_type <> ''
		GROUP BY machine_type`
	if err := r.scanCounts(ctx, byType, operatorID, stats.SearchesByType); err != nil {
		return nil, err
	}

	stats.MostSearchedZip = topKey(stats.SearchesByZip)
	stats.MostSearchedType = topKey(stats.SearchesByType)
	return stats, nil
}

func (r *PostgresRepository) scanCounts(ctx context.Context, query, operatorID string, dst map[string]int) error {
	rows, err := r.db.QueryContext(ctx, query, operatorID)
	if err != nil {
		return fmt.Errorf("failed to group search history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan history group: %w", err)
		}
		dst[key] = count
	}
	return rows.Err()
}

func scanEntry(scan func(dest ...any) error, withResults bool) (*Entry, error) {
	var entry Entry
	var radius int
	var machineType string
	var buildingTypes []string
	var params []byte
	var results []byte

	dest := []any{
		&entry.ID, &entry.OperatorID, &entry.ZipCode, &radius, &machineType,
		pq.Array(&buildingTypes), &entry.ResultCount, &params,
	}
	if withResults {
		dest = append(dest, &results)
	}
	dest = append(dest, &entry.CreatedAt)

	if err := scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}

	entry.Radius = location.Radius(radius)
	entry.MachineType = location.MachineType(machineType)
	for _, bt := range buildingTypes {
		entry.BuildingTypes = append(entry.BuildingTypes, location.BuildingType(bt))
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &entry.Parameters); err != nil {
			return nil, fmt.Errorf("failed to decode search parameters: %w", err)
		}
	}
	if withResults && len(results) > 0 {
		if err := json.Unmarshal(results, &entry.Results); err != nil {
			return nil, fmt.Errorf("failed to decode search results: %w", err)
		}
	}
	return &entry, nil
}
