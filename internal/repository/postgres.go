package repository

import (
	"context"
	"fmt"

	"floodmap-api/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema creates the flooding_reports table and its spatial index.
const Schema = `
	CREATE EXTENSION IF NOT EXISTS postgis;

	CREATE TABLE IF NOT EXISTS flooding_reports (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title TEXT NOT NULL DEFAULT '',
		location GEOGRAPHY(POINT, 4326),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS flooding_reports_location_idx ON flooding_reports USING GIST (location);
`

// PostgresStore implements the report store on PostgreSQL with PostGIS
type PostgresStore struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a new PostgreSQL report store
func NewPostgresStore(db *pgxpool.Pool, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates the reports table if it does not exist yet
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}

// FetchAll returns every flooding report. Rows without a location are skipped.
func (r *PostgresStore) FetchAll(ctx context.Context) ([]models.FloodReport, error) {
	sql := `
		SELECT
			id::text,
			title,
			ST_Y(location::geometry) AS latitude,
			ST_X(location::geometry) AS longitude,
			created_at
		FROM flooding_reports
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, &models.BackendError{Op: "fetch", Err: fmt.Errorf("repository: failed to execute fetch query: %w", err)}
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		var rec record
		err := rows.Scan(
			&rec.ID,
			&rec.Title,
			&rec.Latitude,
			&rec.Longitude,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, &models.BackendError{Op: "fetch", Err: fmt.Errorf("repository: failed to scan report: %w", err)}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, &models.BackendError{Op: "fetch", Err: fmt.Errorf("repository: error iterating rows: %w", err)}
	}

	return collectReports(records, r.logger), nil
}

// Create inserts a report and returns it with its assigned id
func (r *PostgresStore) Create(ctx context.Context, report models.FloodReport) (models.FloodReport, error) {
	sql := `
		INSERT INTO flooding_reports (title, location, created_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($3, $2), 4326)::geography, $4)
		RETURNING id::text, created_at
	`

	err := r.db.QueryRow(ctx, sql,
		report.Title,
		report.Coordinate.Latitude,
		report.Coordinate.Longitude,
		report.CreatedAt,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return models.FloodReport{}, &models.BackendError{Op: "create", Err: fmt.Errorf("repository: failed to insert report: %w", err)}
	}

	return report, nil
}

// Delete removes the report with the given id. Unknown ids are an error.
func (r *PostgresStore) Delete(ctx context.Context, id string) error {
	reportID, err := uuid.Parse(id)
	if err != nil {
		return &models.BackendError{Op: "delete", Err: fmt.Errorf("repository: %s: %w", id, models.ErrReportNotFound)}
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM flooding_reports WHERE id = $1::uuid`, reportID.String())
	if err != nil {
		return &models.BackendError{Op: "delete", Err: fmt.Errorf("repository: failed to delete report: %w", err)}
	}
	if tag.RowsAffected() == 0 {
		return &models.BackendError{Op: "delete", Err: fmt.Errorf("repository: %s: %w", id, models.ErrReportNotFound)}
	}
	return nil
}
