package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"evmap/backend/services/stations-service/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS refresh_runs (
	id          BIGSERIAL PRIMARY KEY,
	trigger     TEXT        NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	success     BOOLEAN     NOT NULL,
	stats       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	failures    JSONB       NOT NULL DEFAULT '{}'::jsonb
)`

// RefreshRepository stores the refresh history in Postgres.
type RefreshRepository struct {
	db *sql.DB
}

// NewRefreshRepository returns repository instance.
func NewRefreshRepository(db *sql.DB) *RefreshRepository {
	return &RefreshRepository{db: db}
}

// EnsureSchema creates the history table when missing.
func (r *RefreshRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("refresh repo: ensure schema: %w", err)
	}
	return nil
}

// Record inserts a run and sets its ID.
func (r *RefreshRepository) Record(ctx context.Context, run *models.RefreshRun) error {
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return err
	}
	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO refresh_runs (trigger, started_at, finished_at, success, stats, failures)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		run.Trigger, run.StartedAt, run.FinishedAt, run.Success, string(stats), string(failures),
	).Scan(&run.ID)
}

// Recent returns the newest runs first.
func (r *RefreshRepository) Recent(ctx context.Context, limit int) ([]models.RefreshRun, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id, trigger, started_at, finished_at, success, stats, failures
		FROM refresh_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.RefreshRun
	for rows.Next() {
		var (
			run      models.RefreshRun
			stats    []byte
			failures []byte
		)
		if err := rows.Scan(&run.ID, &run.Trigger, &run.StartedAt, &run.FinishedAt, &run.Success, &stats, &failures); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(stats, &run.Stats); err != nil {
			return nil, fmt.Errorf("refresh repo: decode stats: %w", err)
		}
		if err := json.Unmarshal(failures, &run.Failures); err != nil {
			return nil, fmt.Errorf("refresh repo: decode failures: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
