// Package db provides PostgreSQL persistence for archive run history.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database and ensures the
// run-history table exists.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{pool: pool}
	if err := database.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return database, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// ensureSchema creates the bacpac_runs table when it does not exist yet.
func (db *DB) ensureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS bacpac_runs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			archive TEXT NOT NULL,
			status TEXT NOT NULL,
			changed BOOLEAN NOT NULL DEFAULT FALSE,
			model_hash TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreateRun creates a new run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, archive string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO bacpac_runs (archive, status)
		 VALUES ($1, $2)
		 RETURNING id`,
		archive, StatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun records the outcome of a run
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, changed bool, modelHash, message string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE bacpac_runs
		 SET status = $1, changed = $2, model_hash = $3, message = $4, completed_at = NOW()
		 WHERE id = $5`,
		status, changed, modelHash, message, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID; returns nil when not found
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, archive, status, changed, model_hash, message, created_at, completed_at
		 FROM bacpac_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Archive, &run.Status, &run.Changed, &run.ModelHash, &run.Message, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent runs, newest first
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, archive, status, changed, model_hash, message, created_at, completed_at
		 FROM bacpac_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Archive, &run.Status, &run.Changed, &run.ModelHash, &run.Message, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
