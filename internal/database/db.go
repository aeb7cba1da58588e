package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Alias1177/SignalLab/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders params as a lib/pq connection string.
func (p ConnectionParams) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslMode,
	)
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	// Create tables if they don't exist
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL DEFAULT 'simulation',
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL,
			label TEXT NOT NULL,
			signal_ids TEXT[] NOT NULL,
			summary JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// GetSignal retrieves a signal definition
func (db *DB) GetSignal(ctx context.Context, id string) (*models.SignalDefinition, error) {
	var sig models.SignalDefinition
	var kind, mode string

	err := db.QueryRowContext(ctx, `
		SELECT id, kind, code, name, mode
		FROM signals
		WHERE id = $1
	`, id).Scan(&sig.ID, &kind, &sig.Code, &sig.Name, &mode)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrSignalNotFound, id)
		}
		return nil, err
	}

	sig.Kind = models.ParseSignalKind(kind)
	sig.Mode = models.Mode(mode)
	return &sig, nil
}

// SaveSignal inserts or replaces a signal definition
func (db *DB) SaveSignal(ctx context.Context, sig *models.SignalDefinition) error {
	mode := sig.Mode
	if mode == "" {
		mode = models.ModeSimulation
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO signals (id, kind, code, name, mode, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id)
		DO UPDATE SET
			kind = EXCLUDED.kind,
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			mode = EXCLUDED.mode,
			updated_at = EXCLUDED.updated_at
	`, sig.ID, string(sig.Kind), sig.Code, sig.Name, string(mode))

	return err
}

// SaveRun stores a run outcome
func (db *DB) SaveRun(ctx context.Context, run Run) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, label, signal_ids, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID.String(), string(run.Kind), run.Label, pq.Array(run.SignalIDs), []byte(run.Summary), run.CreatedAt)

	return err
}

// RecentRuns lists the latest runs of kind, newest first
func (db *DB) RecentRuns(ctx context.Context, kind RunKind, limit int) ([]Run, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, kind, label, signal_ids, summary, created_at
		FROM runs
		WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var id, runKind string
		var summary []byte
		if err := rows.Scan(&id, &runKind, &run.Label, pq.Array(&run.SignalIDs), &summary, &run.CreatedAt); err != nil {
			return nil, err
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		run.Kind = RunKind(runKind)
		run.Summary = summary
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
