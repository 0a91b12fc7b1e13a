package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

func New(databaseURL string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{sqlDB}, nil
}

// EnsureSchema creates the tables the renderer owns. Games and predictions
// are written by the upstream prediction subsystem; their tables are created
// here too so a fresh environment can run end to end.
func (db *DB) EnsureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			game_date TEXT NOT NULL,
			away_team TEXT NOT NULL,
			home_team TEXT NOT NULL,
			away_abbrev TEXT NOT NULL,
			home_abbrev TEXT NOT NULL,
			vegas_favorite TEXT,
			vegas_spread DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id SERIAL PRIMARY KEY,
			game_id TEXT NOT NULL REFERENCES games(game_id),
			model_name TEXT NOT NULL,
			predicted_winner TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			reasoning TEXT,
			UNIQUE (game_id, model_name)
		)`,
		`CREATE TABLE IF NOT EXISTS content_log (
			id UUID PRIMARY KEY,
			game_id TEXT NOT NULL,
			video_path TEXT NOT NULL,
			script TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS render_jobs (
			id UUID PRIMARY KEY,
			game_id TEXT,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			stage TEXT,
			started_at TIMESTAMPTZ,
			finished_at TIMESTAMPTZ,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS footage_cursor (
			id INT PRIMARY KEY CHECK (id = 1),
			position_sec DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	return nil
}
