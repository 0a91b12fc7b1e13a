package db

import (
	"context"
	"database/sql"
	"fmt"
)

// The footage cursor is a single durable counter: the playback position
// (seconds into the base highlight asset) where the next render's window
// starts. It is read at allocation time and written only after a render
// fully succeeds, so a failed render never burns footage.

// GetFootageCursor returns the persisted cursor position, or 0 when no
// render has ever committed.
func (db *DB) GetFootageCursor(ctx context.Context) (float64, error) {
	var position float64
	err := db.QueryRowContext(ctx, `SELECT position_sec FROM footage_cursor WHERE id = 1`).Scan(&position)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get footage cursor: %w", err)
	}
	return position, nil
}

// SetFootageCursor persists the cursor position. Single-writer discipline
// is enforced by the orchestrator (sequential renders); the upsert keeps
// exactly one row.
func (db *DB) SetFootageCursor(ctx context.Context, position float64) error {
	query := `
		INSERT INTO footage_cursor (id, position_sec, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET position_sec = $1, updated_at = now()
	`
	if _, err := db.ExecContext(ctx, query, position); err != nil {
		return fmt.Errorf("failed to set footage cursor: %w", err)
	}
	return nil
}
