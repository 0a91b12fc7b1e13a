package db

import (
	"context"
	"fmt"

	"github.com/hoopcast/hoopcast/internal/models"
)

func (db *DB) CreateContentLog(ctx context.Context, entry *models.ContentLog) error {
	query := `
		INSERT INTO content_log (id, game_id, video_path, script)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		entry.ID, entry.GameID, entry.VideoPath, entry.Script,
	).Scan(&entry.CreatedAt)
}

// ListContentLog returns published renders, newest first.
func (db *DB) ListContentLog(ctx context.Context, limit, offset int) ([]models.ContentLog, error) {
	query := `
		SELECT id, game_id, video_path, script, created_at
		FROM content_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query content log: %w", err)
	}
	defer rows.Close()

	var entries []models.ContentLog
	for rows.Next() {
		var entry models.ContentLog
		if err := rows.Scan(&entry.ID, &entry.GameID, &entry.VideoPath, &entry.Script, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content log: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (db *DB) CountContentLog(ctx context.Context) (int, error) {
	var total int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_log`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count content log: %w", err)
	}
	return total, nil
}
