package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hoopcast/hoopcast/internal/models"
)

func (db *DB) CreateJob(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO render_jobs (id, game_id, type, status, attempts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	return db.QueryRowContext(
		ctx, query,
		job.ID, job.GameID, job.Type, job.Status, job.Attempts,
	).Scan(&job.CreatedAt)
}

func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	query := `
		SELECT
			id, game_id, type, status, attempts, stage,
			started_at, finished_at, error_message, created_at
		FROM render_jobs
		WHERE id = $1
	`

	job := &models.Job{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.GameID, &job.Type, &job.Status, &job.Attempts,
		&job.Stage, &job.StartedAt, &job.FinishedAt, &job.ErrorMessage,
		&job.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

func (db *DB) UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	now := time.Now()
	query := `UPDATE render_jobs SET status = $1, started_at = $2 WHERE id = $3`

	if status == models.JobStatusSucceeded || status == models.JobStatusFailed {
		query = `UPDATE render_jobs SET status = $1, finished_at = $2 WHERE id = $3`
	}

	_, err := db.ExecContext(ctx, query, status, now, id)
	return err
}

// UpdateJobFailure records the failing stage and reason for a render job.
func (db *DB) UpdateJobFailure(ctx context.Context, id uuid.UUID, stage, errorMessage string) error {
	query := `
		UPDATE render_jobs
		SET status = $1, stage = $2, error_message = $3, finished_at = $4, attempts = attempts + 1
		WHERE id = $5
	`
	_, err := db.ExecContext(ctx, query, models.JobStatusFailed, stage, errorMessage, time.Now(), id)
	return err
}
