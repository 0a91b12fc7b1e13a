package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Enums

// RenderStage identifies where a render job is in its pipeline. A failed
// job records the stage it was in when it failed.
type RenderStage string

const (
	StageComposing    RenderStage = "composing"
	StageSynthesizing RenderStage = "synthesizing"
	StageAligning     RenderStage = "aligning"
	StageAllocating   RenderStage = "allocating"
	StageCompositing  RenderStage = "compositing"
	StageDone         RenderStage = "done"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Models

// ModelPrediction is one AI model's pick for a game.
type ModelPrediction struct {
	ModelName       string  `json:"model_name"`
	PredictedWinner string  `json:"predicted_winner"`
	Confidence      float64 `json:"confidence"` // percentage in (0, 100]
	Reasoning       *string `json:"reasoning,omitempty"`
}

// PredictionRecord is the read-only input to a render: one game plus every
// model's pick. Owned by the upstream prediction subsystem; the renderer
// never mutates it.
type PredictionRecord struct {
	GameID        string            `json:"game_id"`
	GameDate      string            `json:"game_date"` // YYYY-MM-DD
	AwayTeam      string            `json:"away_team"`
	HomeTeam      string            `json:"home_team"`
	AwayAbbrev    string            `json:"away_abbrev"`
	HomeAbbrev    string            `json:"home_abbrev"`
	VegasFavorite *string           `json:"vegas_favorite,omitempty"`
	VegasSpread   *float64          `json:"vegas_spread,omitempty"`
	UniquePicks   int               `json:"unique_picks"`
	Predictions   []ModelPrediction `json:"predictions"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Validate checks the input contract: game identity, both teams, and at
// least one (model, winner, confidence) tuple with confidence in (0, 100].
func (r *PredictionRecord) Validate() error {
	if r.GameID == "" {
		return fmt.Errorf("game_id is required")
	}
	if r.GameDate == "" {
		return fmt.Errorf("game_date is required")
	}
	if _, err := time.Parse("2006-01-02", r.GameDate); err != nil {
		return fmt.Errorf("game_date must be YYYY-MM-DD: %w", err)
	}
	if r.AwayTeam == "" || r.HomeTeam == "" {
		return fmt.Errorf("both away_team and home_team are required")
	}
	if r.AwayAbbrev == "" || r.HomeAbbrev == "" {
		return fmt.Errorf("both away_abbrev and home_abbrev are required")
	}
	if len(r.Predictions) == 0 {
		return fmt.Errorf("at least one model prediction is required")
	}
	for i, p := range r.Predictions {
		if p.ModelName == "" {
			return fmt.Errorf("prediction %d: model_name is required", i)
		}
		if p.PredictedWinner == "" {
			return fmt.Errorf("prediction %d: predicted_winner is required", i)
		}
		if p.Confidence <= 0 || p.Confidence > 100 {
			return fmt.Errorf("prediction %d: confidence %.1f outside (0, 100]", i, p.Confidence)
		}
	}
	return nil
}

// RenderResult is the structured outcome of one RenderJob. A failed render
// reports the stage it died in and why; it never propagates past the batch
// driver as an uncaught error.
type RenderResult struct {
	GameID       string      `json:"game_id"`
	Stage        RenderStage `json:"stage"`
	OutputPath   *string     `json:"output_path,omitempty"`
	DurationMs   *int        `json:"duration_ms,omitempty"`
	SegmentCount int         `json:"segment_count"`
	Script       string      `json:"script,omitempty"`
	Reason       *string     `json:"reason,omitempty"`
}

// Succeeded reports whether the render reached Done.
func (r RenderResult) Succeeded() bool {
	return r.Stage == StageDone
}

// ContentLog records one published video, mirroring what the output
// directory holds.
type ContentLog struct {
	ID        uuid.UUID `json:"id"`
	GameID    string    `json:"game_id"`
	VideoPath string    `json:"video_path"`
	Script    string    `json:"script"`
	CreatedAt time.Time `json:"created_at"`
}

type Job struct {
	ID           uuid.UUID  `json:"id"`
	GameID       *string    `json:"game_id,omitempty"` // nil for batch jobs
	Type         string     `json:"type"`
	Status       JobStatus  `json:"status"`
	Attempts     int        `json:"attempts"`
	Stage        *string    `json:"stage,omitempty"` // failing stage for failed render jobs
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DTOs for API requests/responses

type BatchRequest struct {
	Date  string `json:"date"`            // YYYY-MM-DD; empty = tomorrow
	Limit *int   `json:"limit,omitempty"` // videos per run; default from config
}

type RenderRequest struct {
	Record PredictionRecord `json:"record"`
}

type EnqueueResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status JobStatus `json:"status"`
}

type ListRendersResponse struct {
	Renders []ContentLog `json:"renders"`
	Total   int          `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}
