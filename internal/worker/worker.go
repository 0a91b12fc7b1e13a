package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hoopcast/hoopcast/internal/models"
	"github.com/hoopcast/hoopcast/internal/queue"
)

// ---------------------------------------------------------------------------
// Worker
// Consumes render and batch jobs from Redis. Jobs are processed one at a
// time: the footage cursor is single-writer, and the encodes saturate the
// machine anyway.
// ---------------------------------------------------------------------------

const dequeueTimeout = 2 * time.Second

// Store is the persistence surface the worker touches: matchup listing,
// job bookkeeping, and the content log. *db.DB satisfies it.
type Store interface {
	ListInterestingMatchups(ctx context.Context, date string, limit, minPredictions int) ([]models.PredictionRecord, error)
	CreateContentLog(ctx context.Context, entry *models.ContentLog) error
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error
	UpdateJobFailure(ctx context.Context, id uuid.UUID, stage, errorMessage string) error
}

// Pipeline renders one prediction record into a published video.
// *Renderer satisfies it.
type Pipeline interface {
	Render(ctx context.Context, jobID string, record *models.PredictionRecord) models.RenderResult
}

type Worker struct {
	store      Store
	queue      *queue.Queue
	renderer   Pipeline
	batchLimit int
	minPicks   int
}

func New(store Store, q *queue.Queue, renderer Pipeline, batchLimit, minPicks int) *Worker {
	return &Worker{
		store:      store,
		queue:      q,
		renderer:   renderer,
		batchLimit: batchLimit,
		minPicks:   minPicks,
	}
}

// Start blocks, alternating between the batch and render queues until the
// context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	log.Printf("[Worker] Started, watching %s and %s", queue.QueueBatch, queue.QueueRender)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Worker] Stopping: %v", ctx.Err())
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, queue.QueueBatch, dequeueTimeout)
		if err != nil {
			log.Printf("[Worker] Dequeue error on %s: %v", queue.QueueBatch, err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			job, err = w.queue.Dequeue(ctx, queue.QueueRender, dequeueTimeout)
			if err != nil {
				log.Printf("[Worker] Dequeue error on %s: %v", queue.QueueRender, err)
				time.Sleep(time.Second)
				continue
			}
		}
		if job == nil {
			continue
		}

		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) {
	log.Printf("[Worker] Processing %s job %s", job.Type, job.ID)
	if err := w.store.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning); err != nil {
		log.Printf("[Worker] Failed to mark job %s running: %v", job.ID, err)
	}

	switch job.Type {
	case "render":
		if job.Record == nil {
			w.failJob(ctx, job, "composing", "render job carries no prediction record")
			return
		}
		result := w.renderer.Render(ctx, job.ID.String(), job.Record)
		w.finishRender(ctx, job, result)

	case "batch":
		results := w.RunBatch(ctx, job.Date, job.Limit)
		succeeded := 0
		for _, r := range results {
			if r.Succeeded() {
				succeeded++
			}
		}
		if succeeded == 0 && len(results) > 0 {
			w.failJob(ctx, job, "", fmt.Sprintf("all %d renders failed", len(results)))
			return
		}
		if err := w.store.UpdateJobStatus(ctx, job.ID, models.JobStatusSucceeded); err != nil {
			log.Printf("[Worker] Failed to mark job %s succeeded: %v", job.ID, err)
		}
		log.Printf("[Worker] Batch %s done: %d/%d videos published", job.ID, succeeded, len(results))

	default:
		w.failJob(ctx, job, "", fmt.Sprintf("unknown job type %q", job.Type))
	}
}

func (w *Worker) finishRender(ctx context.Context, job *queue.Job, result models.RenderResult) {
	if !result.Succeeded() {
		reason := "unknown"
		if result.Reason != nil {
			reason = *result.Reason
		}
		w.failJob(ctx, job, string(result.Stage), reason)
		return
	}

	w.logContent(ctx, result)
	if err := w.store.UpdateJobStatus(ctx, job.ID, models.JobStatusSucceeded); err != nil {
		log.Printf("[Worker] Failed to mark job %s succeeded: %v", job.ID, err)
	}
}

func (w *Worker) failJob(ctx context.Context, job *queue.Job, stage, reason string) {
	log.Printf("[Worker] Job %s failed (stage=%s): %s", job.ID, stage, reason)
	if err := w.store.UpdateJobFailure(ctx, job.ID, stage, reason); err != nil {
		log.Printf("[Worker] Failed to record failure for job %s: %v", job.ID, err)
	}
}

// RunBatch renders the most interesting matchups for a date, in order, and
// keeps going when an individual render fails. Returns one result per
// attempted matchup.
func (w *Worker) RunBatch(ctx context.Context, date string, limit int) []models.RenderResult {
	if limit <= 0 {
		limit = w.batchLimit
	}

	records, err := w.store.ListInterestingMatchups(ctx, date, limit, w.minPicks)
	if err != nil {
		log.Printf("[Worker] Failed to list matchups for %s: %v", date, err)
		return nil
	}
	if len(records) == 0 {
		log.Printf("[Worker] No matchups with predictions for %s", date)
		return nil
	}
	log.Printf("[Worker] Batch for %s: rendering %d matchups", date, len(records))

	results := make([]models.RenderResult, 0, len(records))
	for i := range records {
		if ctx.Err() != nil {
			log.Printf("[Worker] Batch cancelled after %d renders", len(results))
			break
		}
		record := &records[i]
		result := w.renderer.Render(ctx, fmt.Sprintf("batch-%s-%s", date, record.GameID), record)
		results = append(results, result)
		if result.Succeeded() {
			w.logContent(ctx, result)
		}
	}
	return results
}

func (w *Worker) logContent(ctx context.Context, result models.RenderResult) {
	if result.OutputPath == nil {
		return
	}
	entry := &models.ContentLog{
		ID:        uuid.New(),
		GameID:    result.GameID,
		VideoPath: *result.OutputPath,
		Script:    result.Script,
	}
	if err := w.store.CreateContentLog(ctx, entry); err != nil {
		log.Printf("[Worker] Failed to log content for %s: %v", result.GameID, err)
	}
}
