package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/hoopcast/hoopcast/internal/models"
)

// fakeStore serves canned matchups and records what the worker writes back.
type fakeStore struct {
	records  []models.PredictionRecord
	logged   []models.ContentLog
	failures map[uuid.UUID]string
}

func (f *fakeStore) ListInterestingMatchups(ctx context.Context, date string, limit, minPredictions int) ([]models.PredictionRecord, error) {
	if limit > len(f.records) {
		limit = len(f.records)
	}
	return f.records[:limit], nil
}

func (f *fakeStore) CreateContentLog(ctx context.Context, entry *models.ContentLog) error {
	f.logged = append(f.logged, *entry)
	return nil
}

func (f *fakeStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status models.JobStatus) error {
	return nil
}

func (f *fakeStore) UpdateJobFailure(ctx context.Context, id uuid.UUID, stage, errorMessage string) error {
	if f.failures == nil {
		f.failures = make(map[uuid.UUID]string)
	}
	f.failures[id] = errorMessage
	return nil
}

// scriptedPipeline succeeds every render except the listed game IDs.
type scriptedPipeline struct {
	failStage map[string]models.RenderStage
	rendered  []string
}

func (p *scriptedPipeline) Render(ctx context.Context, jobID string, record *models.PredictionRecord) models.RenderResult {
	p.rendered = append(p.rendered, record.GameID)
	if stage, ok := p.failStage[record.GameID]; ok {
		reason := "synthesis failed after 3 attempts"
		return models.RenderResult{GameID: record.GameID, Stage: stage, Reason: &reason}
	}
	out := "/videos/" + record.GameID + ".mp4"
	ms := 25000
	return models.RenderResult{
		GameID:       record.GameID,
		Stage:        models.StageDone,
		OutputPath:   &out,
		DurationMs:   &ms,
		SegmentCount: 12,
		Script:       "canned script",
	}
}

func batchRecords(n int) []models.PredictionRecord {
	records := make([]models.PredictionRecord, n)
	for i := range records {
		r := testRecord()
		r.GameID = fmt.Sprintf("002250%04d", i)
		records[i] = *r
	}
	return records
}

func TestRunBatchContinuesPastFailedRender(t *testing.T) {
	store := &fakeStore{records: batchRecords(5)}
	pipeline := &scriptedPipeline{
		failStage: map[string]models.RenderStage{
			store.records[2].GameID: models.StageSynthesizing,
		},
	}
	w := New(store, nil, pipeline, 5, 1)

	results := w.RunBatch(context.Background(), "2025-01-11", 5)

	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if len(pipeline.rendered) != 5 {
		t.Errorf("a failed render should not stop the batch, attempted %d of 5", len(pipeline.rendered))
	}
	for i, r := range results {
		if i == 2 {
			if r.Succeeded() {
				t.Errorf("result %d should have failed", i)
			}
			if r.Stage != models.StageSynthesizing {
				t.Errorf("result %d failed at %q, want %q", i, r.Stage, models.StageSynthesizing)
			}
			continue
		}
		if !r.Succeeded() {
			t.Errorf("result %d should have succeeded, stage %q", i, r.Stage)
		}
	}
	if len(store.logged) != 4 {
		t.Errorf("expected 4 content log entries, got %d", len(store.logged))
	}
}

func TestRunBatchStopsOnCancelledContext(t *testing.T) {
	store := &fakeStore{records: batchRecords(3)}
	pipeline := &scriptedPipeline{}
	w := New(store, nil, pipeline, 3, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := w.RunBatch(ctx, "2025-01-11", 3)
	if len(results) != 0 {
		t.Errorf("cancelled batch should attempt no renders, got %d", len(results))
	}
}

func TestRunBatchDefaultsLimit(t *testing.T) {
	store := &fakeStore{records: batchRecords(4)}
	pipeline := &scriptedPipeline{}
	w := New(store, nil, pipeline, 2, 1)

	results := w.RunBatch(context.Background(), "2025-01-11", 0)
	if len(results) != 2 {
		t.Errorf("limit 0 should fall back to the configured batch limit, got %d results", len(results))
	}
}
