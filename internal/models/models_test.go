package models

import (
	"strings"
	"testing"
)

func validRecord() PredictionRecord {
	return PredictionRecord{
		GameID:     "20250111-LAL-GSW",
		GameDate:   "2025-01-11",
		AwayTeam:   "Los Angeles Lakers",
		HomeTeam:   "Golden State Warriors",
		AwayAbbrev: "LAL",
		HomeAbbrev: "GSW",
		Predictions: []ModelPrediction{
			{ModelName: "ChatGPT", PredictedWinner: "Lakers", Confidence: 75},
		},
	}
}

func TestPredictionRecordValidate(t *testing.T) {
	r := validRecord()
	if err := r.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
}

func TestPredictionRecordValidateMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PredictionRecord)
		wantSub string
	}{
		{"no game id", func(r *PredictionRecord) { r.GameID = "" }, "game_id"},
		{"bad date", func(r *PredictionRecord) { r.GameDate = "01/11/2025" }, "YYYY-MM-DD"},
		{"no home team", func(r *PredictionRecord) { r.HomeTeam = "" }, "home_team"},
		{"no abbrev", func(r *PredictionRecord) { r.AwayAbbrev = "" }, "abbrev"},
		{"no predictions", func(r *PredictionRecord) { r.Predictions = nil }, "at least one"},
		{"zero confidence", func(r *PredictionRecord) { r.Predictions[0].Confidence = 0 }, "confidence"},
		{"confidence over 100", func(r *PredictionRecord) { r.Predictions[0].Confidence = 101 }, "confidence"},
		{"no winner", func(r *PredictionRecord) { r.Predictions[0].PredictedWinner = "" }, "predicted_winner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			err := r.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestRenderStages(t *testing.T) {
	stages := []RenderStage{
		StageComposing,
		StageSynthesizing,
		StageAligning,
		StageAllocating,
		StageCompositing,
		StageDone,
	}

	for _, stage := range stages {
		if stage == "" {
			t.Errorf("empty stage found")
		}
	}
}

func TestRenderResultSucceeded(t *testing.T) {
	if (RenderResult{Stage: StageSynthesizing}).Succeeded() {
		t.Error("failed render reported as succeeded")
	}
	if !(RenderResult{Stage: StageDone}).Succeeded() {
		t.Error("done render reported as failed")
	}
}
