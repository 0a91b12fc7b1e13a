package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hoopcast/hoopcast/internal/models"
)

func testRecord() *models.PredictionRecord {
	reasoning := "Better road record"
	return &models.PredictionRecord{
		GameID:     "0022500123",
		GameDate:   "2025-01-11",
		AwayTeam:   "Los Angeles Lakers",
		HomeTeam:   "Golden State Warriors",
		AwayAbbrev: "LAL",
		HomeAbbrev: "GSW",
		Predictions: []models.ModelPrediction{
			{ModelName: "GPT-4o", PredictedWinner: "Los Angeles Lakers", Confidence: 72, Reasoning: &reasoning},
			{ModelName: "Claude", PredictedWinner: "Golden State Warriors", Confidence: 65},
			{ModelName: "Gemini", PredictedWinner: "Los Angeles Lakers", Confidence: 58},
		},
	}
}

func testBounds() ScriptBounds {
	return ScriptBounds{MinWords: 40, MaxWords: 70}
}

func TestComposeDeterministic(t *testing.T) {
	c := NewComposer(testBounds(), nil)

	first, err := c.Compose(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	second, err := c.Compose(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	if first != second {
		t.Errorf("same record produced different scripts:\n%s\n%s", first, second)
	}
}

func TestComposeWithinBounds(t *testing.T) {
	bounds := testBounds()
	c := NewComposer(bounds, nil)

	script, err := c.Compose(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	n := WordCount(script)
	if n < bounds.MinWords || n > bounds.MaxWords {
		t.Errorf("script has %d words, want [%d, %d]:\n%s", n, bounds.MinWords, bounds.MaxWords, script)
	}
}

func TestComposeMentionsEveryModel(t *testing.T) {
	c := NewComposer(testBounds(), nil)
	record := testRecord()

	script, err := c.Compose(context.Background(), record)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	for _, p := range record.Predictions {
		if !strings.Contains(script, p.ModelName) {
			t.Errorf("script missing model %q:\n%s", p.ModelName, script)
		}
	}
	if !strings.Contains(script, record.AwayTeam) || !strings.Contains(script, record.HomeTeam) {
		t.Errorf("script missing a team name:\n%s", script)
	}
}

func TestComposeCrowdedPanelStaysBounded(t *testing.T) {
	bounds := testBounds()
	c := NewComposer(bounds, nil)
	record := testRecord()

	// Eight models forces the compact template.
	record.Predictions = nil
	for i := 0; i < 8; i++ {
		record.Predictions = append(record.Predictions, models.ModelPrediction{
			ModelName:       fmt.Sprintf("Model%d", i),
			PredictedWinner: "Los Angeles Lakers",
			Confidence:      60,
		})
	}

	script, err := c.Compose(context.Background(), record)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if n := WordCount(script); n > bounds.MaxWords {
		t.Errorf("crowded panel produced %d words, want <= %d", n, bounds.MaxWords)
	}
}

func TestComposeTrimmedScriptKeepsLowerBound(t *testing.T) {
	// Bounds narrow enough that even the compact template must be trimmed.
	bounds := ScriptBounds{MinWords: 12, MaxWords: 16}
	c := NewComposer(bounds, nil)
	record := testRecord()
	for i := 0; i < 6; i++ {
		record.Predictions = append(record.Predictions, models.ModelPrediction{
			ModelName:       fmt.Sprintf("Model%d", i),
			PredictedWinner: "Golden State Warriors",
			Confidence:      55,
		})
	}

	script, err := c.Compose(context.Background(), record)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	n := WordCount(script)
	if n < bounds.MinWords || n > bounds.MaxWords {
		t.Errorf("trimmed script has %d words, want [%d, %d]:\n%s", n, bounds.MinWords, bounds.MaxWords, script)
	}
}

func TestTrimToWords(t *testing.T) {
	s := "One two three. Four five six seven eight nine ten"

	// The sentence edge leaves only 3 words, below min 5, so the hard cut
	// at max words stands.
	if got := trimToWords(s, 5, 8); WordCount(got) != 8 {
		t.Errorf("expected hard cut to 8 words, got %d: %q", WordCount(got), got)
	}
	// With min 2 the sentence edge wins.
	if got := trimToWords(s, 2, 8); got != "One two three." {
		t.Errorf("expected sentence-edge cut, got %q", got)
	}
	// Short input passes through untouched.
	if got := trimToWords("short script", 1, 10); got != "short script" {
		t.Errorf("short input should pass through, got %q", got)
	}
}

func TestComposeInvalidRecord(t *testing.T) {
	c := NewComposer(testBounds(), nil)
	record := testRecord()
	record.Predictions = nil

	_, err := c.Compose(context.Background(), record)
	if err == nil {
		t.Fatal("expected error for record without predictions")
	}
	var compErr *CompositionError
	if !errors.As(err, &compErr) {
		t.Errorf("expected CompositionError, got %T: %v", err, err)
	}
}

func TestOutroReflectsAgreement(t *testing.T) {
	divided := testRecord()
	if !strings.Contains(outroLine(divided), "divided") {
		t.Errorf("split panel should get the divided outro, got %q", outroLine(divided))
	}

	unanimous := testRecord()
	for i := range unanimous.Predictions {
		unanimous.Predictions[i].PredictedWinner = "Los Angeles Lakers"
	}
	if !strings.Contains(outroLine(unanimous), "agrees") {
		t.Errorf("unanimous panel should get the agreement outro, got %q", outroLine(unanimous))
	}
}

func TestNormalizeSpeakable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"72% confidence", "72 percent confidence"},
		{"LAL @ GSW", "LAL at GSW"},
		{"a  b\t c", "a b c"},
	}
	for _, tt := range tests {
		if got := NormalizeSpeakable(tt.in); got != tt.want {
			t.Errorf("NormalizeSpeakable(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSpread(t *testing.T) {
	if got := formatSpread(7); got != "7" {
		t.Errorf("formatSpread(7) = %q, want 7", got)
	}
	if got := formatSpread(6.5); got != "6.5" {
		t.Errorf("formatSpread(6.5) = %q, want 6.5", got)
	}
}

// fakeBackend returns a canned draft or an error.
type fakeBackend struct {
	draft string
	err   error
}

func (f *fakeBackend) DraftScript(ctx context.Context, record *models.PredictionRecord, minWords, maxWords int) (string, error) {
	return f.draft, f.err
}

func (f *fakeBackend) Name() string { return "fake" }

func TestComposeBackendDraftOutOfBoundsFallsBack(t *testing.T) {
	c := NewComposer(testBounds(), &fakeBackend{draft: "way too short"})

	script, err := c.Compose(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if script == "way too short" {
		t.Error("out-of-bounds draft should have been discarded")
	}
	if n := WordCount(script); n < 40 {
		t.Errorf("fallback script has %d words, want >= 40", n)
	}
}

func TestComposeBackendErrorFallsBack(t *testing.T) {
	c := NewComposer(testBounds(), &fakeBackend{err: errors.New("rate limited")})

	script, err := c.Compose(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("compose should fall back on backend error, got: %v", err)
	}
	if WordCount(script) == 0 {
		t.Error("fallback produced empty script")
	}
}
