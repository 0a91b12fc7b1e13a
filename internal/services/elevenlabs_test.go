package services

import "testing"

func TestFoldCharAlignment(t *testing.T) {
	// "hi yo" spelled out character by character
	a := elevenLabsAlignment{
		Characters:     []string{"h", "i", " ", "y", "o"},
		CharStartTimes: []float64{0.0, 0.1, 0.2, 0.3, 0.4},
		CharEndTimes:   []float64{0.1, 0.2, 0.3, 0.4, 0.5},
	}

	words := foldCharAlignment(a)
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0].Word != "hi" || words[0].Start != 0.0 || words[0].End != 0.2 {
		t.Errorf("unexpected first word: %+v", words[0])
	}
	if words[1].Word != "yo" || words[1].Start != 0.3 || words[1].End != 0.5 {
		t.Errorf("unexpected second word: %+v", words[1])
	}
}

func TestFoldCharAlignmentTrailingSpaces(t *testing.T) {
	a := elevenLabsAlignment{
		Characters:     []string{" ", "a", " ", " "},
		CharStartTimes: []float64{0, 0.1, 0.2, 0.3},
		CharEndTimes:   []float64{0.1, 0.2, 0.3, 0.4},
	}

	words := foldCharAlignment(a)
	if len(words) != 1 {
		t.Fatalf("expected 1 word, got %d", len(words))
	}
	if words[0].Word != "a" {
		t.Errorf("unexpected word: %+v", words[0])
	}
}

func TestFoldCharAlignmentMismatchedLengths(t *testing.T) {
	a := elevenLabsAlignment{
		Characters:     []string{"a", "b"},
		CharStartTimes: []float64{0},
		CharEndTimes:   []float64{0.1},
	}
	if words := foldCharAlignment(a); words != nil {
		t.Errorf("expected nil for mismatched alignment, got %v", words)
	}
}
