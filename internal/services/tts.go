package services

import (
	"context"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Speech synthesis
// Providers implement Synthesizer. ElevenLabs returns word timings with the
// audio; the edge-tts bridge returns audio only, in which case timings are
// estimated from the script text.
// ---------------------------------------------------------------------------

// WordTimestamp is a single word with its spoken time range in seconds.
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SpeechResult is the output of one synthesis call. Words may be empty when
// the provider has no timing data; callers recover via ReconcileTimings.
type SpeechResult struct {
	AudioData []byte
	Format    string // "mp3"
	Words     []WordTimestamp
}

// Synthesizer converts text to speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*SpeechResult, error)
	Name() string
}

// RetryingSynthesizer wraps a provider with exponential backoff. Exhausting
// the attempts yields a SynthesisError carrying the last provider error.
type RetryingSynthesizer struct {
	inner       Synthesizer
	maxAttempts int
}

func NewRetryingSynthesizer(inner Synthesizer, maxAttempts int) *RetryingSynthesizer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingSynthesizer{inner: inner, maxAttempts: maxAttempts}
}

func (r *RetryingSynthesizer) Name() string { return r.inner.Name() }

func (r *RetryingSynthesizer) Synthesize(ctx context.Context, text string) (*SpeechResult, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.inner.Synthesize(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < r.maxAttempts {
			delay := retryDelay(attempt)
			log.Printf("[TTS] %s attempt %d/%d failed, retrying in %v: %v", r.inner.Name(), attempt, r.maxAttempts, delay, err)
			select {
			case <-ctx.Done():
				return nil, &SynthesisError{Provider: r.inner.Name(), Attempts: attempt, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
	}
	return nil, &SynthesisError{Provider: r.inner.Name(), Attempts: r.maxAttempts, Err: lastErr}
}

// retryDelay returns an exponential backoff with jitter: 1s, 2s, 4s, ...
// plus up to 500ms of random jitter to avoid thundering retries.
func retryDelay(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
	return base + jitter
}

// ReconcileTimings returns one timestamp per script word covering exactly
// [0, audioDuration]. Provider timings are used when they line up with the
// script; any mismatch (count drift, non-monotonic times) falls back to a
// weighted estimate across the real audio duration, so captions always
// stay in sync even when the provider's alignment is junk.
func ReconcileTimings(script string, provided []WordTimestamp, audioDuration float64) []WordTimestamp {
	words := strings.Fields(script)
	if len(words) == 0 || audioDuration <= 0 {
		return nil
	}

	if len(provided) == len(words) && timingsUsable(provided, audioDuration) {
		out := make([]WordTimestamp, len(words))
		for i, w := range words {
			out[i] = WordTimestamp{Word: w, Start: provided[i].Start, End: provided[i].End}
		}
		// Providers sometimes report intervals that bleed into the next
		// word; clamp so the sequence stays non-overlapping.
		for i := 0; i < len(out)-1; i++ {
			if out[i].End > out[i+1].Start {
				out[i].End = out[i+1].Start
			}
		}
		// Stretch the tail so the last caption survives to the end of audio.
		out[len(out)-1].End = audioDuration
		return out
	}

	if len(provided) > 0 {
		log.Printf("[TTS] provider timings unusable (%d timings for %d words), estimating from text", len(provided), len(words))
	}
	return EstimateTimings(script, audioDuration)
}

func timingsUsable(ts []WordTimestamp, audioDuration float64) bool {
	prev := 0.0
	for _, t := range ts {
		if t.Start < prev-0.001 || t.End < t.Start || t.End > audioDuration+0.5 {
			return false
		}
		prev = t.Start
	}
	return true
}

// EstimateTimings distributes the audio duration across the script words
// proportionally to per-word weight. Longer words get more time, and words
// closing a sentence or a clause carry extra weight to absorb the pause
// the TTS engine inserts there.
func EstimateTimings(script string, audioDuration float64) []WordTimestamp {
	words := strings.Fields(script)
	if len(words) == 0 || audioDuration <= 0 {
		return nil
	}

	weights := make([]float64, len(words))
	total := 0.0
	for i, w := range words {
		weight := float64(len(strings.Trim(w, ".,!?;:")))
		if weight < 1 {
			weight = 1
		}
		if strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?") {
			weight += 3
		} else if strings.HasSuffix(w, ",") || strings.HasSuffix(w, ";") {
			weight += 1
		}
		weights[i] = weight
		total += weight
	}

	out := make([]WordTimestamp, len(words))
	cursor := 0.0
	for i, w := range words {
		dur := audioDuration * weights[i] / total
		out[i] = WordTimestamp{Word: w, Start: cursor, End: cursor + dur}
		cursor += dur
	}
	out[len(out)-1].End = audioDuration
	return out
}
