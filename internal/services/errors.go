package services

import "fmt"

// CompositionError indicates the prediction record cannot produce a usable
// script — missing teams, empty prediction panel, unusable template output.
// It is not retryable: the input itself is at fault.
type CompositionError struct {
	GameID string
	Reason string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("composition failed for game %s: %s", e.GameID, e.Reason)
}

// SynthesisError indicates the speech provider could not produce audio
// after the configured number of attempts.
type SynthesisError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed (provider=%s, attempts=%d): %v", e.Provider, e.Attempts, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// EncodingError indicates an ffmpeg/ffprobe invocation failed while
// assembling the final video.
type EncodingError struct {
	Step string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding failed at step %q: %v", e.Step, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
