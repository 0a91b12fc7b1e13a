package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Edge TTS bridge
// Talks to a local edge-tts HTTP bridge. Free tier, no word timings — the
// pipeline estimates timings from the script when this provider is active.
// ---------------------------------------------------------------------------

type EdgeTTSService struct {
	baseURL string
	voice   string
	client  *http.Client
}

var _ Synthesizer = (*EdgeTTSService)(nil)

func NewEdgeTTSService(baseURL, voice string) *EdgeTTSService {
	return &EdgeTTSService{
		baseURL: strings.TrimRight(baseURL, "/"),
		voice:   voice,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *EdgeTTSService) Name() string { return "edge" }

type edgeTTSRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Rate  string `json:"rate"`
	Pitch string `json:"pitch"`
}

// Synthesize requests MP3 audio from the bridge. The slight rate bump keeps
// a 60-70 word script under the short-video length target.
func (s *EdgeTTSService) Synthesize(ctx context.Context, text string) (*SpeechResult, error) {
	reqBody := edgeTTSRequest{
		Text:  text,
		Voice: s.voice,
		Rate:  "+10%",
		Pitch: "+0Hz",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/tts", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("edge-tts bridge returned status %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audioData) == 0 {
		return nil, fmt.Errorf("edge-tts bridge returned empty audio")
	}

	log.Printf("[EdgeTTS] Synthesized %d bytes (voice=%s)", len(audioData), s.voice)

	// No timing data from this provider; callers estimate from the script.
	return &SpeechResult{AudioData: audioData, Format: "mp3"}, nil
}
