package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
	"unicode"
)

// ---------------------------------------------------------------------------
// ElevenLabs TTS
// Uses the with-timestamps endpoint so the character alignment can be
// folded into per-word timings for caption sync.
// ---------------------------------------------------------------------------

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

type ElevenLabsService struct {
	apiKey  string
	voiceID string
	client  *http.Client
}

var _ Synthesizer = (*ElevenLabsService)(nil)

func NewElevenLabsService(apiKey, voiceID string) *ElevenLabsService {
	return &ElevenLabsService{
		apiKey:  apiKey,
		voiceID: voiceID,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *ElevenLabsService) Name() string { return "elevenlabs" }

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsTimestampResponse struct {
	AudioBase64 string              `json:"audio_base64"`
	Alignment   elevenLabsAlignment `json:"alignment"`
}

type elevenLabsAlignment struct {
	Characters     []string  `json:"characters"`
	CharStartTimes []float64 `json:"character_start_times_seconds"`
	CharEndTimes   []float64 `json:"character_end_times_seconds"`
}

// Synthesize generates speech audio with character-level timestamps and
// folds them into word timings.
func (s *ElevenLabsService) Synthesize(ctx context.Context, text string) (*SpeechResult, error) {
	reqBody := elevenLabsRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.4,
			UseSpeakerBoost: true,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s/with-timestamps", elevenLabsBaseURL, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevenlabs returned status %d: %s", resp.StatusCode, string(body))
	}

	var tsResp elevenLabsTimestampResponse
	if err := json.NewDecoder(resp.Body).Decode(&tsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	audioData, err := base64.StdEncoding.DecodeString(tsResp.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}
	if len(audioData) == 0 {
		return nil, fmt.Errorf("elevenlabs returned empty audio")
	}

	words := foldCharAlignment(tsResp.Alignment)
	log.Printf("[ElevenLabs] Synthesized %d bytes, %d word timings", len(audioData), len(words))

	return &SpeechResult{AudioData: audioData, Format: "mp3", Words: words}, nil
}

// foldCharAlignment merges character-level timestamps into word timings.
// Whitespace characters delimit words; a word's span runs from its first
// character's start to its last character's end.
func foldCharAlignment(a elevenLabsAlignment) []WordTimestamp {
	n := len(a.Characters)
	if n == 0 || len(a.CharStartTimes) != n || len(a.CharEndTimes) != n {
		return nil
	}

	var words []WordTimestamp
	var current []byte
	start := 0.0
	for i := 0; i < n; i++ {
		ch := a.Characters[i]
		isSpace := len(ch) > 0 && unicode.IsSpace(rune(ch[0]))
		if isSpace {
			if len(current) > 0 {
				words = append(words, WordTimestamp{Word: string(current), Start: start, End: a.CharEndTimes[i-1]})
				current = nil
			}
			continue
		}
		if len(current) == 0 {
			start = a.CharStartTimes[i]
		}
		current = append(current, ch...)
	}
	if len(current) > 0 {
		words = append(words, WordTimestamp{Word: string(current), Start: start, End: a.CharEndTimes[n-1]})
	}
	return words
}
