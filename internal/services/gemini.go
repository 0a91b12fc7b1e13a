package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/hoopcast/hoopcast/internal/models"
)

// ---------------------------------------------------------------------------
// Gemini script backend
// Alternate script drafter using the Google Gen AI SDK. Selected via
// SCRIPT_BACKEND=gemini; the deterministic template remains the fallback.
// ---------------------------------------------------------------------------

const defaultGeminiScriptModel = "gemini-2.5-flash"

type GeminiScriptService struct {
	apiKey string
	model  string
}

var _ ScriptBackend = (*GeminiScriptService)(nil)

func NewGeminiScriptService(apiKey, model string) *GeminiScriptService {
	if model == "" {
		model = defaultGeminiScriptModel
	}
	return &GeminiScriptService{apiKey: apiKey, model: model}
}

func (s *GeminiScriptService) Name() string { return "gemini" }

func (s *GeminiScriptService) DraftScript(ctx context.Context, record *models.PredictionRecord, minWords, maxWords int) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	prompt := fmt.Sprintf(`Write a voiceover script for a short vertical sports video about AI model predictions for an NBA game.

Rules:
- Between %d and %d words. Hard limit.
- Plain spoken text only: no emojis, no markdown, no stage directions, no quotes.
- Open with a punchy hook, then the matchup, then each model's pick with its confidence, then a call to action asking viewers for their own pick.
- Numbers written so a TTS engine reads them naturally ("72 percent", never "72%%").
- Energetic but factual. Never invent predictions that are not in the data.

Matchup data:
%s`, minWords, maxWords, string(recordJSON))

	resp, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	script := strings.TrimSpace(resp.Text())
	if script == "" {
		return "", fmt.Errorf("gemini returned empty script")
	}
	log.Printf("[Gemini] Drafted script for %s (%d words)", record.GameID, WordCount(script))
	return script, nil
}
