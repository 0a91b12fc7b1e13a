package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hoopcast/hoopcast/internal/models"
)

// ---------------------------------------------------------------------------
// OpenAI script backend + Whisper transcription
// ---------------------------------------------------------------------------

const scriptModel = openai.GPT4o

type OpenAIService struct {
	client *openai.Client
}

var _ ScriptBackend = (*OpenAIService)(nil)

func NewOpenAIService(apiKey string) *OpenAIService {
	return &OpenAIService{client: openai.NewClient(apiKey)}
}

func (s *OpenAIService) Name() string { return "openai" }

// DraftScript asks the model for an energetic voiceover script for the
// matchup, constrained to the word bounds.
func (s *OpenAIService) DraftScript(ctx context.Context, record *models.PredictionRecord, minWords, maxWords int) (string, error) {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	systemPrompt := fmt.Sprintf(`You write voiceover scripts for short vertical sports videos about AI model predictions for NBA games.

Rules:
- Between %d and %d words. Hard limit.
- Plain spoken text only: no emojis, no markdown, no stage directions, no quotes.
- Open with a punchy hook, then the matchup, then each model's pick with its confidence, then a call to action asking viewers for their own pick.
- Numbers written so a TTS engine reads them naturally ("72 percent", never "72%%").
- Energetic but factual. Never invent predictions that are not in the data.`, minWords, maxWords)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: scriptModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Write the script for this matchup:\n%s", string(recordJSON))},
		},
		Temperature: 0.8,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	script := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Printf("[OpenAI] Drafted script for %s (%d words)", record.GameID, WordCount(script))
	return script, nil
}

// TranscribeAudio runs Whisper with word-level timestamps over a synthesized
// audio file. Optional path: only used to cross-check provider timings.
func (s *OpenAIService) TranscribeAudio(ctx context.Context, audioPath string) ([]WordTimestamp, error) {
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	words := make([]WordTimestamp, 0, len(resp.Words))
	for _, w := range resp.Words {
		words = append(words, WordTimestamp{Word: w.Word, Start: w.Start, End: w.End})
	}
	log.Printf("[OpenAI] Transcribed %s: %d words", audioPath, len(words))
	return words, nil
}
