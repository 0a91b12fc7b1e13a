package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// OpenAI (LLM script backend + Whisper word timings)
	OpenAIKey string

	// Gemini (alternate LLM script backend)
	GeminiKey string

	// ScriptBackend selects the LLM that drafts voiceover scripts:
	// "openai", "gemini", or "" for the deterministic template composer only.
	ScriptBackend string

	// ElevenLabs (preferred TTS provider — returns word-level alignment)
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	// Edge TTS bridge (fallback provider — audio only, timings estimated)
	EdgeTTSURL   string
	EdgeTTSVoice string

	// Assets
	FootagePath string // fixed-length base highlight video
	LogosDir    string // team + model logo images
	OutputDir   string // finished videos land here
	TempDir     string // per-job scratch space

	// Script bounds — keeps synthesized audio near the ~25s target
	MinScriptWords int
	MaxScriptWords int

	// Caption constraints
	MaxCaptionChars   int
	MaxCaptionSeconds float64

	// Batch
	BatchLimit     int // videos per run
	MinPredictions int // records with fewer model picks are skipped
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		GeminiKey:          getEnv("GEMINI_API_KEY", ""),
		ScriptBackend:      getEnv("SCRIPT_BACKEND", ""),
		ElevenLabsKey:      getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:  getEnv("ELEVENLABS_VOICE_ID", ""),
		EdgeTTSURL:         getEnv("EDGE_TTS_URL", "http://localhost:5500"),
		EdgeTTSVoice:       getEnv("EDGE_TTS_VOICE", "en-US-GuyNeural"),
		FootagePath:        getEnv("FOOTAGE_PATH", "base_highlights/highlights.mp4"),
		LogosDir:           getEnv("LOGOS_DIR", "assets/logos"),
		OutputDir:          getEnv("OUTPUT_DIR", "output"),
		TempDir:            getEnv("TEMP_DIR", "/tmp/hoopcast"),
		MinScriptWords:     getEnvInt("MIN_SCRIPT_WORDS", 40),
		MaxScriptWords:     getEnvInt("MAX_SCRIPT_WORDS", 70),
		MaxCaptionChars:    getEnvInt("MAX_CAPTION_CHARS", 18),
		MaxCaptionSeconds:  getEnvFloat("MAX_CAPTION_SECONDS", 2.8),
		BatchLimit:         getEnvInt("BATCH_LIMIT", 3),
		MinPredictions:     getEnvInt("MIN_PREDICTIONS", 1),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// At least one TTS provider must be configured
	if cfg.ElevenLabsKey == "" && cfg.EdgeTTSURL == "" {
		return nil, fmt.Errorf("either ELEVENLABS_API_KEY or EDGE_TTS_URL is required for TTS")
	}

	switch cfg.ScriptBackend {
	case "":
		// deterministic template composer only
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("SCRIPT_BACKEND=openai requires OPENAI_API_KEY")
		}
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("SCRIPT_BACKEND=gemini requires GEMINI_API_KEY")
		}
	default:
		return nil, fmt.Errorf("SCRIPT_BACKEND must be openai, gemini, or empty (got %q)", cfg.ScriptBackend)
	}

	if cfg.MinScriptWords <= 0 || cfg.MaxScriptWords <= cfg.MinScriptWords {
		return nil, fmt.Errorf("script word bounds invalid: min=%d max=%d", cfg.MinScriptWords, cfg.MaxScriptWords)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
