package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoopcast/hoopcast/internal/api"
	"github.com/hoopcast/hoopcast/internal/config"
	"github.com/hoopcast/hoopcast/internal/db"
	"github.com/hoopcast/hoopcast/internal/queue"
	"github.com/hoopcast/hoopcast/internal/services"
	"github.com/hoopcast/hoopcast/internal/storage"
	"github.com/hoopcast/hoopcast/internal/worker"
)

func main() {
	log.Println("Starting Hoopcast...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database")

	if err := database.EnsureSchema(); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Create API handler
	handler := api.NewHandler(database, q)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCtx context.Context
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		ffmpegSvc := services.NewFFmpegService(cfg.TempDir)
		if err := ffmpegSvc.Preflight(); err != nil {
			log.Fatalf("ffmpeg preflight failed: %v", err)
		}

		// Script backend — template-only unless an LLM is configured
		var backend services.ScriptBackend
		var openaiSvc *services.OpenAIService
		switch cfg.ScriptBackend {
		case "openai":
			openaiSvc = services.NewOpenAIService(cfg.OpenAIKey)
			backend = openaiSvc
			log.Println("Script backend: OpenAI")
		case "gemini":
			backend = services.NewGeminiScriptService(cfg.GeminiKey, "")
			log.Println("Script backend: Gemini")
		default:
			log.Println("Script backend: deterministic template")
		}
		composer := services.NewComposer(services.ScriptBounds{
			MinWords: cfg.MinScriptWords,
			MaxWords: cfg.MaxScriptWords,
		}, backend)

		// TTS provider — ElevenLabs preferred (word timings), edge-tts fallback
		var synth services.Synthesizer
		if cfg.ElevenLabsKey != "" {
			synth = services.NewElevenLabsService(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
			log.Printf("TTS provider: ElevenLabs (voice: %s)", cfg.ElevenLabsVoiceID)
		} else {
			synth = services.NewEdgeTTSService(cfg.EdgeTTSURL, cfg.EdgeTTSVoice)
			log.Printf("TTS provider: edge-tts bridge (voice: %s)", cfg.EdgeTTSVoice)
		}
		retrying := services.NewRetryingSynthesizer(synth, 3)

		// Probe the base footage once at startup so a missing or broken
		// asset fails fast rather than mid-batch.
		probeCtx, probeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		footageMs, err := ffmpegSvc.GetVideoDuration(probeCtx, cfg.FootagePath)
		probeCancel()
		if err != nil {
			log.Fatalf("Failed to probe footage asset %s: %v", cfg.FootagePath, err)
		}
		allocator, err := services.NewFootageAllocator(cfg.FootagePath, float64(footageMs)/1000.0, database)
		if err != nil {
			log.Fatalf("Failed to create footage allocator: %v", err)
		}
		log.Printf("Footage asset: %s (%.1fs)", cfg.FootagePath, float64(footageMs)/1000.0)

		assets := services.NewAssetLibrary(cfg.LogosDir)
		if err := assets.Preflight(); err != nil {
			log.Printf("WARNING: %v — logo overlays will be skipped", err)
		}

		store, err := storage.New(cfg.OutputDir, cfg.TempDir)
		if err != nil {
			log.Fatalf("Failed to initialize output store: %v", err)
		}

		renderer := worker.NewRenderer(composer, retrying, ffmpegSvc, allocator, assets, store, services.CaptionConfig{
			MaxChars:   cfg.MaxCaptionChars,
			MaxSeconds: cfg.MaxCaptionSeconds,
		})

		// Whisper recovers word timings when the TTS provider has none
		// (the edge-tts bridge returns bare audio).
		if openaiSvc == nil && cfg.OpenAIKey != "" {
			openaiSvc = services.NewOpenAIService(cfg.OpenAIKey)
		}
		if openaiSvc != nil {
			renderer.WithTranscriber(openaiSvc)
			log.Println("Whisper timing recovery enabled")
		}
		w := worker.New(database, q, renderer, cfg.BatchLimit, cfg.MinPredictions)

		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
