package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hoopcast/hoopcast/internal/models"
	"github.com/hoopcast/hoopcast/internal/services"
	"github.com/hoopcast/hoopcast/internal/storage"
)

// ---------------------------------------------------------------------------
// Render pipeline
// A render walks the stages compose → synthesize → align → allocate →
// composite. Failures are captured in the RenderResult with the stage they
// happened in; only the footage cursor commit runs after publish.
// ---------------------------------------------------------------------------

// Padding appended to the narration length when cutting footage, so the
// video never freezes on the last frame before the audio ends.
const footagePaddingSec = 0.5

// Transcriber recovers word timings from synthesized audio when the TTS
// provider returns none.
type Transcriber interface {
	TranscribeAudio(ctx context.Context, audioPath string) ([]services.WordTimestamp, error)
}

// Renderer owns the per-video pipeline. It is not safe for concurrent use:
// the footage allocator requires one render at a time.
type Renderer struct {
	composer    *services.Composer
	synth       services.Synthesizer
	ffmpeg      *services.FFmpegService
	allocator   *services.FootageAllocator
	assets      *services.AssetLibrary
	store       *storage.OutputStore
	captionCfg  services.CaptionConfig
	transcriber Transcriber
}

func NewRenderer(
	composer *services.Composer,
	synth services.Synthesizer,
	ffmpeg *services.FFmpegService,
	allocator *services.FootageAllocator,
	assets *services.AssetLibrary,
	store *storage.OutputStore,
	captionCfg services.CaptionConfig,
) *Renderer {
	return &Renderer{
		composer:   composer,
		synth:      synth,
		ffmpeg:     ffmpeg,
		allocator:  allocator,
		assets:     assets,
		store:      store,
		captionCfg: captionCfg,
	}
}

// WithTranscriber enables Whisper timing recovery for providers that return
// audio without word alignment.
func (r *Renderer) WithTranscriber(t Transcriber) *Renderer {
	r.transcriber = t
	return r
}

// Render produces one video for a prediction record. jobID keys the scratch
// directory. The returned result always carries the stage reached; errors
// never escape as panics or returned errors.
func (r *Renderer) Render(ctx context.Context, jobID string, record *models.PredictionRecord) models.RenderResult {
	result := models.RenderResult{GameID: record.GameID, Stage: models.StageComposing}

	fail := func(stage models.RenderStage, err error) models.RenderResult {
		reason := err.Error()
		result.Stage = stage
		result.Reason = &reason
		log.Printf("[Render] %s failed at %s: %v", record.GameID, stage, err)
		return result
	}

	tempDir, err := r.store.JobTempDir(jobID)
	if err != nil {
		return fail(models.StageComposing, err)
	}
	defer r.store.CleanupJob(jobID)

	// Compose
	script, err := r.composer.Compose(ctx, record)
	if err != nil {
		return fail(models.StageComposing, err)
	}
	result.Script = script
	log.Printf("[Render] %s script ready (%d words)", record.GameID, services.WordCount(script))

	if err := ctx.Err(); err != nil {
		return fail(models.StageSynthesizing, err)
	}

	// Synthesize
	speech, err := r.synth.Synthesize(ctx, script)
	if err != nil {
		return fail(models.StageSynthesizing, err)
	}
	audioPath := filepath.Join(tempDir, "narration.mp3")
	if err := os.WriteFile(audioPath, speech.AudioData, 0644); err != nil {
		return fail(models.StageSynthesizing, fmt.Errorf("failed to write narration: %w", err))
	}
	audioMs, err := r.ffmpeg.GetAudioDuration(ctx, audioPath)
	if err != nil {
		return fail(models.StageSynthesizing, err)
	}
	audioSec := float64(audioMs) / 1000.0
	log.Printf("[Render] %s narration synthesized (%.2fs)", record.GameID, audioSec)

	if err := ctx.Err(); err != nil {
		return fail(models.StageAligning, err)
	}

	// Align
	providerWords := speech.Words
	if len(providerWords) == 0 && r.transcriber != nil {
		tw, err := r.transcriber.TranscribeAudio(ctx, audioPath)
		if err != nil {
			log.Printf("[Render] %s transcription fallback failed, estimating timings: %v", record.GameID, err)
		} else {
			providerWords = tw
		}
	}
	words := services.ReconcileTimings(script, providerWords, audioSec)
	modelNames := make([]string, len(record.Predictions))
	for i, p := range record.Predictions {
		modelNames[i] = p.ModelName
	}
	segments := services.BuildCaptionTrack(words, audioSec, r.captionCfg, modelNames)
	captionPath := filepath.Join(tempDir, "captions.ass")
	if err := services.GenerateASSCaptions(segments, captionPath); err != nil {
		return fail(models.StageAligning, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(models.StageAllocating, err)
	}

	// Allocate footage
	window, err := r.allocator.Allocate(ctx, audioSec+footagePaddingSec)
	if err != nil {
		return fail(models.StageAllocating, err)
	}
	result.SegmentCount = len(window.Slices)

	if err := ctx.Err(); err != nil {
		return fail(models.StageCompositing, err)
	}

	// Composite
	clipPath := filepath.Join(tempDir, "footage.mp4")
	if err := r.ffmpeg.ExtractWindow(ctx, r.allocator.AssetPath(), window, clipPath); err != nil {
		return fail(models.StageCompositing, err)
	}

	overlays, showVS := r.buildOverlays(record, words, modelNames)

	outputName, err := r.store.NextOutputName(record.GameDate, record.AwayAbbrev, record.HomeAbbrev)
	if err != nil {
		return fail(models.StageCompositing, err)
	}
	renderedPath := filepath.Join(tempDir, "final.mp4")
	if err := r.ffmpeg.Compose(ctx, services.CompositionInput{
		ClipPath:    clipPath,
		AudioPath:   audioPath,
		CaptionPath: captionPath,
		Overlays:    overlays,
		ShowVS:      showVS,
		DurationSec: audioSec,
		OutputPath:  renderedPath,
	}); err != nil {
		return fail(models.StageCompositing, err)
	}

	durationMs, err := r.ffmpeg.GetVideoDuration(ctx, renderedPath)
	if err != nil {
		return fail(models.StageCompositing, err)
	}

	finalPath, err := r.store.Publish(renderedPath, outputName)
	if err != nil {
		return fail(models.StageCompositing, err)
	}

	// The cursor only advances once the video is on disk; a commit failure
	// means the next render reuses this window, which is harmless.
	if err := r.allocator.Commit(ctx); err != nil {
		log.Printf("[Render] %s cursor commit failed (window will be reused): %v", record.GameID, err)
	}

	result.Stage = models.StageDone
	result.OutputPath = &finalPath
	result.DurationMs = &durationMs
	log.Printf("[Render] %s published %s (%.2fs, %d footage slices)", record.GameID, finalPath, float64(durationMs)/1000, result.SegmentCount)
	return result
}

// buildOverlays assembles the logo plan: both team logos pinned to the
// opening seconds, plus each mentioned model's logo anchored to the moment
// its name is spoken. The VS marker only draws when both team logos exist.
func (r *Renderer) buildOverlays(record *models.PredictionRecord, words []services.WordTimestamp, modelNames []string) ([]services.LogoOverlay, bool) {
	var overlays []services.LogoOverlay

	awayLogo, awayOK := r.assets.TeamLogo(record.AwayAbbrev)
	homeLogo, homeOK := r.assets.TeamLogo(record.HomeAbbrev)
	if awayOK {
		overlays = append(overlays, services.LogoOverlay{
			Path: awayLogo, Width: 320, X: "60", Y: "340", Start: 0, End: 6,
		})
	}
	if homeOK {
		overlays = append(overlays, services.LogoOverlay{
			Path: homeLogo, Width: 320, X: "W-w-60", Y: "340", Start: 0, End: 6,
		})
	}

	for _, m := range r.assets.ModelMentions(words, modelNames) {
		overlays = append(overlays, services.LogoOverlay{
			Path:  m.LogoPath,
			Width: 240,
			X:     "(W-w)/2",
			Y:     "H-h-260",
			Start: m.Start,
			End:   m.End,
		})
	}

	return overlays, awayOK && homeOK
}
