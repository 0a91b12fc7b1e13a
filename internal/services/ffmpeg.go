package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Output / rendering constants — portrait 1080x1920 at 30fps
const (
	outputWidth  = 1080
	outputHeight = 1920
	videoFPS     = 30

	// Team logos and the VS marker show during the opening seconds.
	matchupOverlayEnd = 6.0
)

// ---------------------------------------------------------------------------
// FFmpegService
// Wraps the ffmpeg/ffprobe binaries for footage extraction, probing, and
// final assembly (captions burned in, logo overlays, narration mux).
// ---------------------------------------------------------------------------

type FFmpegService struct {
	tempDir string
}

func NewFFmpegService(tempDir string) *FFmpegService {
	// Create temp directory if it doesn't exist
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		panic(fmt.Sprintf("failed to create temp dir: %v", err))
	}

	return &FFmpegService{
		tempDir: tempDir,
	}
}

// Preflight verifies the ffmpeg and ffprobe binaries are on PATH.
func (s *FFmpegService) Preflight() error {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found on PATH: %w", bin, err)
		}
	}
	return nil
}

// ExtractWindow cuts the footage window out of the base asset, cropping and
// scaling it to the portrait output format. A wrapped window (two slices)
// is extracted piecewise and stitched with the concat demuxer.
func (s *FFmpegService) ExtractWindow(ctx context.Context, assetPath string, window FootageWindow, outputPath string) error {
	if len(window.Slices) == 0 {
		return &EncodingError{Step: "extract", Err: fmt.Errorf("empty footage window")}
	}

	if len(window.Slices) == 1 {
		return s.extractSlice(ctx, assetPath, window.Slices[0], outputPath)
	}

	// Wrapped window: extract both slices in parallel, then stitch.
	partPaths := make([]string, len(window.Slices))
	g, gctx := errgroup.WithContext(ctx)
	for i, slice := range window.Slices {
		i, slice := i, slice
		partPaths[i] = s.CreateTempFile(fmt.Sprintf("window_part_%d.mp4", i))
		g.Go(func() error {
			return s.extractSlice(gctx, assetPath, slice, partPaths[i])
		})
	}
	if err := g.Wait(); err != nil {
		s.Cleanup(partPaths...)
		return err
	}
	defer s.Cleanup(partPaths...)

	log.Printf("[FFmpeg] Stitching wrapped footage window (%d slices)", len(window.Slices))
	return s.concatenateClips(ctx, partPaths, outputPath)
}

// extractSlice re-encodes one contiguous run of the asset into the portrait
// frame: center crop to 9:16, scale to 1080x1920, constant 30fps, no audio.
func (s *FFmpegService) extractSlice(ctx context.Context, assetPath string, slice FootageSlice, outputPath string) error {
	vf := fmt.Sprintf("crop=ih*9/16:ih,scale=%d:%d,fps=%d", outputWidth, outputHeight, videoFPS)

	args := []string{
		"-ss", fmt.Sprintf("%.3f", slice.Offset),
		"-t", fmt.Sprintf("%.3f", slice.Duration),
		"-i", assetPath,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-an", // narration is muxed in later
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return &EncodingError{Step: "extract", Err: fmt.Errorf("ffmpeg extract slice (offset=%.2f dur=%.2f) failed: %w", slice.Offset, slice.Duration, err)}
	}
	return nil
}

// concatenateClips combines video clips losslessly with the concat demuxer.
func (s *FFmpegService) concatenateClips(ctx context.Context, clipPaths []string, outputPath string) error {
	listPath := filepath.Join(s.tempDir, "concat_list.txt")
	if err := writeConcatList(listPath, clipPaths); err != nil {
		return &EncodingError{Step: "concat", Err: err}
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return &EncodingError{Step: "concat", Err: fmt.Errorf("ffmpeg concatenate failed: %w", err)}
	}
	return nil
}

// writeConcatList writes the concat demuxer input file. A partial write
// here would otherwise surface as an opaque demuxer failure, so the write
// error is checked before ffmpeg ever runs.
func writeConcatList(listPath string, clipPaths []string) error {
	var b strings.Builder
	for _, path := range clipPaths {
		fmt.Fprintf(&b, "file '%s'\n", path)
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	return nil
}

// LogoOverlay places a transparent PNG over the video for a time window.
// X and Y are ffmpeg overlay expressions so positions like "W-w-60" work.
type LogoOverlay struct {
	Path  string
	Width int
	X     string
	Y     string
	Start float64
	End   float64
}

// CompositionInput carries everything Compose needs to assemble the final
// video from the extracted footage clip.
type CompositionInput struct {
	ClipPath    string
	AudioPath   string
	CaptionPath string
	Overlays    []LogoOverlay
	ShowVS      bool // draw the "VS" marker between the team logos
	DurationSec float64
	OutputPath  string
}

// Compose burns the captions into the footage clip, applies the logo
// overlays, muxes the narration, and trims the result to the audio length
// (one frame of slack). Output is H.264 + AAC.
func (s *FFmpegService) Compose(ctx context.Context, in CompositionInput) error {
	chain := "[0:v]"
	if in.CaptionPath != "" {
		chain += fmt.Sprintf("ass='%s'", escapeFFmpegFilterPath(in.CaptionPath))
	} else {
		chain += "null"
	}

	if in.ShowVS {
		chain += fmt.Sprintf(
			",drawtext=text='VS':fontsize=110:fontcolor=white:borderw=8:bordercolor=black:x=(w-text_w)/2:y=420:enable='between(t,0,%g)'",
			matchupOverlayEnd,
		)
	}

	filters := []string{chain + "[v0]"}
	prev := "v0"
	for i, ov := range in.Overlays {
		inputIdx := i + 2 // 0 is the clip, 1 is the audio
		scaled := fmt.Sprintf("lg%d", i)
		next := fmt.Sprintf("v%d", i+1)
		filters = append(filters, fmt.Sprintf("[%d:v]scale=%d:-1[%s]", inputIdx, ov.Width, scaled))
		filters = append(filters, fmt.Sprintf(
			"[%s][%s]overlay=%s:%s:enable='between(t,%.2f,%.2f)'[%s]",
			prev, scaled, ov.X, ov.Y, ov.Start, ov.End, next,
		))
		prev = next
	}
	filterComplex := strings.Join(filters, ";")

	args := []string{
		"-i", in.ClipPath,
		"-i", in.AudioPath,
	}
	for _, ov := range in.Overlays {
		args = append(args, "-i", ov.Path)
	}
	args = append(args,
		"-filter_complex", filterComplex,
		"-map", "["+prev+"]",
		"-map", "1:a",
		"-c:v", "libx264",
		"-preset", "medium",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", videoFPS),
		// Trim to the narration length plus one frame of slack.
		"-t", fmt.Sprintf("%.3f", in.DurationSec+1.0/videoFPS),
		"-y",
		in.OutputPath,
	)

	log.Printf("[FFmpeg] Composing final video (overlays=%d, duration=%.2fs)", len(in.Overlays), in.DurationSec)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return &EncodingError{Step: "compose", Err: fmt.Errorf("ffmpeg compose failed: %w", err)}
	}
	return nil
}

// escapeFFmpegFilterPath escapes special characters in file paths for FFmpeg filter syntax.
// FFmpeg filter strings treat colons, backslashes, and single quotes specially.
func escapeFFmpegFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}

// GetAudioDuration returns the duration of an audio file in milliseconds.
func (s *FFmpegService) GetAudioDuration(ctx context.Context, audioPath string) (int, error) {
	return s.probeDurationMs(ctx, audioPath)
}

// GetVideoDuration returns the duration of a video file in milliseconds.
func (s *FFmpegService) GetVideoDuration(ctx context.Context, videoPath string) (int, error) {
	return s.probeDurationMs(ctx, videoPath)
}

func (s *FFmpegService) probeDurationMs(ctx context.Context, path string) (int, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return int(durationSec * 1000), nil
}

// CreateTempFile returns a path inside the service's temp directory.
func (s *FFmpegService) CreateTempFile(filename string) string {
	return filepath.Join(s.tempDir, filename)
}

// Cleanup removes temporary files.
func (s *FFmpegService) Cleanup(paths ...string) {
	for _, path := range paths {
		os.Remove(path)
	}
}
