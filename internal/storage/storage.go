package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// Output store
// Finished videos land in the output directory under a collision-free name
// derived from the game date and team abbreviations:
//   20250111_LAL_GSW_1.mp4
// Work in progress stays in per-job temp directories and is published into
// place with an atomic rename, so the output directory never holds a
// half-written file.
// ---------------------------------------------------------------------------

type OutputStore struct {
	outputDir string
	tempDir   string
}

func New(outputDir, tempDir string) (*OutputStore, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &OutputStore{outputDir: outputDir, tempDir: tempDir}, nil
}

func (s *OutputStore) OutputDir() string { return s.outputDir }

// NextOutputName returns the first free file name for a matchup, counting
// up from 1. gameDate is YYYY-MM-DD; the dashes are dropped in the name.
func (s *OutputStore) NextOutputName(gameDate, awayAbbrev, homeAbbrev string) (string, error) {
	base := fmt.Sprintf("%s_%s_%s",
		strings.ReplaceAll(gameDate, "-", ""),
		strings.ToUpper(awayAbbrev),
		strings.ToUpper(homeAbbrev),
	)
	for n := 1; n < 1000; n++ {
		name := fmt.Sprintf("%s_%d.mp4", base, n)
		if _, err := os.Stat(filepath.Join(s.outputDir, name)); os.IsNotExist(err) {
			return name, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to probe output name %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("no free output name for %s after 999 attempts", base)
}

// JobTempDir creates (if needed) and returns the scratch directory for a job.
func (s *OutputStore) JobTempDir(jobID string) (string, error) {
	dir := filepath.Join(s.tempDir, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create job temp dir: %w", err)
	}
	return dir, nil
}

// CleanupJob removes a job's scratch directory. Best effort.
func (s *OutputStore) CleanupJob(jobID string) {
	dir := filepath.Join(s.tempDir, jobID)
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("[Storage] Failed to clean up %s: %v", dir, err)
	}
}

// Publish moves a finished video from its temp location into the output
// directory under the given name. Rename is atomic on the same filesystem;
// when temp and output live on different mounts it falls back to copy+rename
// within the output directory.
func (s *OutputStore) Publish(tempPath, name string) (string, error) {
	finalPath := filepath.Join(s.outputDir, name)

	if err := os.Rename(tempPath, finalPath); err == nil {
		return finalPath, nil
	}

	// Cross-device rename: stage a copy next to the final path first.
	stagePath := finalPath + ".part"
	if err := copyFile(tempPath, stagePath); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}
	if err := os.Rename(stagePath, finalPath); err != nil {
		os.Remove(stagePath)
		return "", fmt.Errorf("failed to publish %s: %w", name, err)
	}
	os.Remove(tempPath)
	return finalPath, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
