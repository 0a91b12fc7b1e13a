package services

import (
	"context"
	"fmt"
	"log"
	"math"
)

// ---------------------------------------------------------------------------
// Footage allocation
// The base highlight reel is consumed through a rotating cursor so each
// render uses a fresh window of footage instead of reusing the opening
// seconds. The cursor persists across restarts (CursorStore) and only
// advances after a render has been published, so a failed render replays
// the same window next time.
// ---------------------------------------------------------------------------

// CursorStore persists the footage read position in seconds.
type CursorStore interface {
	GetFootageCursor(ctx context.Context) (float64, error)
	SetFootageCursor(ctx context.Context, position float64) error
}

// FootageSlice is a contiguous run of the base asset.
type FootageSlice struct {
	Offset   float64 // seconds into the asset
	Duration float64 // seconds
}

// FootageWindow is the footage for one render: a single slice, or two when
// the window wraps past the end of the asset.
type FootageWindow struct {
	Slices []FootageSlice
}

func (w FootageWindow) TotalDuration() float64 {
	total := 0.0
	for _, s := range w.Slices {
		total += s.Duration
	}
	return total
}

func (w FootageWindow) Wrapped() bool { return len(w.Slices) > 1 }

// FootageAllocator hands out consecutive windows of the base asset.
// Allocate computes the window and remembers the advanced cursor; Commit
// persists it. Not safe for concurrent use — renders are sequential.
type FootageAllocator struct {
	assetPath string
	assetLen  float64
	store     CursorStore
	pending   *float64
}

func NewFootageAllocator(assetPath string, assetLen float64, store CursorStore) (*FootageAllocator, error) {
	if assetLen <= 0 {
		return nil, fmt.Errorf("footage asset has non-positive duration %.2f", assetLen)
	}
	return &FootageAllocator{assetPath: assetPath, assetLen: assetLen, store: store}, nil
}

func (a *FootageAllocator) AssetPath() string { return a.assetPath }

// Allocate returns the next footage window of the given duration. The
// window starts at the persisted cursor (wrapped into the asset) and splits
// into two slices when it runs past the end of the reel.
func (a *FootageAllocator) Allocate(ctx context.Context, duration float64) (FootageWindow, error) {
	if duration <= 0 {
		return FootageWindow{}, fmt.Errorf("requested footage duration %.2f must be positive", duration)
	}
	if duration > a.assetLen {
		return FootageWindow{}, fmt.Errorf("requested footage duration %.2f exceeds asset length %.2f", duration, a.assetLen)
	}

	cursor, err := a.store.GetFootageCursor(ctx)
	if err != nil {
		return FootageWindow{}, fmt.Errorf("failed to read footage cursor: %w", err)
	}

	start := math.Mod(cursor, a.assetLen)
	if start < 0 {
		start += a.assetLen
	}

	var window FootageWindow
	if start+duration <= a.assetLen {
		window.Slices = []FootageSlice{{Offset: start, Duration: duration}}
	} else {
		head := a.assetLen - start
		window.Slices = []FootageSlice{
			{Offset: start, Duration: head},
			{Offset: 0, Duration: duration - head},
		}
	}

	next := math.Mod(start+duration, a.assetLen)
	a.pending = &next

	log.Printf("[Footage] Allocated %.2fs at cursor %.2f (slices=%d, next=%.2f)", duration, start, len(window.Slices), next)
	return window, nil
}

// Commit persists the cursor advanced by the last Allocate. Call only after
// the rendered video has been published.
func (a *FootageAllocator) Commit(ctx context.Context) error {
	if a.pending == nil {
		return fmt.Errorf("no pending footage allocation to commit")
	}
	if err := a.store.SetFootageCursor(ctx, *a.pending); err != nil {
		return fmt.Errorf("failed to persist footage cursor: %w", err)
	}
	a.pending = nil
	return nil
}
