package services

import (
	"context"
	"math"
	"testing"
)

// memCursorStore is an in-memory CursorStore for tests.
type memCursorStore struct {
	position float64
	sets     int
}

func (m *memCursorStore) GetFootageCursor(ctx context.Context) (float64, error) {
	return m.position, nil
}

func (m *memCursorStore) SetFootageCursor(ctx context.Context, position float64) error {
	m.position = position
	m.sets++
	return nil
}

func TestAllocateSingleSlice(t *testing.T) {
	store := &memCursorStore{position: 10}
	a, err := NewFootageAllocator("reel.mp4", 600, store)
	if err != nil {
		t.Fatalf("failed to create allocator: %v", err)
	}

	window, err := a.Allocate(context.Background(), 25)
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}

	if len(window.Slices) != 1 {
		t.Fatalf("expected 1 slice, got %d", len(window.Slices))
	}
	if window.Slices[0].Offset != 10 || window.Slices[0].Duration != 25 {
		t.Errorf("unexpected slice: %+v", window.Slices[0])
	}
	if window.Wrapped() {
		t.Error("window should not be wrapped")
	}
}

func TestAllocateWrapsIntoTwoSlices(t *testing.T) {
	store := &memCursorStore{position: 590}
	a, err := NewFootageAllocator("reel.mp4", 600, store)
	if err != nil {
		t.Fatalf("failed to create allocator: %v", err)
	}

	window, err := a.Allocate(context.Background(), 25)
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}

	if len(window.Slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(window.Slices))
	}
	if window.Slices[0].Offset != 590 || window.Slices[0].Duration != 10 {
		t.Errorf("unexpected head slice: %+v", window.Slices[0])
	}
	if window.Slices[1].Offset != 0 || window.Slices[1].Duration != 15 {
		t.Errorf("unexpected tail slice: %+v", window.Slices[1])
	}
	if math.Abs(window.TotalDuration()-25) > 1e-9 {
		t.Errorf("total duration %.3f, want 25", window.TotalDuration())
	}
}

func TestCursorAdvancesOnlyOnCommit(t *testing.T) {
	store := &memCursorStore{position: 0}
	a, err := NewFootageAllocator("reel.mp4", 600, store)
	if err != nil {
		t.Fatalf("failed to create allocator: %v", err)
	}

	if _, err := a.Allocate(context.Background(), 25); err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if store.sets != 0 {
		t.Fatal("cursor must not move before commit")
	}

	if err := a.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if store.position != 25 {
		t.Errorf("cursor at %.2f after commit, want 25", store.position)
	}

	// Second commit without a new allocation must fail.
	if err := a.Commit(context.Background()); err == nil {
		t.Error("expected error committing without an allocation")
	}
}

func TestFailedRenderReusesWindow(t *testing.T) {
	store := &memCursorStore{position: 100}
	a, err := NewFootageAllocator("reel.mp4", 600, store)
	if err != nil {
		t.Fatalf("failed to create allocator: %v", err)
	}

	// Allocate without committing — as after a failed render.
	first, err := a.Allocate(context.Background(), 20)
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	second, err := a.Allocate(context.Background(), 20)
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}

	if first.Slices[0].Offset != second.Slices[0].Offset {
		t.Errorf("uncommitted windows should match: %.2f vs %.2f", first.Slices[0].Offset, second.Slices[0].Offset)
	}
}

func TestAllocateRejectsBadDurations(t *testing.T) {
	a, err := NewFootageAllocator("reel.mp4", 60, &memCursorStore{})
	if err != nil {
		t.Fatalf("failed to create allocator: %v", err)
	}

	if _, err := a.Allocate(context.Background(), 0); err == nil {
		t.Error("expected error for zero duration")
	}
	if _, err := a.Allocate(context.Background(), 61); err == nil {
		t.Error("expected error for duration past asset length")
	}
}

func TestNewFootageAllocatorRejectsEmptyAsset(t *testing.T) {
	if _, err := NewFootageAllocator("reel.mp4", 0, &memCursorStore{}); err == nil {
		t.Error("expected error for zero-length asset")
	}
}
