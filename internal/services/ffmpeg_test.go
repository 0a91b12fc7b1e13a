package services

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteConcatList(t *testing.T) {
	listPath := filepath.Join(t.TempDir(), "concat_list.txt")
	clips := []string{"/tmp/work/window_part_0.mp4", "/tmp/work/window_part_1.mp4"}

	if err := writeConcatList(listPath, clips); err != nil {
		t.Fatalf("writeConcatList: %v", err)
	}
	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	want := "file '/tmp/work/window_part_0.mp4'\nfile '/tmp/work/window_part_1.mp4'\n"
	if string(data) != want {
		t.Errorf("list content %q, want %q", string(data), want)
	}
}

func TestWriteConcatListUnwritablePath(t *testing.T) {
	listPath := filepath.Join(t.TempDir(), "missing", "concat_list.txt")
	if err := writeConcatList(listPath, []string{"clip.mp4"}); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}
