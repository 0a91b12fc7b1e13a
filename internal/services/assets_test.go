package services

import (
	"os"
	"path/filepath"
	"testing"
)

func testAssetLibrary(t *testing.T) *AssetLibrary {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"teams", "models"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatalf("failed to create %s dir: %v", sub, err)
		}
	}
	for _, name := range []string{"teams/LAL.png", "teams/GSW.png", "models/gpt-4o.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("png"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return NewAssetLibrary(dir)
}

func TestTeamLogoLookup(t *testing.T) {
	lib := testAssetLibrary(t)

	if _, ok := lib.TeamLogo("lal"); !ok {
		t.Error("lookup should be case-insensitive on the abbreviation")
	}
	if _, ok := lib.TeamLogo("BOS"); ok {
		t.Error("missing logo should report false")
	}
}

func TestSlugifyModelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GPT-4o", "gpt-4o"},
		{"GPT-4o Mini", "gpt-4o-mini"},
		{"Claude 3.5 Sonnet", "claude-3-5-sonnet"},
		{"Gemini", "gemini"},
	}
	for _, tt := range tests {
		if got := slugifyModelName(tt.in); got != tt.want {
			t.Errorf("slugifyModelName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModelMentions(t *testing.T) {
	lib := testAssetLibrary(t)
	words := []WordTimestamp{
		{Word: "Tonight", Start: 0, End: 0.5},
		{Word: "GPT-4o", Start: 0.5, End: 1.2},
		{Word: "says", Start: 1.2, End: 1.5},
		{Word: "Lakers", Start: 1.5, End: 2.0},
	}

	mentions := lib.ModelMentions(words, []string{"GPT-4o", "Claude"})
	if len(mentions) != 1 {
		t.Fatalf("expected 1 mention (Claude has no logo), got %d", len(mentions))
	}

	m := mentions[0]
	if m.ModelName != "GPT-4o" {
		t.Errorf("unexpected model %q", m.ModelName)
	}
	if m.Start != 0.5 {
		t.Errorf("mention should anchor to the spoken word, got %.2f", m.Start)
	}
	// Audio ends at 2.0, capping the 4s overlay window.
	if m.End != 2.0 {
		t.Errorf("mention window should cap at audio end, got %.2f", m.End)
	}
}

func TestModelMentionsCapped(t *testing.T) {
	lib := testAssetLibrary(t)
	words := []WordTimestamp{
		{Word: "GPT-4o", Start: 1.0, End: 1.5},
		{Word: "talks", Start: 1.5, End: 20.0},
	}

	mentions := lib.ModelMentions(words, []string{"GPT-4o"})
	if len(mentions) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(mentions))
	}
	if got := mentions[0].End - mentions[0].Start; got != maxMentionOverlaySeconds {
		t.Errorf("mention window %.2fs, want %.2f", got, maxMentionOverlaySeconds)
	}
}
