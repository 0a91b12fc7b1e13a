package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// Asset library
// Resolves team and model logo PNGs under the logos directory:
//   logos/teams/LAL.png    — keyed by team abbreviation
//   logos/models/gpt-4o.png — keyed by slugified model name
// Missing logos are never fatal: the overlay is simply skipped.
// ---------------------------------------------------------------------------

// How long a model's logo stays on screen after its name is spoken.
const maxMentionOverlaySeconds = 4.0

type AssetLibrary struct {
	logosDir string
}

func NewAssetLibrary(logosDir string) *AssetLibrary {
	return &AssetLibrary{logosDir: logosDir}
}

// TeamLogo returns the logo path for a team abbreviation, if present.
func (a *AssetLibrary) TeamLogo(abbrev string) (string, bool) {
	path := filepath.Join(a.logosDir, "teams", strings.ToUpper(abbrev)+".png")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// ModelLogo returns the logo path for an AI model name, if present.
func (a *AssetLibrary) ModelLogo(modelName string) (string, bool) {
	path := filepath.Join(a.logosDir, "models", slugifyModelName(modelName)+".png")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// slugifyModelName lowercases a model name and collapses everything that
// isn't alphanumeric into single dashes: "GPT-4o Mini" -> "gpt-4o-mini".
func slugifyModelName(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// MentionWindow is the screen time for one model logo, anchored to the
// moment the narration first speaks the model's name.
type MentionWindow struct {
	ModelName string
	LogoPath  string
	Start     float64
	End       float64
}

// ModelMentions finds the first spoken mention of each model in the word
// timings and builds a capped display window per model. Models without a
// logo on disk are skipped.
func (a *AssetLibrary) ModelMentions(words []WordTimestamp, modelNames []string) []MentionWindow {
	if len(words) == 0 {
		return nil
	}
	audioEnd := words[len(words)-1].End

	var mentions []MentionWindow
	for _, name := range modelNames {
		logoPath, ok := a.ModelLogo(name)
		if !ok {
			log.Printf("[Assets] No logo for model %q, skipping overlay", name)
			continue
		}
		token := firstNameToken(name)
		if token == "" {
			continue
		}
		for _, w := range words {
			if strings.Contains(strings.ToLower(w.Word), token) {
				end := w.Start + maxMentionOverlaySeconds
				if end > audioEnd {
					end = audioEnd
				}
				mentions = append(mentions, MentionWindow{
					ModelName: name,
					LogoPath:  logoPath,
					Start:     w.Start,
					End:       end,
				})
				break
			}
		}
	}
	return mentions
}

func firstNameToken(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,!?")
}

// Preflight verifies the logos directory exists. Individual logos may be
// missing; the directory itself must not be.
func (a *AssetLibrary) Preflight() error {
	info, err := os.Stat(a.logosDir)
	if err != nil {
		return fmt.Errorf("logos directory %s: %w", a.logosDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("logos path %s is not a directory", a.logosDir)
	}
	return nil
}
