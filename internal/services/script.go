package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"strings"

	"github.com/hoopcast/hoopcast/internal/models"
)

// ---------------------------------------------------------------------------
// Script composition
// Turns a prediction record into a short spoken-word script. A backend
// (OpenAI or Gemini) can draft the script; the deterministic template is
// both the fallback and the default when no backend is configured.
// ---------------------------------------------------------------------------

// ScriptBackend drafts a voiceover script from a prediction record.
// Implementations must return plain spoken text, no markup.
type ScriptBackend interface {
	DraftScript(ctx context.Context, record *models.PredictionRecord, minWords, maxWords int) (string, error)
	Name() string
}

// ScriptBounds is the acceptable word-count range for a finished script.
type ScriptBounds struct {
	MinWords int
	MaxWords int
}

// Composer produces the final script for a matchup. Generated drafts that
// violate the bounds are discarded in favor of the template, so the
// pipeline never stalls on a misbehaving model.
type Composer struct {
	bounds  ScriptBounds
	backend ScriptBackend
}

func NewComposer(bounds ScriptBounds, backend ScriptBackend) *Composer {
	return &Composer{bounds: bounds, backend: backend}
}

// Intro hooks are rotated per game so back-to-back videos in a batch don't
// all open with the same line. Selection is a stable hash of the game ID.
var introHooks = []string{
	"The machines have spoken.",
	"Tonight's AI showdown is set.",
	"The models just made their picks.",
	"Artificial intelligence weighs in.",
	"The algorithms have decided.",
}

// Compose builds the spoken script for a record. The order is: backend
// draft if one is configured and its output fits the bounds, otherwise the
// deterministic template, compacted if the full render runs long.
func (c *Composer) Compose(ctx context.Context, record *models.PredictionRecord) (string, error) {
	if err := record.Validate(); err != nil {
		return "", &CompositionError{GameID: record.GameID, Reason: err.Error()}
	}

	if c.backend != nil {
		draft, err := c.backend.DraftScript(ctx, record, c.bounds.MinWords, c.bounds.MaxWords)
		if err != nil {
			log.Printf("[Script] %s draft failed for %s, using template: %v", c.backend.Name(), record.GameID, err)
		} else {
			draft = NormalizeSpeakable(draft)
			if n := WordCount(draft); n >= c.bounds.MinWords && n <= c.bounds.MaxWords {
				return draft, nil
			}
			log.Printf("[Script] %s draft for %s out of bounds (%d words), using template", c.backend.Name(), record.GameID, WordCount(draft))
		}
	}

	script := c.composeTemplate(record, false)
	if WordCount(script) > c.bounds.MaxWords {
		script = c.composeTemplate(record, true)
	}
	if WordCount(script) > c.bounds.MaxWords {
		script = trimToWords(script, c.bounds.MinWords, c.bounds.MaxWords)
	}
	if WordCount(script) == 0 {
		return "", &CompositionError{GameID: record.GameID, Reason: "template produced empty script"}
	}
	return script, nil
}

// composeTemplate renders the deterministic script. compact drops the
// Vegas line and shortens each prediction sentence; it is used when the
// full render exceeds the upper word bound (crowded prediction panels).
func (c *Composer) composeTemplate(record *models.PredictionRecord, compact bool) string {
	var b strings.Builder

	b.WriteString(pickIntroHook(record.GameID))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%s takes on %s.", record.AwayTeam, record.HomeTeam))

	if !compact && record.VegasFavorite != nil && *record.VegasFavorite != "" {
		if record.VegasSpread != nil && *record.VegasSpread > 0 {
			b.WriteString(fmt.Sprintf(" Vegas has %s favored by %s points.", *record.VegasFavorite, formatSpread(*record.VegasSpread)))
		} else {
			b.WriteString(fmt.Sprintf(" Vegas likes %s in this one.", *record.VegasFavorite))
		}
	}

	for _, p := range record.Predictions {
		if compact {
			b.WriteString(fmt.Sprintf(" %s picks %s.", p.ModelName, p.PredictedWinner))
		} else {
			b.WriteString(fmt.Sprintf(" %s says %s with %d percent confidence.", p.ModelName, p.PredictedWinner, int(math.Round(p.Confidence))))
		}
	}

	b.WriteString(" ")
	b.WriteString(outroLine(record))

	script := NormalizeSpeakable(b.String())

	// Pad short scripts (single-model panels) with engagement lines so the
	// voiceover doesn't end abruptly.
	for i := 0; WordCount(script) < c.bounds.MinWords && i < len(paddingLines); i++ {
		script = script + " " + paddingLines[i]
	}
	return script
}

var paddingLines = []string{
	"Lock in your own pick before tip off.",
	"Follow for a fresh AI matchup breakdown every single day.",
	"The scoreboard settles every argument tonight.",
}

// outroLine varies with how the panel split. A unanimous panel gets a
// challenge, a divided one gets the debate framing.
func outroLine(record *models.PredictionRecord) string {
	if len(record.Predictions) == 1 {
		return "One model, one pick. Do you trust the machine? Drop your prediction below!"
	}
	winners := make(map[string]struct{})
	for _, p := range record.Predictions {
		winners[p.PredictedWinner] = struct{}{}
	}
	if len(winners) > 1 {
		return "The machines are divided! Who do you think takes this one? Drop your pick below!"
	}
	return "Every single AI agrees! But will they be right? Drop your prediction below!"
}

func pickIntroHook(gameID string) string {
	h := fnv.New32a()
	h.Write([]byte(gameID))
	return introHooks[int(h.Sum32())%len(introHooks)]
}

// formatSpread renders a point spread without a trailing ".0" so the TTS
// reads "7 points" rather than "7.0 points".
func formatSpread(spread float64) string {
	if spread == math.Trunc(spread) {
		return fmt.Sprintf("%d", int(spread))
	}
	return fmt.Sprintf("%.1f", spread)
}

// NormalizeSpeakable rewrites symbols the TTS engines mispronounce and
// collapses whitespace. The output is what gets synthesized, so caption
// alignment always works against this exact text.
func NormalizeSpeakable(s string) string {
	s = strings.ReplaceAll(s, "%", " percent")
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "@", " at ")
	s = strings.ReplaceAll(s, "#", " number ")
	return strings.Join(strings.Fields(s), " ")
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// trimToWords hard-cuts a script to at most max words. It prefers ending on
// a sentence edge, but only when the shorter cut still clears the lower word
// bound; otherwise the mid-sentence cut at max words stands.
func trimToWords(s string, min, max int) string {
	fields := strings.Fields(s)
	if len(fields) <= max {
		return s
	}
	trimmed := strings.Join(fields[:max], " ")
	if idx := strings.LastIndexAny(trimmed, ".!?"); idx > 0 {
		if candidate := trimmed[:idx+1]; WordCount(candidate) >= min {
			trimmed = candidate
		}
	}
	return trimmed
}
