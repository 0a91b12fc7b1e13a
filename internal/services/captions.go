package services

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// Caption alignment + ASS emission
//
// Word timings are grouped into short display segments that tile the audio
// with no gaps, then rendered as word-by-word highlighted ASS subtitles:
// bold white uppercase text centered on a portrait (1080x1920) canvas, with
// the spoken word carrying a colored pill border. Segments that name a
// model or a number get the emphasis color.
// ---------------------------------------------------------------------------

const (
	captionFontName = "Noto Sans"
	captionFontSize = 96

	// ASS colors are &HAABBGGRR (hex, BGR not RGB)
	captionColorWhite     = "&H00FFFFFF"
	captionColorBlack     = "&H00000000"
	captionColorOrange    = "&H000A7CF2" // #F27C0A in BGR — highlight pill
	captionColorGold      = "&H0014C8FF" // #FFC814 in BGR — emphasis pill
	captionColorSemiBlack = "&H80000000"

	captionOutlineNormal    = 5
	captionOutlineHighlight = 14

	// Vertical center of the 1920-height canvas; alignment 5 is mid-center.
	captionAlignment = 5
)

// CaptionConfig bounds a single display segment.
type CaptionConfig struct {
	MaxChars   int     // max characters of text per segment
	MaxSeconds float64 // max display duration per segment
}

// CaptionSegment is one on-screen caption: a run of consecutive words plus
// the display window [Start, End). Segments produced by BuildCaptionTrack
// tile [0, audioDuration] exactly.
type CaptionSegment struct {
	Words    []WordTimestamp
	Start    float64
	End      float64
	Emphasis bool
}

// Text returns the segment's display text.
func (s CaptionSegment) Text() string {
	parts := make([]string, 0, len(s.Words))
	for _, w := range s.Words {
		parts = append(parts, w.Word)
	}
	return strings.Join(parts, " ")
}

// BuildCaptionTrack groups word timings into display segments. A segment
// closes when adding the next word would exceed the character budget or the
// duration budget, or when the current word ends a sentence. A single word
// longer than the character budget still gets its own segment.
//
// Display windows are derived from word start times so consecutive segments
// hand off with no gap: each segment ends exactly where the next begins,
// the first starts at 0, and the last ends at audioDuration. The exception
// is a long pause in the narration — a segment's window is capped at
// MaxSeconds past its start (never before its own last word ends) so a
// caption doesn't sit frozen on screen through silence.
func BuildCaptionTrack(words []WordTimestamp, audioDuration float64, cfg CaptionConfig, emphasisTerms []string) []CaptionSegment {
	if len(words) == 0 {
		return nil
	}

	var groups [][]WordTimestamp
	var current []WordTimestamp
	currentChars := 0

	for _, w := range words {
		wlen := len(w.Word)
		if len(current) > 0 {
			overChars := currentChars+1+wlen > cfg.MaxChars
			overTime := w.End-current[0].Start > cfg.MaxSeconds
			if overChars || overTime {
				groups = append(groups, current)
				current = nil
				currentChars = 0
			}
		}
		current = append(current, w)
		currentChars += wlen
		if len(current) > 1 {
			currentChars++ // joining space
		}
		if endsSentence(w.Word) {
			groups = append(groups, current)
			current = nil
			currentChars = 0
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	segments := make([]CaptionSegment, len(groups))
	for i, g := range groups {
		seg := CaptionSegment{Words: g, Emphasis: hasEmphasis(g, emphasisTerms)}
		if i == 0 {
			seg.Start = 0
		} else {
			seg.Start = g[0].Start
		}
		if i < len(groups)-1 {
			seg.End = groups[i+1][0].Start
		} else {
			seg.End = audioDuration
		}
		if limit := seg.Start + cfg.MaxSeconds; seg.End > limit {
			if last := g[len(g)-1].End; last > limit {
				limit = last
			}
			seg.End = limit
		}
		segments[i] = seg
	}
	return segments
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?")
}

// hasEmphasis reports whether a word run mentions a number or any of the
// given terms (typically the model names on the panel).
func hasEmphasis(words []WordTimestamp, terms []string) bool {
	for _, w := range words {
		for _, r := range w.Word {
			if unicode.IsDigit(r) {
				return true
			}
		}
		lower := strings.ToLower(strings.Trim(w.Word, ".,!?"))
		for _, term := range terms {
			if term != "" && strings.Contains(lower, strings.ToLower(term)) {
				return true
			}
		}
	}
	return false
}

// ActiveWordIndex returns the index of the word being spoken at time t, or
// -1 when t falls before the first word. Between words it sticks with the
// most recently started word, which is what the highlight should show.
func ActiveWordIndex(words []WordTimestamp, t float64) int {
	idx := sort.Search(len(words), func(i int) bool {
		return words[i].Start > t
	})
	return idx - 1
}

// GenerateASSCaptions writes the caption track as an ASS subtitle file with
// one dialogue line per (segment, active word) pair. The active word gets a
// thick colored border; emphasis segments swap the pill color.
func GenerateASSCaptions(segments []CaptionSegment, outputPath string) error {
	if len(segments) == 0 {
		return fmt.Errorf("no caption segments to render")
	}

	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("PlayResX: 1080\n")
	sb.WriteString("PlayResY: 1920\n")
	sb.WriteString("WrapStyle: 0\n")
	sb.WriteString("ScaledBorderAndShadow: yes\n")
	sb.WriteString("\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	sb.WriteString(fmt.Sprintf(
		"Style: Default,%s,%d,%s,%s,%s,%s,-1,0,0,0,100,100,2,0,1,%d,0,%d,40,40,0,1\n",
		captionFontName, captionFontSize,
		captionColorWhite, captionColorWhite, captionColorBlack, captionColorSemiBlack,
		captionOutlineNormal, captionAlignment,
	))
	sb.WriteString("\n")

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, seg := range segments {
		pill := captionColorOrange
		if seg.Emphasis {
			pill = captionColorGold
		}
		for wordIdx, word := range seg.Words {
			start := word.Start
			if wordIdx == 0 {
				start = seg.Start
			}
			var end float64
			if wordIdx < len(seg.Words)-1 {
				end = seg.Words[wordIdx+1].Start
			} else {
				end = seg.End
			}
			if end <= start {
				continue
			}
			sb.WriteString(fmt.Sprintf(
				"Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
				formatASSTime(start),
				formatASSTime(end),
				buildHighlightedSegmentText(seg.Words, wordIdx, pill),
			))
		}
	}

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write ASS caption file: %w", err)
	}
	return nil
}

// buildHighlightedSegmentText renders a segment with the word at activeIdx
// wrapped in a pill border, e.g. "THE {\3c&H0A7CF2&\bord14}LAKERS{\r} WIN".
func buildHighlightedSegmentText(words []WordTimestamp, activeIdx int, pillColor string) string {
	var parts []string
	for i, word := range words {
		cleanWord := strings.ToUpper(strings.TrimSpace(word.Word))
		if cleanWord == "" {
			continue
		}
		if i == activeIdx {
			parts = append(parts, fmt.Sprintf("{\\3c%s\\bord%d}%s{\\r}", pillColor, captionOutlineHighlight, cleanWord))
		} else {
			parts = append(parts, cleanWord)
		}
	}
	return strings.Join(parts, " ")
}

// formatASSTime converts seconds to the ASS timestamp format H:MM:SS.CC.
func formatASSTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	centiseconds := int((seconds - float64(int(seconds))) * 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centiseconds)
}
