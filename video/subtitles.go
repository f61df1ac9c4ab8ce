package video

import (
	"fmt"
	"math"
	"strings"

	"finshorts/types"
)

// SubtitleStyle controls the burned-in captions.
type SubtitleStyle struct {
	Font            string
	Size            int
	WordsPerCaption int
	Width           int
	Height          int
}

// BuildSRT renders segments as an SRT document.
func BuildSRT(segments []types.Segment) string {
	var b strings.Builder
	for i, s := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(s.Start), formatTimestamp(s.End))
		fmt.Fprintf(&b, "%s\n\n", s.Text)
	}
	return b.String()
}

func formatTimestamp(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// assTimestamp is H:MM:SS.cc.
func assTimestamp(seconds float64) string {
	cs := int64(math.Round(seconds * 100))
	if cs < 0 {
		cs = 0
	}
	return fmt.Sprintf("%d:%02d:%02d.%02d", cs/360_000, cs/6000%60, cs/100%60, cs%100)
}

// WordTiming is one spoken word with its span in seconds.
type WordTiming struct {
	Word       string
	Start, End float64
}

// SpreadWords distributes a segment's span over its words by character length.
func SpreadWords(seg types.Segment) []WordTiming {
	words := strings.Fields(seg.Text)
	if len(words) == 0 {
		return nil
	}
	total := 0
	for _, w := range words {
		total += len([]rune(w))
	}
	span := seg.End - seg.Start
	out := make([]WordTiming, len(words))
	at := seg.Start
	for i, w := range words {
		end := at + span*float64(len([]rune(w)))/float64(total)
		if i == len(words)-1 {
			end = seg.End
		}
		out[i] = WordTiming{Word: w, Start: at, End: end}
		at = end
	}
	return out
}

const (
	assWhite     = "&H00FFFFFF"
	assBlack     = "&H00000000"
	assHighlight = "&H0000D7FF" // amber, BGR order
)

// BuildASS renders karaoke-style captions: the segment words in groups of
// WordsPerCaption, with the word being spoken highlighted.
func BuildASS(segments []types.Segment, style SubtitleStyle) string {
	per := style.WordsPerCaption
	if per <= 0 {
		per = 3
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[Script Info]\nScriptType: v4.00+\nPlayResX: %d\nPlayResY: %d\nWrapStyle: 0\nScaledBorderAndShadow: yes\n\n",
		style.Width, style.Height)
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,%s,%s,%s,-1,0,0,0,100,100,0,0,1,5,0,2,60,60,%d,1\n\n",
		style.Font, style.Size, assWhite, assWhite, assBlack, assBlack, style.Height/5)
	b.WriteString("[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, seg := range segments {
		words := SpreadWords(seg)
		for start := 0; start < len(words); start += per {
			end := min(start+per, len(words))
			group := words[start:end]
			for i, w := range group {
				fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
					assTimestamp(w.Start), assTimestamp(w.End), captionText(group, i))
			}
		}
	}
	return b.String()
}

func captionText(group []WordTiming, active int) string {
	parts := make([]string, len(group))
	for i, w := range group {
		word := escapeASS(strings.ToUpper(w.Word))
		if i == active {
			word = fmt.Sprintf("{\\c%s&}%s{\\c%s&}", assHighlight, word, assWhite)
		}
		parts[i] = word
	}
	return strings.Join(parts, " ")
}

func escapeASS(s string) string {
	return strings.NewReplacer("{", "(", "}", ")", "\\", "/", "\n", " ").Replace(s)
}
