package author

import (
	"regexp"
	"strings"

	"finshorts/config"
	"finshorts/types"
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// SplitSentences splits narration on sentence punctuation.
func SplitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EstimateSegments times each sentence at the average speaking rate.
func EstimateSegments(narration string) []types.Segment {
	var segs []types.Segment
	at := 0.0
	for _, s := range SplitSentences(narration) {
		d := float64(len(strings.Fields(s))) / config.WordsPerMinute * 60
		segs = append(segs, types.Segment{Text: s, Start: at, End: at + d})
		at += d
	}
	return segs
}

// EstimateDuration is the narration length in seconds at the average rate.
func EstimateDuration(narration string) float64 {
	return float64(len(strings.Fields(narration))) / config.WordsPerMinute * 60
}

// RescaleSegments re-times segments to fill duration in proportion to their
// word counts. The last segment always ends exactly at duration.
func RescaleSegments(segs []types.Segment, duration float64) []types.Segment {
	if len(segs) == 0 || duration <= 0 {
		return segs
	}
	total := 0
	for _, s := range segs {
		total += wordCount(s.Text)
	}
	out := make([]types.Segment, len(segs))
	at := 0.0
	for i, s := range segs {
		share := 1.0 / float64(len(segs))
		if total > 0 {
			share = float64(wordCount(s.Text)) / float64(total)
		}
		end := at + share*duration
		if i == len(segs)-1 {
			end = duration
		}
		out[i] = types.Segment{Text: s.Text, Start: at, End: end}
		at = end
	}
	return out
}

func wordCount(s string) int { return len(strings.Fields(s)) }
